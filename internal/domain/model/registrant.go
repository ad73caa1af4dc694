//revive:disable-next-line:var-naming // legacy package name used across the project
package model

import (
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	apperrors "github.com/komunitas-inovasi/komunitas/internal/errors"
)

const (
	// MaxProofOfPaymentBytes caps the proof-of-payment upload accepted by the registration form.
	MaxProofOfPaymentBytes = 5 << 20
)

var (
	emailRe = regexp.MustCompile(`\S+@\S+\.\S+`)
	phoneRe = regexp.MustCompile(`^\+?\d{10,15}$`)

	allowedProofContentTypes = map[string]bool{
		"image/jpeg":      true,
		"image/png":       true,
		"application/pdf": true,
	}
)

// Registrant is a person who submitted the registration form, as returned by the community backend.
// Attachment is the absolute URL of the uploaded proof of payment, or nil when none was uploaded.
type Registrant struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	Attachment *string `json:"attachment,omitempty"`
}

// HasAttachment reports whether the registrant uploaded a proof of payment.
func (r Registrant) HasAttachment() bool {
	return r.Attachment != nil && strings.TrimSpace(*r.Attachment) != ""
}

// AttachmentFilename returns the last path segment of the attachment URL, or "" when there is none.
func (r Registrant) AttachmentFilename() string {
	if !r.HasAttachment() {
		return ""
	}
	raw := strings.TrimSpace(*r.Attachment)
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	name := path.Base(raw)
	if name == "." || name == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return name
}

// ProofOfPayment is the uploaded file carried by a registration.
type ProofOfPayment struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// RegistrationRequest contains the fields submitted through the public registration form.
type RegistrationRequest struct {
	Name           string
	Email          string
	Phone          string
	ProofOfPayment *ProofOfPayment
}

// NormalizedPhone strips whitespace from the phone number.
func (r *RegistrationRequest) NormalizedPhone() string {
	return strings.Join(strings.Fields(r.Phone), "")
}

// Validate checks the registration fields. The first failing field is reported.
func (r *RegistrationRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperrors.ValidationField("name", "nama lengkap wajib diisi")
	}

	email := strings.TrimSpace(r.Email)
	switch {
	case email == "":
		return apperrors.ValidationField("email", "email wajib diisi")
	case !emailRe.MatchString(email):
		return apperrors.ValidationField("email", "format email tidak valid")
	}

	phone := r.NormalizedPhone()
	switch {
	case phone == "":
		return apperrors.ValidationField("phone", "nomor telepon wajib diisi")
	case !phoneRe.MatchString(phone):
		return apperrors.ValidationField("phone", "nomor telepon harus 10-15 digit")
	}

	return r.validateProof()
}

func (r *RegistrationRequest) validateProof() error {
	p := r.ProofOfPayment
	if p == nil || p.Content == nil || strings.TrimSpace(p.Filename) == "" {
		return apperrors.ValidationField("proof_of_payment", "bukti transfer wajib diunggah")
	}
	if p.Size > MaxProofOfPaymentBytes {
		return apperrors.ValidationField("proof_of_payment", "ukuran bukti transfer maksimal 5MB")
	}
	ct := strings.ToLower(strings.TrimSpace(p.ContentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if !allowedProofContentTypes[ct] {
		return apperrors.ValidationField("proof_of_payment", "bukti transfer harus berupa JPG, PNG, atau PDF")
	}
	return nil
}
