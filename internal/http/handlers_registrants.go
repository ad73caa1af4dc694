package httpx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/wailsapp/mimetype"

	domainauth "github.com/komunitas-inovasi/komunitas/internal/domain/auth"
	"github.com/komunitas-inovasi/komunitas/internal/domain/model"
	apperrors "github.com/komunitas-inovasi/komunitas/internal/errors"
	"github.com/komunitas-inovasi/komunitas/internal/i18n"
	"github.com/komunitas-inovasi/komunitas/internal/viewer"
)

// Registration form field names, shared with the community backend.
const (
	fieldName  = "nama-lengkap"
	fieldEmail = "email"
	fieldPhone = "no-telp"
	fieldProof = "bukti-transfer"

	// multipartOverhead is the allowance for form fields on top of the file itself.
	multipartOverhead = 1 << 20
)

// RegistrantServiceInterface is the registrant console as seen by the handlers.
type RegistrantServiceInterface interface {
	Page(ctx context.Context, sess *domainauth.Session, page *int) (viewer.Page, error)
	First(ctx context.Context, sess *domainauth.Session) (viewer.Page, error)
	Last(ctx context.Context, sess *domainauth.Session) (viewer.Page, error)
	Reload(ctx context.Context, sess *domainauth.Session) (viewer.Page, error)
	ExportSpreadsheet(ctx context.Context, sess *domainauth.Session) (*viewer.Export, error)
	ExportArchive(ctx context.Context, sess *domainauth.Session) (*viewer.Export, error)
	Register(ctx context.Context, req model.RegistrationRequest) error
	Forget(sessionID string)
}

// RegistrantHandlers serves the admin registrant table, its exports and the public registration form.
type RegistrantHandlers struct {
	Svc       RegistrantServiceInterface
	Responder *Responder
	Logger    *slog.Logger
}

func (h *RegistrantHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// pageResponse is a viewer page plus a localized count line.
type pageResponse struct {
	viewer.Page
	Summary string `json:"summary"`
}

func (h *RegistrantHandlers) writePage(w http.ResponseWriter, r *http.Request, page viewer.Page) {
	summary := ""
	if h.Responder != nil && h.Responder.Translator != nil {
		summary = h.Responder.Translator.N(h.Responder.Locale(r), i18n.KeyRegistrantsCount, page.TotalCount)
	}
	WriteJSON(w, http.StatusOK, pageResponse{Page: page, Summary: summary})
}

// Page returns the current page, loading the collection on first access.
// GET /api/pendaftar?page=N.
func (h *RegistrantHandlers) Page(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSessionFromContext(r.Context())
	if !ok {
		h.Responder.Fail(w, r, apperrors.Unauthorized("authentication required"), "", nil)
		return
	}

	var target *int
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.Responder.Fail(w, r, apperrors.ValidationField("page", "page must be a number"), "", nil)
			return
		}
		target = &n
	}

	page, err := h.Svc.Page(r.Context(), sess, target)
	if err != nil {
		var data map[string]any
		if target != nil {
			data = map[string]any{"Page": *target}
		}
		h.Responder.Fail(w, r, err, i18n.KeyFetchFailed, data)
		return
	}
	h.writePage(w, r, page)
}

// First moves to page 1. POST /api/pendaftar/first.
func (h *RegistrantHandlers) First(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, h.Svc.First)
}

// Last moves to the last page. POST /api/pendaftar/last.
func (h *RegistrantHandlers) Last(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, h.Svc.Last)
}

// Reload refetches the collection. POST /api/pendaftar/reload.
func (h *RegistrantHandlers) Reload(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, h.Svc.Reload)
}

func (h *RegistrantHandlers) navigate(
	w http.ResponseWriter,
	r *http.Request,
	move func(context.Context, *domainauth.Session) (viewer.Page, error),
) {
	sess, ok := GetSessionFromContext(r.Context())
	if !ok {
		h.Responder.Fail(w, r, apperrors.Unauthorized("authentication required"), "", nil)
		return
	}
	page, err := move(r.Context(), sess)
	if err != nil {
		h.Responder.Fail(w, r, err, i18n.KeyFetchFailed, nil)
		return
	}
	h.writePage(w, r, page)
}

// ExportSpreadsheet downloads the whole collection as xlsx. GET /api/pendaftar/export.xlsx.
func (h *RegistrantHandlers) ExportSpreadsheet(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, h.Svc.ExportSpreadsheet)
}

// ExportArchive downloads all proof-of-payment files as zip. GET /api/pendaftar/export.zip.
func (h *RegistrantHandlers) ExportArchive(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, h.Svc.ExportArchive)
}

func (h *RegistrantHandlers) export(
	w http.ResponseWriter,
	r *http.Request,
	build func(context.Context, *domainauth.Session) (*viewer.Export, error),
) {
	sess, ok := GetSessionFromContext(r.Context())
	if !ok {
		h.Responder.Fail(w, r, apperrors.Unauthorized("authentication required"), "", nil)
		return
	}

	out, err := build(r.Context(), sess)
	if err != nil {
		h.Responder.Fail(w, r, err, "", nil)
		return
	}

	hdr := w.Header()
	hdr.Set("Content-Type", out.ContentType)
	hdr.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.Filename}))
	hdr.Set("Content-Length", strconv.Itoa(len(out.Data)))
	hdr.Set("X-Export-Entries", strconv.Itoa(out.Entries))
	if out.Skipped > 0 {
		hdr.Set("X-Export-Skipped", strconv.Itoa(out.Skipped))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Data); err != nil {
		h.logger().DebugContext(r.Context(), "export download interrupted", "file", out.Filename, "error", err)
	}
}

// Register forwards the public registration form to the community backend.
// POST /api/pendaftar/add (multipart/form-data).
func (h *RegistrantHandlers) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, model.MaxProofOfPaymentBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Responder.Fail(w, r, apperrors.ValidationField("proof_of_payment", "ukuran bukti transfer maksimal 5MB"), "", nil)
			return
		}
		h.Responder.Fail(w, r, apperrors.Validation("invalid form data"), "", nil)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req := model.RegistrationRequest{
		Name:  r.FormValue(fieldName),
		Email: r.FormValue(fieldEmail),
		Phone: r.FormValue(fieldPhone),
	}

	proof, err := readProof(r)
	if err != nil {
		h.Responder.Fail(w, r, err, i18n.KeyRegisterFailed, nil)
		return
	}
	req.ProofOfPayment = proof

	if err := h.Svc.Register(r.Context(), req); err != nil {
		h.Responder.Fail(w, r, err, i18n.KeyRegisterFailed, nil)
		return
	}
	WriteMessage(w, http.StatusCreated, h.Responder.T(r, i18n.KeyRegisterSuccess, nil))
}

// readProof loads the uploaded proof of payment and sniffs its content type.
// A missing file yields nil so validation reports it.
func readProof(r *http.Request) (*model.ProofOfPayment, error) {
	file, header, err := r.FormFile(fieldProof)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fieldProof, err)
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	data, err := io.ReadAll(io.LimitReader(file, model.MaxProofOfPaymentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fieldProof, err)
	}

	contentType, _, _ := mime.ParseMediaType(mimetype.Detect(data).String())
	return &model.ProofOfPayment{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Content:     bytes.NewReader(data),
	}, nil
}
