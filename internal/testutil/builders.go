// Package testutil provides testing utilities and helpers for the komunitas service.
package testutil

import (
	"fmt"

	"github.com/komunitas-inovasi/komunitas/internal/domain/model"
)

// RegistrantBuilder provides a fluent interface for building Registrant values for testing.
type RegistrantBuilder struct {
	r model.Registrant
}

// NewRegistrant creates a RegistrantBuilder with sensible defaults and no attachment.
func NewRegistrant(id string) *RegistrantBuilder {
	return &RegistrantBuilder{
		r: model.Registrant{
			ID:    id,
			Name:  "Pendaftar " + id,
			Email: "pendaftar" + id + "@example.com",
			Phone: "+6281234567890",
		},
	}
}

// WithName sets the full name.
func (b *RegistrantBuilder) WithName(name string) *RegistrantBuilder {
	b.r.Name = name
	return b
}

// WithEmail sets the email address.
func (b *RegistrantBuilder) WithEmail(email string) *RegistrantBuilder {
	b.r.Email = email
	return b
}

// WithAttachment sets the attachment URL.
func (b *RegistrantBuilder) WithAttachment(url string) *RegistrantBuilder {
	b.r.Attachment = &url
	return b
}

// Build returns the registrant.
func (b *RegistrantBuilder) Build() model.Registrant {
	return b.r
}

// Registrants returns n registrants with IDs "1".."n" in order.
func Registrants(n int) []model.Registrant {
	out := make([]model.Registrant, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, NewRegistrant(fmt.Sprint(i)).Build())
	}
	return out
}
