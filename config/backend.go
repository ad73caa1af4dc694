package config

import (
	"strings"
	"time"
)

// BackendConfig locates the community backend that owns registrants and admin logins.
type BackendConfig struct {
	// APIURL is the absolute base URL of the backend, e.g. https://api.komunitas.example.
	APIURL string `env:"BACKEND_API_URL,required"`

	// Timeout bounds each backend request.
	Timeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"15s"`
}

// Sanitize trims the URL and enforces a positive timeout.
func (b *BackendConfig) Sanitize() {
	b.APIURL = strings.TrimRight(strings.TrimSpace(b.APIURL), "/")
	if b.Timeout <= 0 {
		b.Timeout = 15 * time.Second
	}
}

// ExportConfig tunes the attachment archive export.
type ExportConfig struct {
	// AttachmentConcurrency bounds concurrent attachment downloads (1..32).
	AttachmentConcurrency int `env:"EXPORT_ATTACHMENT_CONCURRENCY" envDefault:"4"`

	// MaxAttachmentBytes caps a single downloaded attachment.
	MaxAttachmentBytes int64 `env:"EXPORT_MAX_ATTACHMENT_BYTES" envDefault:"20971520"`
}

// Sanitize clamps the export limits.
func (e *ExportConfig) Sanitize() {
	e.AttachmentConcurrency = min(max(e.AttachmentConcurrency, 1), 32)
	if e.MaxAttachmentBytes <= 0 {
		e.MaxAttachmentBytes = 20 << 20
	}
}
