package model

import (
	"strings"
	"time"

	apperrors "github.com/komunitas-inovasi/komunitas/internal/errors"
)

// AdminCredentials are submitted by the admin login form.
type AdminCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate requires both fields to be non-blank.
func (c AdminCredentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return apperrors.ValidationField("username", "nama pengguna wajib diisi")
	}
	if strings.TrimSpace(c.Password) == "" {
		return apperrors.ValidationField("password", "kata sandi wajib diisi")
	}
	return nil
}

// AdminToken is the bearer token issued by the community backend on admin login.
// ExpiresAt is zero when the backend did not report an expiry.
type AdminToken struct {
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the token has an expiry that lies at or before now.
func (t AdminToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}
