package auth

// Package auth contains domain-level types for admin sessions.
// It is pure and free of framework/adapter concerns.

import (
	"errors"
	"time"

	"github.com/komunitas-inovasi/komunitas/internal/domain/model"
)

// ErrSessionNotFound is returned by session stores for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side record we persist for a logged-in admin.
// ID is an opaque session identifier carried in the session cookie; Token is the backend bearer
// token and never leaves the server.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	Locale    string    `json:"locale,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session lifetime has elapsed at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// AdminToken returns the backend token held by the session.
func (s Session) AdminToken() model.AdminToken {
	return model.AdminToken{Token: s.Token, ExpiresAt: s.ExpiresAt}
}
