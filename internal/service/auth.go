package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/komunitas-inovasi/komunitas/internal/adapters/tokenclaims"
	"github.com/komunitas-inovasi/komunitas/internal/core"
	domainauth "github.com/komunitas-inovasi/komunitas/internal/domain/auth"
	"github.com/komunitas-inovasi/komunitas/internal/domain/model"
	apperrors "github.com/komunitas-inovasi/komunitas/internal/errors"
	"github.com/komunitas-inovasi/komunitas/internal/ports"
)

// DefaultSessionTTL is used when neither the backend nor the token reports an expiry.
const DefaultSessionTTL = time.Hour

// ErrSessionExpired is returned for sessions whose backend token has expired.
var ErrSessionExpired = apperrors.Unauthorized("session expired")

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Gateway    core.RegistrationGateway
	Sessions   ports.SessionStore
	DefaultTTL time.Duration
	Clock      func() time.Time
	Logger     *slog.Logger
}

// AuthService logs admins in against the community backend and keeps their token in a server-side session.
type AuthService struct {
	gateway    core.RegistrationGateway
	sessions   ports.SessionStore
	defaultTTL time.Duration
	clock      func() time.Time
	logger     *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	ttl := opts.DefaultTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		gateway:    opts.Gateway,
		sessions:   opts.Sessions,
		defaultTTL: ttl,
		clock:      clock,
		logger:     logger.With("component", "auth_service"),
	}
}

// LoginInput groups parameters for an admin login.
type LoginInput struct {
	Credentials model.AdminCredentials
	Locale      string
}

// Login validates the credentials, exchanges them for a backend token and persists a new session.
// The session expires with the token: the backend's exp wins, then the token's own exp claim,
// then DefaultTTL.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*domainauth.Session, error) {
	if err := in.Credentials.Validate(); err != nil {
		return nil, err
	}

	token, err := s.gateway.Login(ctx, in.Credentials)
	if err != nil {
		s.logger.WarnContext(ctx, "admin login rejected",
			"username", in.Credentials.Username,
			"error", err)
		return nil, fmt.Errorf("backend login: %w", err)
	}

	now := s.clock()
	expiresAt := s.tokenExpiry(token, now)
	if !now.Before(expiresAt) {
		return nil, apperrors.Unauthorized("backend issued an expired token")
	}

	session := domainauth.Session{
		ID:        generateSessionID(),
		Username:  strings.TrimSpace(in.Credentials.Username),
		Token:     token.Token,
		Locale:    in.Locale,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	s.logger.InfoContext(ctx, "admin logged in",
		"username", session.Username,
		"expires_at", session.ExpiresAt)
	return &session, nil
}

func (s *AuthService) tokenExpiry(token model.AdminToken, now time.Time) time.Time {
	if !token.ExpiresAt.IsZero() {
		return token.ExpiresAt
	}
	if exp, ok := tokenclaims.Expiry(token.Token); ok {
		return exp
	}
	return now.Add(s.defaultTTL)
}

// GetSession retrieves a session by ID.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, apperrors.Unauthorized("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domainauth.ErrSessionNotFound) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeUnauthorized, "no active session")
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session.Expired(s.clock()) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(ErrSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, ErrSessionExpired
	}

	return &session, nil
}

// Logout removes a session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// generateSessionID creates a cryptographically secure random session ID.
func generateSessionID() string {
	return uuid.New().String()
}
