package httpx

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"time"

	domainauth "github.com/komunitas-inovasi/komunitas/internal/domain/auth"
	"github.com/komunitas-inovasi/komunitas/internal/domain/model"
	"github.com/komunitas-inovasi/komunitas/internal/i18n"
	"github.com/komunitas-inovasi/komunitas/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	Login(ctx context.Context, in service.LoginInput) (*domainauth.Session, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// viewerForgetter drops per-session state kept outside the session store.
type viewerForgetter interface {
	Forget(sessionID string)
}

// AuthHandlers provides HTTP handlers for admin login and logout.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	Viewers      viewerForgetter
	Responder    *Responder
	CookieDomain string
	// TrustProxy honours X-Forwarded-Proto when deciding the cookie's Secure flag.
	TrustProxy   bool
	Logger       *slog.Logger
	Clock        func() time.Time
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

type sessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	Username      string     `json:"username,omitempty"`
	Locale        string     `json:"locale,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// Login exchanges admin credentials for a session cookie.
// POST /admin/login with a JSON body or a urlencoded/multipart form.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var creds model.AdminCredentials
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if !DecodeJSON(w, r, &creds) {
			return
		}
	} else {
		creds.Username = r.FormValue("username")
		creds.Password = r.FormValue("password")
	}

	session, err := h.Svc.Login(r.Context(), service.LoginInput{
		Credentials: creds,
		Locale:      h.Responder.Locale(r),
	})
	if err != nil {
		h.Responder.Fail(w, r, err, i18n.KeyLoginFailed, nil)
		return
	}

	h.setSessionCookie(w, r, session)
	expires := session.ExpiresAt
	WriteJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		Username:      session.Username,
		Locale:        session.Locale,
		ExpiresAt:     &expires,
	})
}

// Logout ends the session and clears the cookie. It succeeds without a session.
// POST /admin/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if logoutErr := h.Svc.Logout(r.Context(), cookie.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
		if h.Viewers != nil {
			h.Viewers.Forget(cookie.Value)
		}
	}

	clearCookie(w, r, SessionCookieName, h.CookieDomain, h.TrustProxy)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// Status reports whether the request carries a live session.
// GET /admin/session.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		WriteJSON(w, http.StatusOK, sessionResponse{})
		return
	}

	session, err := h.Svc.GetSession(r.Context(), cookie.Value)
	if err != nil {
		clearCookie(w, r, SessionCookieName, h.CookieDomain, h.TrustProxy)
		WriteJSON(w, http.StatusOK, sessionResponse{})
		return
	}

	expires := session.ExpiresAt
	WriteJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		Username:      session.Username,
		Locale:        session.Locale,
		ExpiresAt:     &expires,
	})
}

// setSessionCookie writes the session cookie based on the session's expiry.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s *domainauth.Session) {
	maxAge := int(s.ExpiresAt.Sub(h.now()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.ID,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r, h.TrustProxy),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
		Expires:  s.ExpiresAt.UTC(),
	})
}
