package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/komunitas-inovasi/komunitas/internal/domain/auth"
	apperrors "github.com/komunitas-inovasi/komunitas/internal/errors"
	"github.com/komunitas-inovasi/komunitas/internal/service"
)

func protectedHandler(t *testing.T, called *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		sess, ok := GetSessionFromContext(r.Context())
		assert.True(t, ok)
		if ok {
			assert.Equal(t, "sess-1", sess.ID)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireAuth_Success(t *testing.T) {
	called := false
	mw := RequireAuth(&mockAuthService{}, newTestResponder(), "", false)

	req := httptest.NewRequest(http.MethodGet, "/api/pendaftar", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-1"})
	rec := httptest.NewRecorder()
	mw(protectedHandler(t, &called)).ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestRequireAuth_NoCookie(t *testing.T) {
	called := false
	mw := RequireAuth(&mockAuthService{}, newTestResponder(), "", false)

	rec := httptest.NewRecorder()
	mw(protectedHandler(t, &called)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pendaftar", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "authentication_required", decodeError(t, rec.Body.Bytes()).Error)
}

func TestRequireAuth_SessionErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantMsg  string
	}{
		{
			name:     "expired",
			err:      service.ErrSessionExpired,
			wantCode: "session_expired",
			wantMsg:  "Sesi berakhir, silakan login kembali",
		},
		{
			name:     "unknown session",
			err:      apperrors.Unauthorized("invalid session"),
			wantCode: "authentication_required",
		},
		{
			name:     "store unavailable",
			err:      errors.New("redis down"),
			wantCode: "authentication_required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &mockAuthService{
				getSessionFunc: func(context.Context, string) (*domainauth.Session, error) { return nil, tt.err },
			}
			mw := RequireAuth(svc, newTestResponder(), "komunitas.example", false)

			req := httptest.NewRequest(http.MethodGet, "/api/pendaftar", nil)
			req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
			rec := httptest.NewRecorder()
			mw(protectedHandler(t, &called)).ServeHTTP(rec, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			body := decodeError(t, rec.Body.Bytes())
			assert.Equal(t, tt.wantCode, body.Error)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body.Message)
			}

			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1, "stale cookie is cleared")
			assert.Equal(t, SessionCookieName, cookies[0].Name)
			assert.Equal(t, "komunitas.example", cookies[0].Domain)
			assert.Less(t, cookies[0].MaxAge, 0)
		})
	}
}

func TestRequireAuth_ClearedCookieSecureFollowsTrustProxy(t *testing.T) {
	svc := &mockAuthService{
		getSessionFunc: func(context.Context, string) (*domainauth.Session, error) {
			return nil, service.ErrSessionExpired
		},
	}

	for _, trustProxy := range []bool{false, true} {
		called := false
		mw := RequireAuth(svc, newTestResponder(), "", trustProxy)

		req := httptest.NewRequest(http.MethodGet, "/api/pendaftar", nil)
		req.Header.Set("X-Forwarded-Proto", "https")
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
		rec := httptest.NewRecorder()
		mw(protectedHandler(t, &called)).ServeHTTP(rec, req)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, trustProxy, cookies[0].Secure, "trustProxy=%v", trustProxy)
	}
}
