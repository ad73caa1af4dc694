package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komunitas-inovasi/komunitas/internal/adapters/registrantapi"
	domainauth "github.com/komunitas-inovasi/komunitas/internal/domain/auth"
	apperrors "github.com/komunitas-inovasi/komunitas/internal/errors"
	"github.com/komunitas-inovasi/komunitas/internal/service"
	"github.com/komunitas-inovasi/komunitas/internal/testutil"
)

func newAuthHandlers(svc AuthServiceInterface, viewers viewerForgetter) *AuthHandlers {
	return &AuthHandlers{
		Svc:       svc,
		Viewers:   viewers,
		Responder: newTestResponder(),
		Logger:    discardLogger(),
		Clock:     testutil.FixedTimeFunc(testutil.TestTime()),
	}
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", SessionCookieName)
	return nil
}

func TestAuthHandlers_Login_JSON(t *testing.T) {
	var got service.LoginInput
	h := newAuthHandlers(&mockAuthService{
		loginFunc: func(_ context.Context, in service.LoginInput) (*domainauth.Session, error) {
			got = in
			s := testSession()
			s.Locale = in.Locale
			return s, nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"username":"admin","password":"rahasia"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "admin", got.Credentials.Username)
	assert.Equal(t, "rahasia", got.Credentials.Password)
	assert.Equal(t, "en", got.Locale)

	cookie := sessionCookie(t, rec.Result())
	assert.Equal(t, "sess-1", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, 3600, cookie.MaxAge)

	var body sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Authenticated)
	assert.Equal(t, "admin", body.Username)
	require.NotNil(t, body.ExpiresAt)
	assert.True(t, body.ExpiresAt.Equal(testSession().ExpiresAt))
}

func TestAuthHandlers_Login_Form(t *testing.T) {
	var got service.LoginInput
	h := newAuthHandlers(&mockAuthService{
		loginFunc: func(_ context.Context, in service.LoginInput) (*domainauth.Session, error) {
			got = in
			return testSession(), nil
		},
	}, nil)

	form := url.Values{"username": {"admin"}, "password": {"rahasia"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", got.Credentials.Username)
	assert.Equal(t, "id", got.Locale, "default locale without Accept-Language")
	assert.True(t, sessionCookie(t, rec.Result()).Secure)
}

func TestAuthHandlers_Login_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "validation",
			err:        apperrors.ValidationField("password", "kata sandi wajib diisi"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation",
			wantMsg:    "kata sandi wajib diisi",
		},
		{
			name:       "backend rejects with message",
			err:        &registrantapi.AuthError{StatusCode: 401, Message: "Password salah"},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "unauthorized",
			wantMsg:    "Password salah",
		},
		{
			name:       "backend unreachable",
			err:        &registrantapi.NetworkError{Op: "login", Err: errors.New("connection refused")},
			wantStatus: http.StatusBadGateway,
			wantCode:   "upstream_unavailable",
			wantMsg:    "Gagal login sebagai admin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newAuthHandlers(&mockAuthService{
				loginFunc: func(context.Context, service.LoginInput) (*domainauth.Session, error) {
					return nil, tt.err
				},
			}, nil)

			req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"username":"admin","password":"x"}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			h.Login(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeError(t, rec.Body.Bytes())
			assert.Equal(t, tt.wantCode, body.Error)
			assert.Equal(t, tt.wantMsg, body.Message)
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestAuthHandlers_Login_InvalidJSON(t *testing.T) {
	h := newAuthHandlers(&mockAuthService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"username":`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decodeError(t, rec.Body.Bytes()).Error)
}

func TestAuthHandlers_Logout(t *testing.T) {
	var loggedOut string
	viewers := &mockRegistrantService{}
	h := newAuthHandlers(&mockAuthService{
		logoutFunc: func(_ context.Context, id string) error {
			loggedOut = id
			return errors.New("redis down is only logged")
		},
	}, viewers)

	req := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-1"})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sess-1", loggedOut)
	assert.Equal(t, []string{"sess-1"}, viewers.forgotten)
	assert.Equal(t, -1, sessionCookie(t, rec.Result()).MaxAge)
}

func TestAuthHandlers_LogoutWithoutSession(t *testing.T) {
	called := false
	h := newAuthHandlers(&mockAuthService{
		logoutFunc: func(context.Context, string) error {
			called = true
			return nil
		},
	}, nil)

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/admin/logout", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, called)
}

func TestAuthHandlers_Status(t *testing.T) {
	h := newAuthHandlers(&mockAuthService{
		getSessionFunc: func(_ context.Context, id string) (*domainauth.Session, error) {
			if id == "good" {
				return testSession(), nil
			}
			return nil, service.ErrSessionExpired
		},
	}, nil)

	t.Run("no cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Status(rec, httptest.NewRequest(http.MethodGet, "/admin/session", nil))
		assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())
	})

	t.Run("live session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/session", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "good"})
		rec := httptest.NewRecorder()
		h.Status(rec, req)

		var body sessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Authenticated)
		assert.Equal(t, "admin", body.Username)
	})

	t.Run("expired session clears cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/session", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "old"})
		rec := httptest.NewRecorder()
		h.Status(rec, req)

		assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())
		assert.Equal(t, -1, sessionCookie(t, rec.Result()).MaxAge)
	})
}

func TestAuthHandlers_Login_SecureCookieFollowsTrustProxy(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		wantSecure bool
	}{
		{name: "forwarded https ignored without trusted proxy", trustProxy: false, wantSecure: false},
		{name: "forwarded https honoured behind trusted proxy", trustProxy: true, wantSecure: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newAuthHandlers(&mockAuthService{
				loginFunc: func(context.Context, service.LoginInput) (*domainauth.Session, error) {
					return testSession(), nil
				},
			}, nil)
			h.TrustProxy = tt.trustProxy

			req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"username":"admin","password":"rahasia"}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Forwarded-Proto", "https")
			rec := httptest.NewRecorder()
			h.Login(rec, req)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantSecure, sessionCookie(t, rec.Result()).Secure)
		})
	}
}
