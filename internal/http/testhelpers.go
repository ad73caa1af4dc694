package httpx

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domainauth "github.com/komunitas-inovasi/komunitas/internal/domain/auth"
	"github.com/komunitas-inovasi/komunitas/internal/domain/model"
	"github.com/komunitas-inovasi/komunitas/internal/i18n"
	"github.com/komunitas-inovasi/komunitas/internal/service"
	"github.com/komunitas-inovasi/komunitas/internal/testutil"
	"github.com/komunitas-inovasi/komunitas/internal/viewer"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestResponder returns a Responder with the embedded message files and Indonesian as default.
func newTestResponder() *Responder {
	return &Responder{Translator: i18n.NewTranslator("id", discardLogger()), Logger: discardLogger()}
}

func testSession() *domainauth.Session {
	return &domainauth.Session{
		ID:        "sess-1",
		Username:  "admin",
		Token:     "backend-token",
		CreatedAt: testutil.TestTime(),
		ExpiresAt: testutil.TestTime().Add(time.Hour),
	}
}

// decodeError decodes the JSON error envelope from a response body.
func decodeError(t *testing.T, body []byte) errorBody {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(body, &e), string(body))
	return e
}

// mockAuthService is a test double for service.AuthService.
type mockAuthService struct {
	loginFunc      func(ctx context.Context, in service.LoginInput) (*domainauth.Session, error)
	getSessionFunc func(ctx context.Context, sessionID string) (*domainauth.Session, error)
	logoutFunc     func(ctx context.Context, sessionID string) error
}

func (m *mockAuthService) Login(ctx context.Context, in service.LoginInput) (*domainauth.Session, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, in)
	}
	s := testSession()
	s.Locale = in.Locale
	return s, nil
}

func (m *mockAuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if m.getSessionFunc != nil {
		return m.getSessionFunc(ctx, sessionID)
	}
	s := testSession()
	s.ID = sessionID
	return s, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFunc != nil {
		return m.logoutFunc(ctx, sessionID)
	}
	return nil
}

// mockRegistrantService is a test double for service.RegistrantService.
type mockRegistrantService struct {
	pageFunc     func(ctx context.Context, sess *domainauth.Session, page *int) (viewer.Page, error)
	moveFunc     func(op string, sess *domainauth.Session) (viewer.Page, error)
	exportFunc   func(kind string, sess *domainauth.Session) (*viewer.Export, error)
	registerFunc func(ctx context.Context, req model.RegistrationRequest) error
	forgotten    []string
}

func (m *mockRegistrantService) Page(ctx context.Context, sess *domainauth.Session, page *int) (viewer.Page, error) {
	if m.pageFunc != nil {
		return m.pageFunc(ctx, sess, page)
	}
	return viewer.Page{Page: 1, PageSize: viewer.PageSize, Loaded: true}, nil
}

func (m *mockRegistrantService) move(op string, sess *domainauth.Session) (viewer.Page, error) {
	if m.moveFunc != nil {
		return m.moveFunc(op, sess)
	}
	return viewer.Page{Page: 1, PageSize: viewer.PageSize, Loaded: true}, nil
}

func (m *mockRegistrantService) First(_ context.Context, sess *domainauth.Session) (viewer.Page, error) {
	return m.move("first", sess)
}

func (m *mockRegistrantService) Last(_ context.Context, sess *domainauth.Session) (viewer.Page, error) {
	return m.move("last", sess)
}

func (m *mockRegistrantService) Reload(_ context.Context, sess *domainauth.Session) (viewer.Page, error) {
	return m.move("reload", sess)
}

func (m *mockRegistrantService) ExportSpreadsheet(_ context.Context, sess *domainauth.Session) (*viewer.Export, error) {
	return m.exportFunc("xlsx", sess)
}

func (m *mockRegistrantService) ExportArchive(_ context.Context, sess *domainauth.Session) (*viewer.Export, error) {
	return m.exportFunc("zip", sess)
}

func (m *mockRegistrantService) Register(ctx context.Context, req model.RegistrationRequest) error {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, req)
	}
	return nil
}

func (m *mockRegistrantService) Forget(sessionID string) {
	m.forgotten = append(m.forgotten, sessionID)
}

// withSession attaches the test session to the request context as RequireAuth would.
func withSession(r *http.Request) *http.Request {
	return r.WithContext(SetSessionInContext(r.Context(), testSession()))
}
