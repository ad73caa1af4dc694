package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/komunitas-inovasi/komunitas/internal/domain/auth"
	"github.com/komunitas-inovasi/komunitas/internal/domain/model"
	apperrors "github.com/komunitas-inovasi/komunitas/internal/errors"
	"github.com/komunitas-inovasi/komunitas/internal/mocks"
	mockauth "github.com/komunitas-inovasi/komunitas/internal/mocks/auth"
	"github.com/komunitas-inovasi/komunitas/internal/testutil"
)

// mockSessionStore is a test helper for testing session store errors.
type mockSessionStore struct {
	saveFunc   func(context.Context, domainauth.Session) error
	getFunc    func(context.Context, string) (domainauth.Session, error)
	deleteFunc func(context.Context, string) error
}

func (m *mockSessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, sess)
	}
	return nil
}

func (m *mockSessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return domainauth.Session{}, nil
}

func (m *mockSessionStore) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

var validCreds = model.AdminCredentials{Username: " admin ", Password: "rahasia"}

func newAuthFixture(t *testing.T) (*AuthService, *mocks.MockRegistrationGateway, *mockauth.MemorySessionStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockRegistrationGateway(ctrl)
	sessions := mockauth.NewMemorySessionStore()
	sessions.Now = testutil.FixedTimeFunc(testutil.TestTime())

	svc := NewAuthService(AuthServiceOptions{
		Gateway:  gateway,
		Sessions: sessions,
		Clock:    testutil.FixedTimeFunc(testutil.TestTime()),
		Logger:   discardLogger(),
	})
	return svc, gateway, sessions
}

func jwtExpiring(t *testing.T, exp time.Time) string {
	t.Helper()
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: []byte("0123456789abcdef0123456789abcdef")}, nil)
	require.NoError(t, err)
	raw, err := jwt.Signed(signer).Claims(jwt.Claims{Subject: "admin", Expiry: jwt.NewNumericDate(exp)}).Serialize()
	require.NoError(t, err)
	return raw
}

func TestAuthService_Login_BackendExpiry(t *testing.T) {
	svc, gateway, sessions := newAuthFixture(t)
	exp := testutil.TestTime().Add(2 * time.Hour)
	gateway.EXPECT().Login(gomock.Any(), validCreds).Return(model.AdminToken{Token: "opaque", ExpiresAt: exp}, nil)

	sess, err := svc.Login(context.Background(), LoginInput{Credentials: validCreds, Locale: "en"})
	require.NoError(t, err)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "admin", sess.Username)
	assert.Equal(t, "opaque", sess.Token)
	assert.Equal(t, "en", sess.Locale)
	assert.Equal(t, exp, sess.ExpiresAt)
	assert.Equal(t, testutil.TestTime(), sess.CreatedAt)

	stored, err := sessions.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, *sess, stored)
}

func TestAuthService_Login_ExpiryFromTokenClaims(t *testing.T) {
	svc, gateway, _ := newAuthFixture(t)
	exp := testutil.TestTime().Add(30 * time.Minute)
	gateway.EXPECT().Login(gomock.Any(), gomock.Any()).Return(model.AdminToken{Token: jwtExpiring(t, exp)}, nil)

	sess, err := svc.Login(context.Background(), LoginInput{Credentials: validCreds})
	require.NoError(t, err)
	assert.Equal(t, exp, sess.ExpiresAt)
}

func TestAuthService_Login_DefaultTTL(t *testing.T) {
	svc, gateway, _ := newAuthFixture(t)
	gateway.EXPECT().Login(gomock.Any(), gomock.Any()).Return(model.AdminToken{Token: "opaque"}, nil)

	sess, err := svc.Login(context.Background(), LoginInput{Credentials: validCreds})
	require.NoError(t, err)
	assert.Equal(t, testutil.TestTime().Add(DefaultSessionTTL), sess.ExpiresAt)
}

func TestAuthService_Login_ExpiredToken(t *testing.T) {
	svc, gateway, sessions := newAuthFixture(t)
	gateway.EXPECT().Login(gomock.Any(), gomock.Any()).
		Return(model.AdminToken{Token: "old", ExpiresAt: testutil.TestTime().Add(-time.Minute)}, nil)

	_, err := svc.Login(context.Background(), LoginInput{Credentials: validCreds})
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.Zero(t, sessions.Len())
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), LoginInput{Credentials: model.AdminCredentials{Username: "admin"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "password", apperrors.GetField(err))
}

func TestAuthService_Login_BackendError(t *testing.T) {
	svc, gateway, _ := newAuthFixture(t)
	backendErr := errors.New("Password salah")
	gateway.EXPECT().Login(gomock.Any(), gomock.Any()).Return(model.AdminToken{}, backendErr)

	_, err := svc.Login(context.Background(), LoginInput{Credentials: validCreds})
	require.ErrorIs(t, err, backendErr)
	assert.Contains(t, err.Error(), "backend login")
}

func TestAuthService_Login_SessionSaveError(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockRegistrationGateway(ctrl)
	gateway.EXPECT().Login(gomock.Any(), gomock.Any()).Return(model.AdminToken{Token: "opaque"}, nil)

	svc := NewAuthService(AuthServiceOptions{
		Gateway: gateway,
		Sessions: &mockSessionStore{saveFunc: func(context.Context, domainauth.Session) error {
			return errors.New("save error")
		}},
		Logger: discardLogger(),
	})

	_, err := svc.Login(context.Background(), LoginInput{Credentials: validCreds})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save session")
	assert.Contains(t, err.Error(), "save error")
}

func TestAuthService_GetSession(t *testing.T) {
	svc, gateway, _ := newAuthFixture(t)
	gateway.EXPECT().Login(gomock.Any(), gomock.Any()).Return(model.AdminToken{Token: "opaque"}, nil)

	sess, err := svc.Login(context.Background(), LoginInput{Credentials: validCreds})
	require.NoError(t, err)

	got, err := svc.GetSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Token, got.Token)

	_, err = svc.GetSession(context.Background(), "")
	assert.True(t, apperrors.IsUnauthorized(err))

	_, err = svc.GetSession(context.Background(), "unknown")
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestAuthService_GetSession_Expired(t *testing.T) {
	deleted := ""
	store := &mockSessionStore{
		getFunc: func(_ context.Context, id string) (domainauth.Session, error) {
			return domainauth.Session{ID: id, ExpiresAt: testutil.TestTime().Add(-time.Second)}, nil
		},
		deleteFunc: func(_ context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	svc := NewAuthService(AuthServiceOptions{
		Sessions: store,
		Clock:    testutil.FixedTimeFunc(testutil.TestTime()),
		Logger:   discardLogger(),
	})

	_, err := svc.GetSession(context.Background(), "s1")
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, "s1", deleted)
}

func TestAuthService_GetSession_StoreError(t *testing.T) {
	svc := NewAuthService(AuthServiceOptions{
		Sessions: &mockSessionStore{getFunc: func(context.Context, string) (domainauth.Session, error) {
			return domainauth.Session{}, errors.New("redis down")
		}},
		Logger: discardLogger(),
	})

	_, err := svc.GetSession(context.Background(), "s1")
	require.Error(t, err)
	assert.False(t, apperrors.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "redis down")
}

func TestAuthService_Logout(t *testing.T) {
	svc, gateway, sessions := newAuthFixture(t)
	gateway.EXPECT().Login(gomock.Any(), gomock.Any()).Return(model.AdminToken{Token: "opaque"}, nil)

	sess, err := svc.Login(context.Background(), LoginInput{Credentials: validCreds})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), sess.ID))
	assert.Zero(t, sessions.Len())
	require.NoError(t, svc.Logout(context.Background(), ""))

	failing := NewAuthService(AuthServiceOptions{
		Sessions: &mockSessionStore{deleteFunc: func(context.Context, string) error { return errors.New("delete error") }},
	})
	assert.ErrorContains(t, failing.Logout(context.Background(), "s1"), "delete error")
}
