package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"club-portal/internal/model"
	"club-portal/pkg/apierror"
)

var testDomains = []string{"sustech.edu.cn", "mail.sustech.edu.cn"}

func newTestAuthService(store *stubUserStore) *AuthService {
	tokens := NewTokenService("test-secret", time.Hour, 24*time.Hour)
	hasher := NewPasswordHasher(bcrypt.MinCost)
	return NewAuthService(store, tokens, hasher, testDomains)
}

func requireAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, code, apiErr.Code)
}

func TestRegisterIssuesTokensAndSanitizedUser(t *testing.T) {
	store := newStubUserStore()
	auth := newTestAuthService(store)

	pair, err := auth.Register(context.Background(), model.RegisterRequest{
		Email:    "alice@sustech.edu.cn",
		Username: "alice",
		Password: "password123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "alice", pair.User.Username)
	require.Equal(t, model.RoleUser, pair.User.Role)

	stored, err := store.FindByEmail(context.Background(), "alice@sustech.edu.cn")
	require.NoError(t, err)
	require.NotNil(t, stored.PasswordHash)
	require.NotEqual(t, "password123", *stored.PasswordHash)
}

func TestRegisterRejectsForeignEmailDomain(t *testing.T) {
	auth := newTestAuthService(newStubUserStore())

	_, err := auth.Register(context.Background(), model.RegisterRequest{
		Email:    "alice@gmail.com",
		Username: "alice",
		Password: "password123",
	})
	requireAPIErrorCode(t, err, "VALIDATION")
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	auth := newTestAuthService(newStubUserStore())

	_, err := auth.Register(context.Background(), model.RegisterRequest{
		Email:    "alice@sustech.edu.cn",
		Username: "alice",
		Password: "short",
	})
	requireAPIErrorCode(t, err, "VALIDATION")
}

func TestRegisterRejectsBadUsername(t *testing.T) {
	auth := newTestAuthService(newStubUserStore())

	_, err := auth.Register(context.Background(), model.RegisterRequest{
		Email:    "alice@sustech.edu.cn",
		Username: "a!",
		Password: "password123",
	})
	requireAPIErrorCode(t, err, "VALIDATION")
}

func TestRegisterDuplicateEmailCaseInsensitive(t *testing.T) {
	auth := newTestAuthService(newStubUserStore())

	_, err := auth.Register(context.Background(), model.RegisterRequest{
		Email:    "a@sustech.edu.cn",
		Username: "first",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = auth.Register(context.Background(), model.RegisterRequest{
		Email:    "A@sustech.edu.cn",
		Username: "second",
		Password: "password123",
	})
	requireAPIErrorCode(t, err, "CONFLICT")
}

func TestLoginSuccessTouchesLastLogin(t *testing.T) {
	store := newStubUserStore()
	auth := newTestAuthService(store)

	_, err := auth.Register(context.Background(), model.RegisterRequest{
		Email:    "alice@sustech.edu.cn",
		Username: "alice",
		Password: "password123",
	})
	require.NoError(t, err)

	pair, err := auth.Login(context.Background(), "alice@sustech.edu.cn", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)

	stored, err := store.FindByEmail(context.Background(), "alice@sustech.edu.cn")
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
}

func TestLoginWrongPassword(t *testing.T) {
	auth := newTestAuthService(newStubUserStore())

	_, err := auth.Register(context.Background(), model.RegisterRequest{
		Email:    "alice@sustech.edu.cn",
		Username: "alice",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = auth.Login(context.Background(), "alice@sustech.edu.cn", "password124")
	requireAPIErrorCode(t, err, "UNAUTHORIZED")
}

func TestLoginUnknownEmail(t *testing.T) {
	auth := newTestAuthService(newStubUserStore())

	_, err := auth.Login(context.Background(), "nobody@sustech.edu.cn", "password123")
	requireAPIErrorCode(t, err, "UNAUTHORIZED")
}

func TestRefreshMintsNewAccessToken(t *testing.T) {
	store := newStubUserStore()
	auth := newTestAuthService(store)

	pair, err := auth.Register(context.Background(), model.RegisterRequest{
		Email:    "alice@sustech.edu.cn",
		Username: "alice",
		Password: "password123",
	})
	require.NoError(t, err)

	refreshed, err := auth.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)
	require.Empty(t, refreshed.RefreshToken)
	require.Equal(t, pair.User.ID, refreshed.User.ID)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	auth := newTestAuthService(newStubUserStore())

	pair, err := auth.Register(context.Background(), model.RegisterRequest{
		Email:    "alice@sustech.edu.cn",
		Username: "alice",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = auth.Refresh(context.Background(), pair.AccessToken)
	require.ErrorIs(t, err, model.ErrTokenInvalid)
}

func TestRefreshForDeletedUser(t *testing.T) {
	store := newStubUserStore()
	auth := newTestAuthService(store)

	pair, err := auth.Register(context.Background(), model.RegisterRequest{
		Email:    "alice@sustech.edu.cn",
		Username: "alice",
		Password: "password123",
	})
	require.NoError(t, err)

	store.mu.Lock()
	delete(store.users, pair.User.ID)
	store.mu.Unlock()

	_, err = auth.Refresh(context.Background(), pair.RefreshToken)
	requireAPIErrorCode(t, err, "UNAUTHORIZED")
}

func TestChangePassword(t *testing.T) {
	store := newStubUserStore()
	auth := newTestAuthService(store)

	pair, err := auth.Register(context.Background(), model.RegisterRequest{
		Email:    "alice@sustech.edu.cn",
		Username: "alice",
		Password: "password123",
	})
	require.NoError(t, err)

	err = auth.ChangePassword(context.Background(), pair.User.ID, "wrong-old", "newpassword1")
	requireAPIErrorCode(t, err, "UNAUTHORIZED")

	require.NoError(t, auth.ChangePassword(context.Background(), pair.User.ID, "password123", "newpassword1"))

	_, err = auth.Login(context.Background(), "alice@sustech.edu.cn", "newpassword1")
	require.NoError(t, err)
}
