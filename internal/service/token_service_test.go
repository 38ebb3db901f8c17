package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"club-portal/internal/model"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tokens := NewTokenService("test-secret", time.Hour, 24*time.Hour)

	token, err := tokens.IssueAccessToken("user-1")
	require.NoError(t, err)

	claims, err := tokens.Verify(token, TokenTypeAccess)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, TokenTypeAccess, claims.Type)
	require.NotEmpty(t, claims.TokenID)
}

func TestTokenSubjectNeverChanges(t *testing.T) {
	tokens := NewTokenService("test-secret", time.Hour, 24*time.Hour)

	tokenA, err := tokens.IssueAccessToken("user-a")
	require.NoError(t, err)

	claims, err := tokens.Verify(tokenA, TokenTypeAccess)
	require.NoError(t, err)
	require.NotEqual(t, "user-b", claims.UserID)
	require.Equal(t, "user-a", claims.UserID)
}

func TestTamperedTokenIsInvalid(t *testing.T) {
	tokens := NewTokenService("test-secret", time.Hour, 24*time.Hour)

	token, err := tokens.IssueAccessToken("user-1")
	require.NoError(t, err)

	tampered := []byte(token)
	last := len(tampered) - 1
	if tampered[last] == 'A' {
		tampered[last] = 'B'
	} else {
		tampered[last] = 'A'
	}

	_, err = tokens.Verify(string(tampered), TokenTypeAccess)
	require.ErrorIs(t, err, model.ErrTokenInvalid)
}

func TestExpiredTokenIsExpiredNotInvalid(t *testing.T) {
	tokens := NewTokenService("test-secret", -time.Minute, 24*time.Hour)

	token, err := tokens.IssueAccessToken("user-1")
	require.NoError(t, err)

	_, err = tokens.Verify(token, TokenTypeAccess)
	require.ErrorIs(t, err, model.ErrTokenExpired)
	require.NotErrorIs(t, err, model.ErrTokenInvalid)
}

func TestRefreshTokenRejectedAsAccess(t *testing.T) {
	tokens := NewTokenService("test-secret", time.Hour, 24*time.Hour)

	refresh, err := tokens.IssueRefreshToken("user-1")
	require.NoError(t, err)

	_, err = tokens.Verify(refresh, TokenTypeAccess)
	require.ErrorIs(t, err, model.ErrTokenInvalid)
}

func TestWrongSecretIsInvalid(t *testing.T) {
	tokens := NewTokenService("test-secret", time.Hour, 24*time.Hour)
	other := NewTokenService("other-secret", time.Hour, 24*time.Hour)

	token, err := tokens.IssueAccessToken("user-1")
	require.NoError(t, err)

	_, err = other.Verify(token, TokenTypeAccess)
	require.ErrorIs(t, err, model.ErrTokenInvalid)
}

func TestGarbageTokenIsInvalid(t *testing.T) {
	tokens := NewTokenService("test-secret", time.Hour, 24*time.Hour)

	_, err := tokens.Verify("not.a.jwt", TokenTypeAccess)
	require.ErrorIs(t, err, model.ErrTokenInvalid)
}

func TestIssuePairCarriesSanitizedUser(t *testing.T) {
	tokens := NewTokenService("test-secret", time.Hour, 24*time.Hour)

	hash := "$2a$10$secret"
	openID := "wx-open-id"
	pair, err := tokens.IssuePair(model.User{ID: "user-1", Username: "alice", Role: model.RoleUser,
		PasswordHash: &hash, WeChatOpenID: &openID})
	require.NoError(t, err)

	require.Equal(t, "Bearer", pair.TokenType)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "alice", pair.User.Username)
}
