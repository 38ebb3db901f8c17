//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterLoginMe(t *testing.T) {
	e := newEnv(t)

	created := e.register(t, "alice@sustech.edu.cn", "alice", "password123")
	require.NotEmpty(t, created.AccessToken)
	require.Equal(t, "alice", created.User.Username)

	// Sanitized user: the raw payload must not leak the hash.
	status, resp := e.do(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "alice@sustech.edu.cn", "password": "password123"}, "")
	require.Equal(t, http.StatusOK, status)
	require.NotContains(t, string(resp.Data), "password_hash")

	tokens := decodeTokens(t, resp.Data)
	status, resp = e.do(t, http.MethodGet, "/api/v1/users/me", nil, tokens.AccessToken)
	require.Equal(t, http.StatusOK, status)

	var me struct {
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &me))
	require.Equal(t, "alice", me.Username)
}

func TestRegisterDuplicateEmailDifferentCase(t *testing.T) {
	e := newEnv(t)

	e.register(t, "a@sustech.edu.cn", "first", "password123")

	status, resp := e.do(t, http.MethodPost, "/api/v1/auth/register",
		map[string]string{"email": "A@sustech.edu.cn", "username": "second", "password": "password123"}, "")
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "CONFLICT", resp.Error.Code)
	require.Equal(t, "email", resp.Error.Details)
}

func TestRegisterForeignDomainRejected(t *testing.T) {
	e := newEnv(t)

	status, resp := e.do(t, http.MethodPost, "/api/v1/auth/register",
		map[string]string{"email": "alice@gmail.com", "username": "alice", "password": "password123"}, "")
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "VALIDATION", resp.Error.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice@sustech.edu.cn", "alice", "password123")

	status, resp := e.do(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "alice@sustech.edu.cn", "password": "wrong"}, "")
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "UNAUTHORIZED", resp.Error.Code)
}

func TestRefreshFlow(t *testing.T) {
	e := newEnv(t)
	created := e.register(t, "alice@sustech.edu.cn", "alice", "password123")

	status, resp := e.do(t, http.MethodPost, "/api/v1/auth/refresh",
		map[string]string{"refresh_token": created.RefreshToken}, "")
	require.Equal(t, http.StatusOK, status)

	refreshed := decodeTokens(t, resp.Data)
	require.NotEmpty(t, refreshed.AccessToken)

	// An access token is not accepted by the refresh endpoint.
	status, resp = e.do(t, http.MethodPost, "/api/v1/auth/refresh",
		map[string]string{"refresh_token": created.AccessToken}, "")
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "TOKEN_INVALID", resp.Error.Code)
}

func TestRequiredAuthGate(t *testing.T) {
	e := newEnv(t)

	// No header: 401 before any handler logic.
	status, resp := e.do(t, http.MethodGet, "/api/v1/users/me", nil, "")
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "MISSING_CREDENTIAL", resp.Error.Code)

	// Tampered token.
	created := e.register(t, "alice@sustech.edu.cn", "alice", "password123")
	tampered := created.AccessToken
	if strings.HasSuffix(tampered, "a") {
		tampered = tampered[:len(tampered)-1] + "b"
	} else {
		tampered = tampered[:len(tampered)-1] + "a"
	}
	status, resp = e.do(t, http.MethodGet, "/api/v1/users/me", nil, tampered)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "TOKEN_INVALID", resp.Error.Code)
}

func TestOptionalAuthGateServesVisitors(t *testing.T) {
	e := newEnv(t)

	// Same request that fails the required gate proceeds anonymously here.
	status, resp := e.do(t, http.MethodGet, "/api/v1/posts/", nil, "")
	require.Equal(t, http.StatusOK, status)
	require.True(t, resp.Success)
}

func TestAdminGate(t *testing.T) {
	e := newEnv(t)
	member := e.register(t, "bob@sustech.edu.cn", "bob", "password123")

	status, resp := e.do(t, http.MethodGet, "/api/v1/users/", nil, member.AccessToken)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "FORBIDDEN", resp.Error.Code)

	e.promote(t, member.User.ID, "admin")
	status, _ = e.do(t, http.MethodGet, "/api/v1/users/", nil, member.AccessToken)
	require.Equal(t, http.StatusOK, status)
}
