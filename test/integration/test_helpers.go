//go:build integration

// Package integration exercises the full HTTP stack against a real Postgres
// instance. Set TEST_DATABASE_URL to run; the suite is skipped otherwise.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"club-portal/internal/config"
	"club-portal/internal/database"
	"club-portal/internal/handler"
	"club-portal/internal/middleware"
	"club-portal/internal/repository"
	"club-portal/internal/router"
	"club-portal/internal/service"
	"club-portal/internal/wechat"
)

// fakeExchanger stands in for the WeChat API: any code "ok:<openid>" maps to
// that openid, everything else is rejected.
type fakeExchanger struct {
	calls atomic.Int64
}

func (f *fakeExchanger) ExchangeCode(_ context.Context, code string) (wechat.Session, error) {
	f.calls.Add(1)
	if len(code) > 3 && code[:3] == "ok:" {
		return wechat.Session{OpenID: code[3:], SessionKey: "sk-" + code[3:]}, nil
	}
	return wechat.Session{}, fmt.Errorf("provider rejected code: errcode=40029 invalid code")
}

type env struct {
	Server   *httptest.Server
	DB       *database.DB
	Users    *repository.UserRepository
	Exchange *fakeExchanger
}

func newEnv(t *testing.T) *env {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration suite")
	}

	ctx := context.Background()
	db, err := database.New(ctx, dbURL, 4, 1)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.EnsureSchema(ctx))
	_, err = db.Pool.Exec(ctx, `TRUNCATE event_attendees, events, posts, users CASCADE`)
	require.NoError(t, err)

	cfg := &config.Config{
		ServerPort:          "0",
		RequestTimeout:      30 * time.Second,
		JWTSecret:           "integration-secret",
		JWTAccessTTL:        time.Hour,
		JWTRefreshTTL:       24 * time.Hour,
		BcryptCost:          10,
		AllowedEmailDomains: []string{"sustech.edu.cn", "mail.sustech.edu.cn"},
		CORSOrigins:         []string{"*"},
		RateLimitRPM:        10000,
		AuthRateLimitRPM:    10000,
		MaxAvatarSize:       5 * 1024 * 1024,
	}

	userRepo := repository.NewUserRepository(db.Pool)
	postRepo := repository.NewPostRepository(db.Pool)
	eventRepo := repository.NewEventRepository(db.Pool)

	hasher := service.NewPasswordHasher(cfg.BcryptCost)
	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	authService := service.NewAuthService(userRepo, tokenService, hasher, cfg.AllowedEmailDomains)

	exchanger := &fakeExchanger{}
	wechatService := service.NewWeChatService(exchanger, userRepo, tokenService, hasher)

	postService := service.NewPostService(postRepo)
	eventService := service.NewEventService(eventRepo)
	avatarService, err := service.NewAvatarService(t.TempDir(), userRepo)
	require.NoError(t, err)

	authMiddleware := middleware.NewAuthMiddleware(tokenService, userRepo)

	gates := router.Gates{
		PostOwner: authMiddleware.RequireOwnership(chi.URLParam, "post_id",
			func(ctx context.Context, id string) (any, string, error) {
				post, err := postService.Get(ctx, id)
				if err != nil {
					return nil, "", err
				}
				return post, post.AuthorID, nil
			}),
		EventOwner: authMiddleware.RequireOwnership(chi.URLParam, "event_id",
			func(ctx context.Context, id string) (any, string, error) {
				event, err := eventService.Get(ctx, id)
				if err != nil {
					return nil, "", err
				}
				return event, event.OwnerID, nil
			}),
	}

	handlers := router.Handlers{
		Auth:  handler.NewAuthHandler(authService, wechatService),
		User:  handler.NewUserHandler(authService, avatarService, userRepo, cfg.MaxAvatarSize),
		Post:  handler.NewPostHandler(postService),
		Event: handler.NewEventHandler(eventService),
	}

	server := httptest.NewServer(router.New(cfg, authMiddleware, handlers, gates, avatarService.Root()))
	t.Cleanup(server.Close)

	return &env{Server: server, DB: db, Users: userRepo, Exchange: exchanger}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

func (e *env) do(t *testing.T, method string, path string, body any, token string) (int, apiResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.Server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp.StatusCode, parsed
}

type tokenData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"user"`
}

func decodeTokens(t *testing.T, data json.RawMessage) tokenData {
	t.Helper()
	var parsed tokenData
	require.NoError(t, json.Unmarshal(data, &parsed))
	return parsed
}

func (e *env) register(t *testing.T, email string, username string, password string) tokenData {
	t.Helper()

	status, resp := e.do(t, http.MethodPost, "/api/v1/auth/register",
		map[string]string{"email": email, "username": username, "password": password}, "")
	require.Equal(t, http.StatusCreated, status)
	require.True(t, resp.Success)
	return decodeTokens(t, resp.Data)
}

func (e *env) promote(t *testing.T, userID string, role string) {
	t.Helper()
	_, err := e.DB.Pool.Exec(context.Background(),
		`UPDATE users SET role = $2 WHERE id = $1`, userID, role)
	require.NoError(t, err)
}
