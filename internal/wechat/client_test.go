package wechat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExchangeCodeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sns/jscode2session", r.URL.Path)
		require.Equal(t, "app-id", r.URL.Query().Get("appid"))
		require.Equal(t, "app-secret", r.URL.Query().Get("secret"))
		require.Equal(t, "code-1", r.URL.Query().Get("js_code"))
		require.Equal(t, "authorization_code", r.URL.Query().Get("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"openid":"wx-1","session_key":"sk-1"}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient("app-id", "app-secret", server.URL, 2*time.Second)
	session, err := client.ExchangeCode(context.Background(), "code-1")
	require.NoError(t, err)
	require.Equal(t, "wx-1", session.OpenID)
	require.Equal(t, "sk-1", session.SessionKey)
}

func TestExchangeCodeProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// WeChat reports failure with HTTP 200 and an errcode body.
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errcode":40029,"errmsg":"invalid code"}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient("app-id", "app-secret", server.URL, 2*time.Second)
	_, err := client.ExchangeCode(context.Background(), "bad-code")
	require.Error(t, err)
	require.Contains(t, err.Error(), "40029")
}

func TestExchangeCodeEmptyOpenID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient("app-id", "app-secret", server.URL, 2*time.Second)
	_, err := client.ExchangeCode(context.Background(), "code")
	require.Error(t, err)
}

func TestExchangeCodeTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	client := NewClient("app-id", "app-secret", server.URL, 50*time.Millisecond)
	_, err := client.ExchangeCode(context.Background(), "code")
	require.Error(t, err)
}
