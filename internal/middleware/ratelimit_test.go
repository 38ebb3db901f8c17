package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRateLimitAuthBucketIsStricter(t *testing.T) {
	m := NewRateLimitMiddleware(100, 2)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := m.Handler(next)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "60", rec.Header().Get("Retry-After"))

	// The general bucket for the same client is unaffected.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/posts/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitTracksClientsSeparately(t *testing.T) {
	m := NewRateLimitMiddleware(100, 1)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := m.Handler(next)

	first := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	exhausted := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	exhausted.RemoteAddr = "10.0.0.1:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, exhausted)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	other := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestExtractClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	require.Equal(t, "203.0.113.9", extractClientIP(req))

	req.Header.Del("X-Forwarded-For")
	require.Equal(t, "10.0.0.1", extractClientIP(req))
}
