package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotecast/quotecast/internal/cache"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/subscribe", nil)
	req.RemoteAddr = ip + ":40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_LocalLimiter(t *testing.T) {
	limiter := NewLocalLimiter(60, 2)
	h := RateLimit(RateLimitConfig{Logger: slog.Default(), Limiter: limiter, Scope: "api"})(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(h, "203.0.113.1").Code)
	assert.Equal(t, http.StatusOK, doRequest(h, "203.0.113.1").Code)

	rec := doRequest(h, "203.0.113.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many requests. Retry after 1 seconds."}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, doRequest(h, "203.0.113.2").Code, "other clients unaffected")
}

func TestRateLimit_RedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	limiter := cache.NewLimiter(cache.NewFromClient(client), "login", 5, 1, nil)
	h := RateLimit(RateLimitConfig{Limiter: limiter, Scope: "login"})(okHandler())

	rec := doRequest(h, "198.51.100.4")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))

	assert.Equal(t, http.StatusTooManyRequests, doRequest(h, "198.51.100.4").Code)
}

func TestRateLimit_CustomResponder(t *testing.T) {
	limiter := NewLocalLimiter(1, 1)
	h := RateLimit(RateLimitConfig{
		Limiter: limiter,
		Scope:   "login",
		OnLimited: func(w http.ResponseWriter, r *http.Request, _ time.Duration) {
			http.Redirect(w, r, "/login?error=slow+down", http.StatusFound)
		},
	})(okHandler())

	doRequest(h, "10.1.1.1")
	rec := doRequest(h, "10.1.1.1")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?error=slow+down", rec.Header().Get("Location"))
}

func TestRateLimit_NilLimiterDisabled(t *testing.T) {
	h := RateLimit(RateLimitConfig{})(okHandler())
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.1").Code)
	}
}

func TestLocalLimiter_Sweep(t *testing.T) {
	limiter := NewLocalLimiter(10, 0)
	base := time.Now()
	limiter.now = func() time.Time { return base }

	_, err := limiter.Check(context.Background(), "a")
	require.NoError(t, err)

	limiter.now = func() time.Time { return base.Add(5 * time.Minute) }
	_, err = limiter.Check(context.Background(), "b")
	require.NoError(t, err)

	limiter.now = func() time.Time { return base.Add(11 * time.Minute) }
	assert.Equal(t, 1, limiter.Sweep())
	assert.Len(t, limiter.limiters, 1)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		remoteAddr string
		want       string
	}{
		{"remote addr strips port", "", "192.0.2.1:5555", "192.0.2.1"},
		{"remote addr without port", "", "192.0.2.1", "192.0.2.1"},
		{"ipv6", "", "[2001:db8::1]:443", "2001:db8::1"},
		{"forwarding header ignored", "203.0.113.5", "10.0.0.2:1234", "10.0.0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

func TestRateLimit_ForwardedForRotationDoesNotBypass(t *testing.T) {
	limiter := NewLocalLimiter(60, 1)
	h := RateLimit(RateLimitConfig{Logger: slog.Default(), Limiter: limiter, Scope: "login"})(okHandler())

	codes := make([]int, 0, 3)
	for _, spoofed := range []string{"198.51.100.1", "198.51.100.2", "198.51.100.3"} {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "203.0.113.50:40000"
		req.Header.Set("X-Forwarded-For", spoofed)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}
