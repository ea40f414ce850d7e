package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, remoteAddr string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestLimiter_UnderLimit(t *testing.T) {
	h := NewLimiter(RateLimitConfig{Max: 5, Window: time.Minute}).Middleware()(okHandler())

	for i := range 5 {
		w := hit(h, "192.168.1.1:12345", nil)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestLimiter_OverLimit(t *testing.T) {
	h := NewLimiter(RateLimitConfig{Max: 2, Window: time.Minute}).Middleware()(okHandler())

	for range 2 {
		require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:9999", nil).Code)
	}

	w := hit(h, "10.0.0.1:9999", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, http.StatusTooManyRequests, body.Code)
	assert.Equal(t, "rate limit exceeded", body.Message)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	h := NewLimiter(RateLimitConfig{Max: 1, Window: time.Minute}).Middleware()(okHandler())

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1234", nil).Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1234", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:5678", nil).Code)
}

func TestLimiter_ForwardedFor(t *testing.T) {
	h := NewLimiter(RateLimitConfig{Max: 1, Window: time.Minute}).Middleware()(okHandler())
	xff := map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"}

	assert.Equal(t, http.StatusOK, hit(h, "192.168.1.1:4444", xff).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "192.168.1.2:5555", xff).Code)
}

func TestLimiter_CustomKey(t *testing.T) {
	h := NewLimiter(RateLimitConfig{
		Max:     1,
		Window:  time.Minute,
		KeyFunc: func(r *http.Request) string { return r.Header.Get("Authorization") },
	}).Middleware()(okHandler())

	a := map[string]string{"Authorization": "Bearer a"}
	b := map[string]string{"Authorization": "Bearer b"}
	assert.Equal(t, http.StatusOK, hit(h, "1.1.1.1:1", a).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "1.1.1.1:1", a).Code)
	assert.Equal(t, http.StatusOK, hit(h, "1.1.1.1:1", b).Code)
}

func TestLimiter_DisabledWhenMaxIsZero(t *testing.T) {
	h := NewLimiter(RateLimitConfig{}).Middleware()(okHandler())
	for range 10 {
		w := hit(h, "10.0.0.1:1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestLimiter_SlidingWindow(t *testing.T) {
	l := NewLimiter(RateLimitConfig{Max: 4, Window: time.Minute})
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for range 4 {
		require.True(t, l.Allow("k", start).Allowed)
	}
	require.False(t, l.Allow("k", start.Add(30*time.Second)).Allowed)

	// A quarter into the next window, 3/4 of the previous four still count.
	d := l.Allow("k", start.Add(75*time.Second))
	assert.True(t, d.Allowed)
	assert.False(t, l.Allow("k", start.Add(75*time.Second)).Allowed)

	// Two full windows later the history is gone.
	assert.True(t, l.Allow("k", start.Add(3*time.Minute)).Allowed)
}

func TestLimiter_Sweep(t *testing.T) {
	l := NewLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	l.Allow("idle", now)
	l.Allow("busy", now.Add(110*time.Second))
	l.Sweep(now.Add(2 * time.Minute))

	assert.NotContains(t, l.keys, "idle")
	assert.Contains(t, l.keys, "busy")
}
