package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type body struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func serve(t *testing.T, h http.Handler) (int, body) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var b body
	require.NoError(t, json.NewDecoder(w.Body).Decode(&b))
	return w.Code, b
}

func ok(context.Context) error { return nil }

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestLiveHandler_NoProbes(t *testing.T) {
	code, b := serve(t, New().LiveHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", b.Status)
}

func TestLiveHandler_ThresholdHoldsUntilReached(t *testing.T) {
	r := New()
	r.Live(Probe{Name: "db", Check: failing("connection refused")})
	p := r.liveness[0]
	ctx := context.Background()

	p.observe(ctx)
	p.observe(ctx)
	code, _ := serve(t, r.LiveHandler())
	assert.Equal(t, http.StatusOK, code, "two failures stay under the default threshold")

	p.observe(ctx)
	code, b := serve(t, r.LiveHandler())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", b.Status)
	assert.Equal(t, "connection refused", b.Checks["db"])
}

func TestProbeRecovers(t *testing.T) {
	down := true
	r := New()
	r.Live(Probe{Name: "flaky", FailureThreshold: 1, SuccessThreshold: 2, Check: func(context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	}})
	p := r.liveness[0]
	ctx := context.Background()

	p.observe(ctx)
	_, failed := p.failure()
	assert.True(t, failed)

	down = false
	p.observe(ctx)
	_, failed = p.failure()
	assert.True(t, failed, "one success is below the success threshold")

	p.observe(ctx)
	_, failed = p.failure()
	assert.False(t, failed)
}

func TestReadyHandler_Gate(t *testing.T) {
	r := New()
	r.Ready(Probe{Name: "store", Check: ok})

	code, b := serve(t, r.ReadyHandler())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, b.Checks, "_readiness")
	assert.False(t, r.IsReady())

	r.MarkReady(true)
	code, _ = serve(t, r.ReadyHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, r.IsReady())

	r.MarkReady(false)
	code, _ = serve(t, r.ReadyHandler())
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestReadyHandler_OnlyFailingProbesListed(t *testing.T) {
	r := New()
	r.Ready(Probe{Name: "store", Check: ok})
	r.Ready(Probe{Name: "uploads", FailureThreshold: 1, Check: failing("read-only filesystem")})
	r.MarkReady(true)
	r.readiness[1].observe(context.Background())

	code, b := serve(t, r.ReadyHandler())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, map[string]string{"uploads": "read-only filesystem"}, b.Checks)
	assert.False(t, r.IsReady())
}

func TestRun_StopsOnCancel(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	r := New()
	r.Ready(Probe{Name: "store", Check: func(context.Context) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, 5*time.Millisecond) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 2
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestPingCheck(t *testing.T) {
	check := PingCheck(pingerFunc(func(context.Context) error { return errors.New("no reachable servers") }))
	err := check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no reachable servers")

	assert.NoError(t, PingCheck(pingerFunc(ok))(context.Background()))
}

func TestGoroutineCheck(t *testing.T) {
	assert.NoError(t, GoroutineCheck(100000)(context.Background()))

	err := GoroutineCheck(0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit is 0")
}

func TestGCPauseCheck(t *testing.T) {
	assert.NoError(t, GCPauseCheck(time.Hour)(context.Background()))
}
