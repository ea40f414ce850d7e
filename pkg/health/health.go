// Package health runs liveness and readiness probes in the background and
// serves their state over HTTP.
//
// A probe flips to unhealthy only after FailureThreshold consecutive failures
// and back to healthy after SuccessThreshold consecutive successes, so a
// single slow ping does not take the service out of rotation.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"
)

// CheckFunc reports nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// Probe describes one registered check.
type Probe struct {
	Name    string
	Timeout time.Duration
	Check   CheckFunc
	// FailureThreshold defaults to 3.
	FailureThreshold int
	// SuccessThreshold defaults to 1.
	SuccessThreshold int
}

type probeState struct {
	Probe

	healthy atomic.Bool
	lastErr atomic.Pointer[string]

	// Touched only by the goroutine driving the probe.
	fails, oks int
}

func newProbeState(p Probe) *probeState {
	if p.FailureThreshold <= 0 {
		p.FailureThreshold = 3
	}
	if p.SuccessThreshold <= 0 {
		p.SuccessThreshold = 1
	}
	if p.Timeout <= 0 {
		p.Timeout = time.Second
	}
	s := &probeState{Probe: p}
	s.healthy.Store(true)
	return s
}

func (s *probeState) observe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	if err := s.Check(ctx); err != nil {
		msg := err.Error()
		s.lastErr.Store(&msg)
		s.oks = 0
		s.fails++
		if s.fails >= s.FailureThreshold {
			s.healthy.Store(false)
		}
		return
	}
	s.lastErr.Store(nil)
	s.fails = 0
	s.oks++
	if s.oks >= s.SuccessThreshold {
		s.healthy.Store(true)
	}
}

func (s *probeState) failure() (string, bool) {
	if s.healthy.Load() {
		return "", false
	}
	if msg := s.lastErr.Load(); msg != nil {
		return *msg, true
	}
	return "check is unhealthy", true
}

// Registry holds the probes of one process. The zero value is not usable;
// call New.
type Registry struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*probeState
	readiness []*probeState
}

// New returns a Registry that reports not ready until MarkReady(true).
func New() *Registry {
	return &Registry{}
}

// Live registers a liveness probe.
func (r *Registry) Live(p Probe) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.liveness = append(r.liveness, newProbeState(p))
}

// Ready registers a readiness probe.
func (r *Registry) Ready(p Probe) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readiness = append(r.readiness, newProbeState(p))
}

// MarkReady sets the manual readiness gate. Shutdown flips it to false so
// load balancers drain the instance before the listener closes.
func (r *Registry) MarkReady(ready bool) {
	r.ready.Store(ready)
}

// IsReady reports whether the gate is open and every readiness probe passes.
func (r *Registry) IsReady() bool {
	return r.ready.Load() && len(r.failures(r.snapshot(true))) == 0
}

// Run drives every probe at interval until ctx is cancelled. Probes run once
// immediately. Run always returns nil; the error result lets it sit in an
// errgroup next to the server.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	probes := append(r.snapshot(false), r.snapshot(true)...)

	g, ctx := errgroup.WithContext(ctx)
	for _, p := range probes {
		g.Go(func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				p.observe(ctx)
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		})
	}
	return g.Wait()
}

func (r *Registry) snapshot(readiness bool) []*probeState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if readiness {
		return append([]*probeState(nil), r.readiness...)
	}
	return append([]*probeState(nil), r.liveness...)
}

func (r *Registry) failures(probes []*probeState) map[string]string {
	out := make(map[string]string)
	for _, p := range probes {
		if msg, failed := p.failure(); failed {
			out[p.Name] = msg
		}
	}
	return out
}

// LiveHandler serves the liveness state: 200 {"status":"ok"} or 503 with the
// failing probes.
func (r *Registry) LiveHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, r.failures(r.snapshot(false)))
	})
}

// ReadyHandler serves the readiness state, including the manual gate.
func (r *Registry) ReadyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		failures := r.failures(r.snapshot(true))
		if !r.ready.Load() {
			failures["_readiness"] = "service is not ready"
		}
		writeStatus(w, failures)
	})
}

func writeStatus(w http.ResponseWriter, failures map[string]string) {
	status := http.StatusOK
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("status")
	if len(failures) == 0 {
		e.Str("ok")
	} else {
		status = http.StatusServiceUnavailable
		e.Str("unhealthy")
		names := make([]string, 0, len(failures))
		for name := range failures {
			names = append(names, name)
		}
		sort.Strings(names)
		e.FieldStart("checks")
		e.ObjStart()
		for _, name := range names {
			e.FieldStart(name)
			e.Str(failures[name])
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
