package health

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"
)

// Pinger is implemented by store handles that can verify connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck adapts p to a CheckFunc.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return errors.Wrap(err, "ping")
		}
		return nil
	}
}

// GoroutineCheck fails when more than limit goroutines are running.
func GoroutineCheck(limit int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > limit {
			return errors.Errorf("%d goroutines running, limit is %d", n, limit)
		}
		return nil
	}
}

const recentPauses = 16

// GCPauseCheck fails when any of the most recent stop-the-world pauses
// exceeded limit.
func GCPauseCheck(limit time.Duration) CheckFunc {
	return func(context.Context) error {
		var stats debug.GCStats
		debug.ReadGCStats(&stats)
		// Pause is ordered most recent first.
		for i, p := range stats.Pause {
			if i == recentPauses {
				break
			}
			if p > limit {
				return errors.Errorf("gc pause %s over %s", p, limit)
			}
		}
		return nil
	}
}
