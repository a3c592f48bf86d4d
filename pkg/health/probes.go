package health

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"
)

// GoroutineCount reports unhealthy when the process holds more goroutines
// than the threshold. Useful as a liveness probe against goroutine leaks.
func GoroutineCount(threshold int) Probe {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}

// GCMaxPause reports unhealthy when any recorded GC pause exceeds the
// threshold, a sign of memory pressure.
func GCMaxPause(threshold time.Duration) Probe {
	return func(context.Context) error {
		var stats debug.GCStats
		debug.ReadGCStats(&stats)

		for _, pause := range stats.Pause {
			if pause > threshold {
				return errors.Errorf("GC pause %s exceeds threshold %s", pause, threshold)
			}
		}
		return nil
	}
}
