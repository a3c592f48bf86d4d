// Package health implements Kubernetes-style liveness and readiness probes.
//
// Probes run on background tickers and use consecutive failure and success
// thresholds so a single slow round trip does not flip the reported state.
package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

// Probe reports the health of one component. A nil return means healthy.
type Probe func(ctx context.Context) error

const (
	failureThreshold = 3
	successThreshold = 1
)

// probeState holds one registered probe and its runtime state. watch() is the
// only writer of the counters; the healthy flag and lastErr cross goroutines
// and are atomic.
type probeState struct {
	name    string
	timeout time.Duration
	probe   Probe

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	fails int
	oks   int
}

func (p *probeState) run(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.probe(probeCtx)
	p.lastErr.Store(&err)

	if err != nil {
		p.oks = 0
		p.fails++
		if p.fails >= failureThreshold {
			p.healthy.Store(false)
		}
		return
	}
	p.fails = 0
	p.oks++
	if p.oks >= successThreshold {
		p.healthy.Store(true)
	}
}

func (p *probeState) failure() (string, bool) {
	if p.healthy.Load() {
		return "", false
	}
	if errp := p.lastErr.Load(); errp != nil && *errp != nil {
		return (*errp).Error(), true
	}
	return "probe is unhealthy", true
}

// Tracker aggregates the probes of a service and serves the probe endpoints.
type Tracker struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*probeState
	readiness []*probeState
	cancel    context.CancelFunc
}

// NewTracker creates a Tracker. The service starts not ready; call
// SetReady(true) once initialization finishes.
func NewTracker() *Tracker {
	return &Tracker{}
}

// AddLiveness registers a liveness probe, one that detects a wedged process.
func (t *Tracker) AddLiveness(name string, timeout time.Duration, p Probe) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.liveness = append(t.liveness, newProbeState(name, timeout, p))
}

// AddReadiness registers a readiness probe, one that gates traffic on a
// dependency such as the database or the cache.
func (t *Tracker) AddReadiness(name string, timeout time.Duration, p Probe) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readiness = append(t.readiness, newProbeState(name, timeout, p))
}

func newProbeState(name string, timeout time.Duration, p Probe) *probeState {
	ps := &probeState{name: name, timeout: timeout, probe: p}
	ps.healthy.Store(true)
	return ps
}

// Watch starts every registered probe on its own ticker. Register all probes
// before calling Watch.
func (t *Tracker) Watch(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	t.cancel = cancel
	probes := make([]*probeState, 0, len(t.liveness)+len(t.readiness))
	probes = append(probes, t.liveness...)
	probes = append(probes, t.readiness...)
	t.mu.Unlock()

	for _, p := range probes {
		go func(p *probeState) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			p.run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.run(ctx)
				}
			}
		}(p)
	}
}

// Stop cancels the probe goroutines. Safe to call more than once.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// SetReady flips the manual readiness gate. Set false during graceful
// shutdown to drain traffic before the listener closes.
func (t *Tracker) SetReady(ready bool) {
	t.ready.Store(ready)
}

// Ready reports whether the service accepts traffic: the manual gate is open
// and every readiness probe passes.
func (t *Tracker) Ready() bool {
	if !t.ready.Load() {
		return false
	}

	t.mu.RLock()
	probes := t.readiness
	t.mu.RUnlock()

	for _, p := range probes {
		if !p.healthy.Load() {
			return false
		}
	}
	return true
}

// LiveHandler serves the liveness endpoint.
func (t *Tracker) LiveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		t.mu.RLock()
		probes := make([]*probeState, len(t.liveness))
		copy(probes, t.liveness)
		t.mu.RUnlock()

		respond(c, collect(probes))
	}
}

// ReadyHandler serves the readiness endpoint.
func (t *Tracker) ReadyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		t.mu.RLock()
		probes := make([]*probeState, len(t.readiness))
		copy(probes, t.readiness)
		t.mu.RUnlock()

		failures := collect(probes)
		if !t.ready.Load() {
			failures["_readiness"] = "service is not ready"
		}
		respond(c, failures)
	}
}

func collect(probes []*probeState) map[string]string {
	failures := make(map[string]string)
	for _, p := range probes {
		if msg, failed := p.failure(); failed {
			failures[p.name] = msg
		}
	}
	return failures
}

type statusResponse struct {
	Status string            `json:"status"`
	Probes map[string]string `json:"probes,omitempty"`
}

func respond(c *gin.Context, failures map[string]string) {
	if len(failures) > 0 {
		c.JSON(http.StatusServiceUnavailable, statusResponse{
			Status: "unhealthy",
			Probes: failures,
		})
		return
	}
	c.JSON(http.StatusOK, statusResponse{Status: "ok"})
}
