package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProbeEngine(t *testing.T, tr *Tracker) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/livez", tr.LiveHandler())
	r.GET("/readyz", tr.ReadyHandler())
	return r
}

func probeEndpoint(r *gin.Engine, path string) (int, statusResponse) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var resp statusResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w.Code, resp
}

func TestReadyRequiresManualGate(t *testing.T) {
	tr := NewTracker()
	r := newProbeEngine(t, tr)

	code, resp := probeEndpoint(r, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Contains(t, resp.Probes, "_readiness")

	tr.SetReady(true)
	code, resp = probeEndpoint(r, "/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)
}

func TestLivenessStartsHealthy(t *testing.T) {
	tr := NewTracker()
	tr.AddLiveness("noop", time.Second, func(context.Context) error { return nil })
	r := newProbeEngine(t, tr)

	code, resp := probeEndpoint(r, "/livez")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)
}

func TestFailureThresholdAvoidsFlapping(t *testing.T) {
	p := newProbeState("flappy", time.Second, func(context.Context) error {
		return errors.New("down")
	})

	ctx := context.Background()
	p.run(ctx)
	p.run(ctx)
	assert.True(t, p.healthy.Load(), "below threshold, still healthy")

	p.run(ctx)
	assert.False(t, p.healthy.Load(), "third consecutive failure flips state")
}

func TestRecoveryAfterSingleSuccess(t *testing.T) {
	down := true
	p := newProbeState("db", time.Second, func(context.Context) error {
		if down {
			return errors.New("connection refused")
		}
		return nil
	})

	ctx := context.Background()
	for i := 0; i < failureThreshold; i++ {
		p.run(ctx)
	}
	require.False(t, p.healthy.Load())

	down = false
	p.run(ctx)
	assert.True(t, p.healthy.Load())
}

func TestReadyEndpointReportsFailedProbe(t *testing.T) {
	tr := NewTracker()
	tr.SetReady(true)
	tr.AddReadiness("postgres", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})

	// Drive the probe past the failure threshold by hand, without Watch.
	tr.mu.RLock()
	p := tr.readiness[0]
	tr.mu.RUnlock()
	for i := 0; i < failureThreshold; i++ {
		p.run(context.Background())
	}

	r := newProbeEngine(t, tr)
	code, resp := probeEndpoint(r, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "connection refused", resp.Probes["postgres"])
	assert.False(t, tr.Ready())
}

func TestWatchRunsProbesUntilStopped(t *testing.T) {
	tr := NewTracker()
	ran := make(chan struct{}, 1)
	tr.AddLiveness("tick", time.Second, func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	tr.Watch(context.Background(), 10*time.Millisecond)
	defer tr.Stop()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("probe never ran")
	}
}

func TestGoroutineCountProbe(t *testing.T) {
	require.NoError(t, GoroutineCount(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCount(0)(context.Background()))
}
