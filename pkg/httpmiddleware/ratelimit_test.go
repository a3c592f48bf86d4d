package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedEngine(t *testing.T, cfg RateLimitConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	r := gin.New()
	r.Use(RateLimit(ctx, cfg))
	r.GET("/", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doRequest(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", ip)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitAllowsUpToMax(t *testing.T) {
	r := newLimitedEngine(t, RateLimitConfig{Max: 3, Window: time.Hour})

	for i := 0; i < 3; i++ {
		w := doRequest(r, "10.0.0.1")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doRequest(r, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitKeysAreIndependent(t *testing.T) {
	r := newLimitedEngine(t, RateLimitConfig{Max: 1, Window: time.Hour})

	require.Equal(t, http.StatusOK, doRequest(r, "10.0.0.1").Code)
	require.Equal(t, http.StatusTooManyRequests, doRequest(r, "10.0.0.1").Code)

	assert.Equal(t, http.StatusOK, doRequest(r, "10.0.0.2").Code)
}

func TestRateLimitHeaders(t *testing.T) {
	r := newLimitedEngine(t, RateLimitConfig{Max: 5, Window: time.Hour})

	w := doRequest(r, "10.0.0.1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
}

func TestSlidingWindowRotation(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 2, Window: time.Minute})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, _, allowed := l.allow("k", base)
	require.True(t, allowed)
	_, _, allowed = l.allow("k", base.Add(time.Second))
	require.True(t, allowed)
	_, _, allowed = l.allow("k", base.Add(2*time.Second))
	require.False(t, allowed)

	// Two full windows later the old counts no longer apply.
	_, _, allowed = l.allow("k", base.Add(2*time.Minute+time.Second))
	assert.True(t, allowed)
}

func TestCleanupEvictsStaleKeys(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, _, allowed := l.allow("stale", base)
	require.True(t, allowed)

	l.cleanup(base.Add(3 * time.Minute))

	l.mu.Lock()
	_, ok := l.windows["stale"]
	l.mu.Unlock()
	assert.False(t, ok)
}
