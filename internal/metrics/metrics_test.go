package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientMetricsObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewClientMetrics(reg)

	m.ObserveRequest("GET", "/api/processes", OutcomeOK, 20*time.Millisecond)
	m.ObserveRequest("GET", "/api/processes", OutcomeOK, 30*time.Millisecond)
	m.ObserveRequest("GET", "/api/auth/me", OutcomeUnauthorized, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/processes", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/auth/me", OutcomeUnauthorized)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Unauthorized))
	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestDuration))
}

func TestPollMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPollMetrics(reg)

	m.ObserveLoad(LoadApplied, 42)
	m.ObserveLoad(LoadStale, 7)
	m.ObserveLoad(LoadFailed, 0)
	m.SetSchedulerRunning(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Loads.WithLabelValues(LoadApplied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Loads.WithLabelValues(LoadStale)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Loads.WithLabelValues(LoadFailed)))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.SnapshotProcesses), "stale loads must not move the gauge")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SchedulerRunning))

	m.SetSchedulerRunning(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SchedulerRunning))
}

func TestNilRecordersAreNoops(t *testing.T) {
	var cm *ClientMetrics
	var pm *PollMetrics

	assert.NotPanics(t, func() {
		cm.ObserveRequest("GET", "/", OutcomeOK, time.Second)
		pm.ObserveLoad(LoadApplied, 1)
		pm.SetSchedulerRunning(true)
	})
}

func TestServerMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServerMetrics(reg)

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/ping", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/ping", "204")))
}

func TestRegistryHandlerServesMetrics(t *testing.T) {
	reg := NewRegistry()
	NewClientMetrics(reg).ObserveRequest("POST", "/api/auth/login", OutcomeOK, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sysdash_client_requests_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
