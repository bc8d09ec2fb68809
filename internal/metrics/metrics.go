// Package metrics holds the Prometheus collectors for the dashboard client
// and the stub backend. All recorder methods are safe on a nil receiver so
// components can run without metrics in tests.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "sysdash"

// Outcome labels for client requests.
const (
	OutcomeOK           = "ok"
	OutcomeUnauthorized = "unauthorized"
	OutcomeHTTPError    = "http_error"
	OutcomeTransport    = "transport_error"
	OutcomeDecode       = "decode_error"
)

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Serve exposes reg on addr under /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, reg *prometheus.Registry, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(reg))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ClientMetrics tracks requests issued by the API dispatcher.
type ClientMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Unauthorized    prometheus.Counter
}

// NewClientMetrics creates and registers dispatcher metrics on the given registry.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	m := &ClientMetrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total number of API requests by outcome.",
		}, []string{"method", "route", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Unauthorized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "session_invalidations_total",
			Help:      "Number of 401 responses that cleared the session.",
		}),
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.Unauthorized)
	return m
}

// ObserveRequest records one completed request.
func (m *ClientMetrics) ObserveRequest(method, route, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, route, outcome).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
	if outcome == OutcomeUnauthorized {
		m.Unauthorized.Inc()
	}
}

// Load results for PollMetrics.
const (
	LoadApplied = "applied"
	LoadStale   = "stale"
	LoadFailed  = "failed"
)

// PollMetrics tracks the process controller and its refresh scheduler.
type PollMetrics struct {
	Loads             *prometheus.CounterVec
	SnapshotProcesses prometheus.Gauge
	SchedulerRunning  prometheus.Gauge
}

// NewPollMetrics creates and registers controller metrics on the given registry.
func NewPollMetrics(reg prometheus.Registerer) *PollMetrics {
	m := &PollMetrics{
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "processes",
			Name:      "loads_total",
			Help:      "Process list loads by result (applied, stale, failed).",
		}, []string{"result"}),
		SnapshotProcesses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "processes",
			Name:      "snapshot_processes",
			Help:      "Number of processes in the currently applied snapshot.",
		}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "processes",
			Name:      "auto_refresh_running",
			Help:      "1 while auto-refresh is enabled.",
		}),
	}

	reg.MustRegister(m.Loads, m.SnapshotProcesses, m.SchedulerRunning)
	return m
}

// ObserveLoad records the result of one load. processes is only used for
// applied loads.
func (m *PollMetrics) ObserveLoad(result string, processes int) {
	if m == nil {
		return
	}
	m.Loads.WithLabelValues(result).Inc()
	if result == LoadApplied {
		m.SnapshotProcesses.Set(float64(processes))
	}
}

// SetSchedulerRunning reports the auto-refresh state.
func (m *PollMetrics) SetSchedulerRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.SchedulerRunning.Set(1)
	} else {
		m.SchedulerRunning.Set(0)
	}
}
