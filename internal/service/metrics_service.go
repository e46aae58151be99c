package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	authOutcomes    *prometheus.CounterVec
	auditFailures   *prometheus.CounterVec
	snapshotLookups *prometheus.CounterVec
	snapshotLatency prometheus.Observer
	sweptTokens     prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	authOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_outcomes_total",
		Help: "Authentication outcomes by result and internal reason",
	}, []string{"result", "reason"})

	auditFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_write_failures_total",
		Help: "Mutations that succeeded but whose audit entry could not be written",
	}, []string{"entity", "action"})

	snapshotLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "permission_snapshot_lookups_total",
		Help: "Permission snapshot cache lookups by result",
	}, []string{"result"})

	snapshotLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "permission_snapshot_latency_seconds",
		Help:    "Latency for permission snapshot cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	sweptTokens := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "refresh_tokens_swept_total",
		Help: "Expired refresh tokens removed by the sweeper",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, authOutcomes, auditFailures, snapshotLookups, snapshotLatency, sweptTokens, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		authOutcomes:    authOutcomes,
		auditFailures:   auditFailures,
		snapshotLookups: snapshotLookups,
		snapshotLatency: snapshotLatency,
		sweptTokens:     sweptTokens,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordAuthOutcome counts an authentication attempt. reason is empty on success.
func (m *MetricsService) RecordAuthOutcome(success bool, reason AuthFailureReason) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.authOutcomes.WithLabelValues(result, string(reason)).Inc()
}

// RecordAuditFailure counts a failed audit write.
func (m *MetricsService) RecordAuditFailure(entity, action string) {
	if m == nil {
		return
	}
	m.auditFailures.WithLabelValues(entity, action).Inc()
}

// RecordCacheOperation records a permission snapshot lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.snapshotLatency.Observe(duration.Seconds())
	if hit {
		m.snapshotLookups.WithLabelValues("hit").Inc()
		return
	}
	m.snapshotLookups.WithLabelValues("miss").Inc()
}

// AddSweptTokens counts refresh tokens removed by the sweeper.
func (m *MetricsService) AddSweptTokens(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.sweptTokens.Add(float64(n))
}
