// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by route template and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medplants_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by route template.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medplants_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	// HTTPActiveRequests tracks in-flight requests.
	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "medplants_http_active_requests",
			Help: "Number of active HTTP requests",
		},
	)

	// LoginAttempts counts logins by outcome.
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medplants_login_attempts_total",
			Help: "Total login attempts by outcome",
		},
		[]string{"outcome"},
	)

	// AuditWriteFailures counts audit rows that could not be persisted.
	AuditWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medplants_audit_write_failures_total",
			Help: "Total audit log writes that failed",
		},
	)

	// SearchLogWriteFailures counts search log rows that could not be persisted.
	SearchLogWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medplants_search_log_write_failures_total",
			Help: "Total search log writes that failed",
		},
	)

	// LoginThrottled counts logins rejected by the per-IP throttle.
	LoginThrottled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medplants_login_throttled_total",
			Help: "Total login requests rejected by the throttle",
		},
	)
)

// Login outcome labels.
const (
	LoginSuccess         = "success"
	LoginInvalid         = "invalid_credentials"
	LoginLocked          = "locked"
	LoginValidationError = "validation_error"
)
