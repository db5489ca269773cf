package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Tracking metrics
	EntriesStartedTotal  *prometheus.CounterVec
	EntriesStoppedTotal  *prometheus.CounterVec
	BreaksStartedTotal   *prometheus.CounterVec
	ExclusivityConflicts *prometheus.CounterVec

	// Authorization metrics
	AuthzDecisionsTotal *prometheus.CounterVec

	// Invitation metrics
	InvitationsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "worklens"
	}

	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		EntriesStartedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tracking",
				Name:      "entries_started_total",
				Help:      "Total number of time entries started",
			},
			[]string{"organization"},
		),
		EntriesStoppedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tracking",
				Name:      "entries_stopped_total",
				Help:      "Total number of time entries stopped",
			},
			[]string{"organization"},
		),
		BreaksStartedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tracking",
				Name:      "breaks_started_total",
				Help:      "Total number of breaks started",
			},
			[]string{"organization", "type"},
		),
		ExclusivityConflicts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tracking",
				Name:      "exclusivity_conflicts_total",
				Help:      "Conflicts rejected by the one-running-entry/one-active-break invariants",
			},
			[]string{"kind"},
		),

		AuthzDecisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "authz",
				Name:      "decisions_total",
				Help:      "Authorization decisions by outcome",
			},
			[]string{"action", "outcome"},
		),

		InvitationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "team",
				Name:      "invitations_total",
				Help:      "Team invitations by lifecycle event",
			},
			[]string{"event"},
		),
	}
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
