// Package metrics provides Prometheus collectors for the Vigil tracker.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the tracker.
type Metrics struct {
	// Ingestion metrics
	DecisionsTotal     *prometheus.CounterVec
	DocumentsFetched   *prometheus.CounterVec
	DocumentsSkipped   prometheus.Counter
	IngestErrors       prometheus.Counter
	IngestCycleSeconds prometheus.Histogram

	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Store gauges
	StandardsTotal prometheus.Gauge
	VersionsTotal  prometheus.Gauge
}

// New creates and registers all collectors on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates the collectors against a specific registerer.
// Tests pass their own registry to avoid duplicate registration.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	m.DecisionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_decisions_total",
			Help: "Version decisions by kind (duplicate, new_version, new_standard)",
		},
		[]string{"kind"},
	)

	m.DocumentsFetched = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_documents_fetched_total",
			Help: "Documents retrieved from fetch collaborators, by fetcher",
		},
		[]string{"fetcher"},
	)

	m.DocumentsSkipped = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_documents_skipped_total",
			Help: "Fetched documents rejected before tracking (too short, embed failure)",
		},
	)

	m.IngestErrors = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_ingest_errors_total",
			Help: "Per-document errors during ingestion cycles",
		},
	)

	m.IngestCycleSeconds = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vigil_ingest_cycle_duration_seconds",
			Help:    "Duration of full ingestion cycles in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vigil_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	m.StandardsTotal = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "vigil_standards_total",
			Help: "Number of tracked standards",
		},
	)

	m.VersionsTotal = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "vigil_versions_total",
			Help: "Number of stored versions across all standards",
		},
	)

	return m
}

// RecordDecision counts one tracker decision.
func (m *Metrics) RecordDecision(kind string) {
	m.DecisionsTotal.WithLabelValues(kind).Inc()
}

// RecordHTTPRequest counts one request and observes its duration.
func (m *Metrics) RecordHTTPRequest(route, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}
