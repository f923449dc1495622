// Package metrics provides prometheus instrumentation for the service.
//
// The Metrics interface is optional throughout the codebase: components
// accept a nil implementation and skip recording with zero overhead, so
// tests and the library surface never depend on a prometheus registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records service-level observations.
type Metrics interface {
	// RecordOperation records a completed hierarchy-manager operation with
	// its name (create, get, list, publish, unpublish, fetch_content),
	// duration, and outcome.
	RecordOperation(operation string, duration time.Duration, err error)

	// RecordJob records a processed queue job with its terminal result
	// ("completed" or "failed").
	RecordJob(result string)

	// SetQueueDepth updates the pending-jobs gauge.
	SetQueueDepth(depth int)
}

// PrometheusMetrics implements Metrics using the default prometheus
// registerer.
type PrometheusMetrics struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	jobs       *prometheus.CounterVec
	queueDepth prometheus.Gauge
}

// NewPrometheusMetrics creates and registers the service collectors.
// Call at most once per process.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		operations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dittodrive",
			Name:      "operations_total",
			Help:      "Hierarchy manager operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		latency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dittodrive",
			Name:      "operation_duration_seconds",
			Help:      "Hierarchy manager operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		jobs: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dittodrive",
			Name:      "jobs_total",
			Help:      "Thumbnail jobs by terminal result.",
		}, []string{"result"}),
		queueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "dittodrive",
			Name:      "queue_depth",
			Help:      "Number of jobs waiting to be claimed.",
		}),
	}
}

func (m *PrometheusMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordJob(result string) {
	m.jobs.WithLabelValues(result).Inc()
}

func (m *PrometheusMetrics) SetQueueDepth(depth int) {
	m.queueDepth.Set(float64(depth))
}
