// Package metrics exposes Prometheus instrumentation for source queries.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/txbooks/locator/internal/locate"
)

// Metrics holds the per-source query metrics. It satisfies locate.Observer.
type Metrics struct {
	Queries  *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		Queries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "locator_source_queries_total",
			Help: "Source queries issued, labelled by source and outcome.",
		}, []string{"source", "outcome"}),
		Duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "locator_source_query_duration_seconds",
			Help:    "Wall-clock duration of individual source queries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
	}
}

// ObserveQuery records one source query outcome.
func (m *Metrics) ObserveQuery(j locate.Jurisdiction, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Queries.WithLabelValues(string(j), outcome).Inc()
	m.Duration.WithLabelValues(string(j)).Observe(elapsed.Seconds())
}
