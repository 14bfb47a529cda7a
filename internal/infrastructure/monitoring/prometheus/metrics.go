// Package prometheus holds the pipeline metrics. Every metric lives on a
// private registry so test runs and the watch-mode re-runs never collide with
// the global default registry.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric label values for the result of processing one record.
const (
	ResultAnnotated = "annotated"
	ResultReview    = "review"
	ResultError     = "error"
)

// Metric label values for where a record's metadata came from.
const (
	SourceCache    = "cache"
	SourceArchive  = "archive"
	SourceFallback = "fallback"
)

// Metrics is the instrumentation surface of the annotation pipeline.
// A nil *Metrics is valid and records nothing, so callers never need an
// enabled check at each observation site.
type Metrics struct {
	registry *prometheus.Registry

	recordsProcessed *prometheus.CounterVec
	fetchesTotal     *prometheus.CounterVec
	fetchDuration    prometheus.Histogram
	classifyDuration prometheus.Histogram
	runDuration      prometheus.Histogram
	reviewRatio      prometheus.Gauge
}

// NewMetrics registers the pipeline metrics under the given namespace.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		recordsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_processed_total",
			Help:      "Records processed, by routing result.",
		}, []string{"result"}),
		fetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Metadata fetches, by source and status.",
		}, []string{"source", "status"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Metadata fetch latency.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30},
		}),
		classifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classify_duration_seconds",
			Help:      "Classification latency per record.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of a full annotation run.",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600},
		}),
		reviewRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "review_ratio",
			Help:      "Fraction of the last run routed to manual review.",
		}),
	}

	registry.MustRegister(
		m.recordsProcessed,
		m.fetchesTotal,
		m.fetchDuration,
		m.classifyDuration,
		m.runDuration,
		m.reviewRatio,
	)
	return m
}

// Handler serves the private registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordProcessed(result string) {
	if m == nil {
		return
	}
	m.recordsProcessed.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveFetch(source, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetchesTotal.WithLabelValues(source, status).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveClassify(d time.Duration) {
	if m == nil {
		return
	}
	m.classifyDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveRun(d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(d.Seconds())
}

func (m *Metrics) SetReviewRatio(ratio float64) {
	if m == nil {
		return
	}
	m.reviewRatio.Set(ratio)
}
