// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Cache outcomes.
const (
	OutcomeHit     = "hit"
	OutcomePartial = "partial"
	OutcomeMiss    = "miss"
)

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry       *prometheus.Registry
	CacheRequests  *prometheus.CounterVec
	SourceFetches  *prometheus.CounterVec
	PointsMerged   *prometheus.CounterVec
	GapsUnfilled   *prometheus.CounterVec
	ForecastTiming prometheus.Histogram
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navsentinel",
			Name:      "cache_requests_total",
			Help:      "Series cache lookups by outcome.",
		}, []string{"series", "outcome"}),
		SourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navsentinel",
			Name:      "source_fetches_total",
			Help:      "External fetches by source and result.",
		}, []string{"source", "result"}),
		PointsMerged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navsentinel",
			Name:      "points_merged_total",
			Help:      "New points appended to cached series.",
		}, []string{"series"}),
		GapsUnfilled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navsentinel",
			Name:      "gaps_unfilled_total",
			Help:      "Partial edge fetches that returned no data.",
		}, []string{"series"}),
		ForecastTiming: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "navsentinel",
			Name:      "forecast_duration_seconds",
			Help:      "Wall time of a full forecast pipeline.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}
	m.Registry.MustRegister(m.CacheRequests, m.SourceFetches, m.PointsMerged, m.GapsUnfilled, m.ForecastTiming)
	return m
}

func (m *Metrics) CacheOutcome(series, outcome string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(series, outcome).Inc()
}

func (m *Metrics) Fetch(source string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "empty"
	}
	m.SourceFetches.WithLabelValues(source, result).Inc()
}

func (m *Metrics) Merged(series string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.PointsMerged.WithLabelValues(series).Add(float64(n))
}

func (m *Metrics) GapUnfilled(series string) {
	if m == nil {
		return
	}
	m.GapsUnfilled.WithLabelValues(series).Inc()
}

func (m *Metrics) ObserveForecast(seconds float64) {
	if m == nil {
		return
	}
	m.ForecastTiming.Observe(seconds)
}
