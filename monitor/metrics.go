// Package monitor exposes the service's Prometheus metrics.
package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ComputeDuration tracks engine computation latency per component.
	ComputeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shadow_analytics",
		Name:      "engine_compute_duration_seconds",
		Help:      "Duration of forecasting engine computations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"component"})

	// AlertsEmitted counts budget alerts by type.
	AlertsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shadow_analytics",
		Name:      "budget_alerts_emitted_total",
		Help:      "Budget alerts emitted per evaluation, by alert type.",
	}, []string{"type"})

	// RecommendationsEmitted counts optimization recommendations by type.
	RecommendationsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shadow_analytics",
		Name:      "optimization_recommendations_total",
		Help:      "Optimization recommendations emitted, by recommendation type.",
	}, []string{"type"})

	// CacheRequests counts cache lookups by tier and outcome.
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shadow_analytics",
		Name:      "cache_requests_total",
		Help:      "Cache lookups by tier (memory, redis) and outcome (hit, miss).",
	}, []string{"tier", "outcome"})

	// UsageEventsRecorded counts metered events accepted by the write path.
	UsageEventsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shadow_analytics",
		Name:      "usage_events_recorded_total",
		Help:      "Usage events accepted through the ingestion endpoint.",
	})
)

// ObserveComputation records one engine computation's duration.
func ObserveComputation(component string, start time.Time) {
	ComputeDuration.WithLabelValues(component).Observe(time.Since(start).Seconds())
}
