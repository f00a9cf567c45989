package scenario

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// InvocationsTotal tracks scenario invocations by outcome branch.
	InvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "betview_scenario_invocations_total",
			Help: "Total number of scenario invocations",
		},
		[]string{"scenario", "branch"},
	)

	// InvocationDurationSeconds tracks end-to-end invocation latency.
	InvocationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "betview_scenario_invocation_duration_seconds",
			Help:    "Duration of a scenario invocation, coercion to projection",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scenario"},
	)

	// FailuresTotal tracks caller-side failures and how they were handled.
	FailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "betview_scenario_failures_total",
			Help: "Total number of scenario failures by kind and reaction",
		},
		[]string{"scenario", "kind", "reaction"},
	)

	// ReportCacheHitsTotal tracks parsed reports served from the cache.
	ReportCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betview_report_cache_hits_total",
		Help: "Total number of parsed reports served from the cache",
	})
)
