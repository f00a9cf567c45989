package view

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// ProjectionsTotal tracks projections by scenario and branch.
	ProjectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "betview_projections_total",
			Help: "Total number of report projections",
		},
		[]string{"scenario", "branch"},
	)

	// IndicatorsShown tracks how many indicator rows a found projection shows.
	IndicatorsShown = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "betview_indicators_shown",
		Help:    "Indicator rows shown per found projection",
		Buckets: []float64{0, 1, 2, 3, 4, 5},
	})
)
