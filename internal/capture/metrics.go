package capture

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// CaptureDurationSeconds tracks how long the engine held the redirected sink.
	CaptureDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "betview_capture_duration_seconds",
		Help:    "Duration of a captured engine call",
		Buckets: prometheus.DefBuckets,
	})

	// CapturedBytes tracks the size of captured reports.
	CapturedBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "betview_captured_bytes",
		Help:    "Size of the text captured from one engine call",
		Buckets: prometheus.ExponentialBuckets(64, 4, 8), // 64B .. 1MB
	})

	// CaptureFailuresTotal tracks captures that could not run or drain.
	CaptureFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "betview_capture_failures_total",
			Help: "Total number of failed output captures",
		},
		[]string{"reason"},
	)
)
