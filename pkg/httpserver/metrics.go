package httpserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// RateLimitedTotal counts scenario invocations rejected by the per-client limiter.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "betview_http_rate_limited_total",
			Help: "Total number of scenario invocations rejected by rate limiting",
		},
	)

	// RateLimitTrackedClients is the number of client buckets kept after the
	// last idle sweep.
	RateLimitTrackedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "betview_http_rate_limit_tracked_clients",
			Help: "Number of client IPs tracked by the rate limiter",
		},
	)
)
