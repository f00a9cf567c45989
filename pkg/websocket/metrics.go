package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// ActiveConnections tracks viewers connected to the hub.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "betview_ws_active_connections",
		Help: "Number of viewers connected to the slot hub",
	})

	// ViewerConnected is 1 while a viewer holds a live connection.
	ViewerConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "betview_ws_viewer_connected",
		Help: "Whether the viewer is connected to a hub (1) or not (0)",
	})

	// MessagesSentTotal tracks messages queued to viewers by type.
	MessagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "betview_ws_messages_sent_total",
			Help: "Total number of slot messages queued to viewers",
		},
		[]string{"type"},
	)

	// MessagesReceivedTotal tracks messages a viewer received by type.
	MessagesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "betview_ws_messages_received_total",
			Help: "Total number of slot messages received by viewers",
		},
		[]string{"type"},
	)

	// MessagesDroppedTotal tracks messages dropped because a buffer was full.
	MessagesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "betview_ws_messages_dropped_total",
			Help: "Total number of slot messages dropped",
		},
		[]string{"reason"},
	)

	// ConnectionDuration tracks viewer connection lifetime.
	ConnectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "betview_ws_connection_duration_seconds",
		Help:    "Duration of viewer connections before disconnect",
		Buckets: []float64{1, 10, 60, 300, 600, 1800, 3600, 14400, 86400},
	})

	// ReconnectAttemptsTotal tracks viewer reconnection attempts.
	ReconnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betview_ws_reconnect_attempts_total",
		Help: "Total number of viewer reconnection attempts",
	})

	// ReconnectFailuresTotal tracks failed viewer reconnections.
	ReconnectFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betview_ws_reconnect_failures_total",
		Help: "Total number of failed viewer reconnections",
	})
)
