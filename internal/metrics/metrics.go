package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gruner_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gruner_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Chat metrics
	UsersOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gruner_users_online",
			Help: "Number of currently connected chat users",
		},
	)

	ConnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gruner_connects_total",
			Help: "Total successful WebSocket connections",
		},
	)

	DisconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gruner_disconnects_total",
			Help: "Total disconnections",
		},
		[]string{"reason"}, // "client" or "slow_consumer"
	)

	MessagesBroadcast = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gruner_messages_broadcast_total",
			Help: "Total chat messages accepted and broadcast",
		},
	)

	DeliveriesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gruner_deliveries_dropped_total",
			Help: "Total outbound frames dropped due to full or closed send buffers",
		},
	)

	// Summary metrics
	SummaryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gruner_summary_requests_total",
			Help: "Total summarization requests",
		},
		[]string{"outcome"}, // "ok" or "error"
	)

	FeatureRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gruner_feature_requests_total",
			Help: "Total AI feature requests",
		},
		[]string{"feature", "outcome"}, // feature: prioritize, moderate, smart_replies
	)

	SummaryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gruner_summary_duration_seconds",
			Help:    "Summarizer call latency",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gruner_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)

	BlockedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gruner_blocked_requests_total",
			Help: "Total blocked requests",
		},
		[]string{"reason"},
	)
)
