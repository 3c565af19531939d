package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API client metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rider_api_requests_total",
			Help: "Total number of backend API calls",
		},
		[]string{"operation", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rider_api_request_duration_seconds",
			Help:    "Backend API call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	RequestReplaysTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rider_request_replays_total",
			Help: "Total number of requests replayed after a token refresh",
		},
	)

	// Token metrics
	TokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rider_token_refresh_total",
			Help: "Total number of refresh episodes by outcome",
		},
		[]string{"status"},
	)

	// Order metrics
	OrdersPendingGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rider_orders_pending",
			Help: "Current number of pending orders",
		},
	)

	OrdersActiveGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rider_orders_active",
			Help: "Current number of orders in delivery",
		},
	)

	OrderTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rider_order_transitions_total",
			Help: "Total number of order state transitions",
		},
		[]string{"transition"},
	)

	// Order feed metrics
	FeedReconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rider_feed_reconnects_total",
			Help: "Total number of order feed reconnect attempts",
		},
	)

	FeedEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rider_feed_events_total",
			Help: "Total number of order feed events received",
		},
		[]string{"type"},
	)
)

// RecordAPIRequest records one backend API call.
func RecordAPIRequest(operation string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	APIRequestsTotal.WithLabelValues(operation, status).Inc()
	APIRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordTokenRefresh records the outcome of one refresh episode.
func RecordTokenRefresh(status string) {
	TokenRefreshTotal.WithLabelValues(status).Inc()
}

// RecordOrderTransition records a state machine transition.
func RecordOrderTransition(transition string) {
	OrderTransitionsTotal.WithLabelValues(transition).Inc()
}

// SetOrderGauges updates both collection size gauges.
func SetOrderGauges(pending, active int) {
	OrdersPendingGauge.Set(float64(pending))
	OrdersActiveGauge.Set(float64(active))
}
