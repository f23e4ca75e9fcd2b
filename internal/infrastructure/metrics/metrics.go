package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_desk_http_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "support_desk_http_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "support_desk_http_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_desk_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"limiter"},
	)

	// Domain Metrics
	TicketsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "support_desk_tickets_created_total",
			Help: "Total number of tickets created",
		},
	)

	TicketMessagesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_desk_ticket_messages_created_total",
			Help: "Total number of ticket messages created",
		},
		[]string{"author_type"},
	)

	AdminAuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_desk_admin_auth_failures_total",
			Help: "Total number of rejected admin credentials",
		},
		[]string{"reason"},
	)

	// WebSocket Metrics
	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "support_desk_websocket_connections_active",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSEventsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_desk_websocket_events_sent_total",
			Help: "Total number of WebSocket events queued to clients",
		},
		[]string{"event_type"},
	)

	WSEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "support_desk_websocket_events_dropped_total",
			Help: "Total number of events dropped because the hub was saturated",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
