package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BackendRequestsTotal tracks outbound calls to the catalog backend.
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_backend_requests_total",
			Help: "Total number of backend API requests (by endpoint and status; status 0 is a transport failure).",
		},
		[]string{"endpoint", "status"},
	)

	// BackendRequestDuration measures outbound backend calls.
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_backend_request_duration_seconds",
			Help:    "Duration of backend API requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms → ~16s
		},
		[]string{"endpoint"},
	)

	// HTTPRequestsTotal tracks inbound requests served by the gateway.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "Total number of inbound HTTP requests (by route, method, and status).",
		},
		[]string{"route", "method", "status"},
	)

	// ExportsTotal counts rendered exports.
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_exports_total",
			Help: "Number of catalog exports by format and outcome.",
		},
		[]string{"format", "outcome"},
	)

	// SessionEvents counts session lifecycle transitions.
	SessionEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_session_events_total",
			Help: "Session lifecycle events (init, teardown, forced_teardown).",
		},
		[]string{"event"},
	)

	// NATSMessages counts catalog events published to NATS.
	NATSMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_nats_messages_total",
			Help: "Number of NATS publishes by subject and outcome.",
		},
		[]string{"subject", "outcome"},
	)

	// NATSMessageLatency measures JetStream publish acknowledgements.
	NATSMessageLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_nats_publish_duration_seconds",
			Help:    "Duration of JetStream publishes in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"subject"},
	)
)

// ObserveBackend records one backend attempt. It matches httpclient.Observer.
func ObserveBackend(endpoint string, status int, elapsed time.Duration) {
	BackendRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	BackendRequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// IncHTTPRequest increments the inbound request counter.
func IncHTTPRequest(route, method string, status int) {
	HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// IncExport counts one export attempt.
func IncExport(format, outcome string) {
	ExportsTotal.WithLabelValues(format, outcome).Inc()
}

// IncSessionEvent counts one session transition.
func IncSessionEvent(event string) {
	SessionEvents.WithLabelValues(event).Inc()
}

// IncNATSMessage counts one publish.
func IncNATSMessage(subject, outcome string) {
	NATSMessages.WithLabelValues(subject, outcome).Inc()
}

// ObserveDuration records elapsed time since start into a HistogramVec or SummaryVec.
func ObserveDuration(v any, start time.Time, labels ...string) {
	duration := time.Since(start).Seconds()
	switch metric := v.(type) {
	case *prometheus.HistogramVec:
		metric.WithLabelValues(labels...).Observe(duration)
	case *prometheus.SummaryVec:
		metric.WithLabelValues(labels...).Observe(duration)
	}
}
