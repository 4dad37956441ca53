package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var registry = prometheus.NewRegistry()

var (
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_api_requests_total",
			Help: "Total number of REST API calls by resource, operation and outcome",
		},
		[]string{"resource", "op", "outcome"},
	)

	APIRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_api_request_duration_seconds",
			Help:    "Duration of REST API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource", "op"},
	)

	SessionInvalidationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_session_invalidations_total",
			Help: "Persisted sessions cleared after a 401 response",
		},
	)

	CartMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Cart store operations by outcome",
		},
		[]string{"op", "outcome"},
	)

	BookingTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_booking_transitions_total",
			Help: "Booking wizard step transitions",
		},
		[]string{"from", "to", "outcome"},
	)
)

func init() {
	registry.MustRegister(
		APIRequestsTotal,
		APIRequestDurationSeconds,
		SessionInvalidationsTotal,
		CartMutationsTotal,
		BookingTransitionsTotal,
	)
}

// Registry returns the registry holding the client metrics
func Registry() *prometheus.Registry {
	return registry
}

// ObserveAPICall records metrics for a single REST call
func ObserveAPICall(resource, op string, ok bool, startedAt time.Time) {
	APIRequestsTotal.WithLabelValues(resource, op, outcome(ok)).Inc()
	APIRequestDurationSeconds.WithLabelValues(resource, op).Observe(time.Since(startedAt).Seconds())
}

// ObserveCartMutation records a cart store operation
func ObserveCartMutation(op string, ok bool) {
	CartMutationsTotal.WithLabelValues(op, outcome(ok)).Inc()
}

// ObserveBookingTransition records a wizard step change attempt
func ObserveBookingTransition(from, to string, ok bool) {
	BookingTransitionsTotal.WithLabelValues(from, to, outcome(ok)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
