// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DispatchRequests counts handled dispatch requests by entry point (http, zeebe)
	// and outcome (dispatched, skipped, failed).
	DispatchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_dispatch_requests_total",
			Help: "Total number of push dispatch requests",
		},
		[]string{"source", "outcome"},
	)

	PushDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_deliveries_total",
			Help: "Total number of individual push delivery attempts",
		},
		[]string{"result"},
	)

	SubscriptionsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "push_subscriptions_pruned_total",
			Help: "Total number of subscriptions removed after a 404/410 from the push service",
		},
	)

	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "push_dispatch_duration_seconds",
			Help:    "Duration of a dispatch request in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
)
