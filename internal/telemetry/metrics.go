package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: ServiceName + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    ServiceName + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// ItemTransitions counts committed item status changes by target status.
	ItemTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: ServiceName + "_item_transitions_total",
			Help: "Total number of item status changes",
		},
		[]string{"to"},
	)

	RestockNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: ServiceName + "_restock_notifications_total",
			Help: "Restock notices handed to the delivery channel",
		},
		[]string{"result"},
	)

	RestockDispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    ServiceName + "_restock_dispatch_duration_seconds",
			Help:    "Time to deliver all notices for one restock",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// RecordItemTransition increments the item transition counter.
func RecordItemTransition(to string) {
	ItemTransitions.WithLabelValues(to).Inc()
}
