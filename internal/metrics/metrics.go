// Package metrics holds the Prometheus collectors for the service. All
// collectors register on the default registry via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "silverhand_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "silverhand_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	TransferOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "silverhand_transfer_outcomes_total",
		Help: "Transfer attempts by terminal state",
	}, []string{"outcome"})
)
