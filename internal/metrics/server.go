package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics for Prometheus
var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topo_api_requests_total",
			Help: "Total number of API requests by method and path",
		},
		[]string{"method", "path"},
	)

	WatchClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "topo_watch_clients",
			Help: "Number of connected watch subscribers",
		},
	)
)
