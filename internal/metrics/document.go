package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics for Prometheus
var (
	DocumentReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topo_document_reloads_total",
			Help: "Total number of document reload attempts by outcome",
		},
		[]string{"outcome"},
	)

	Validations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topo_validations_total",
			Help: "Total number of submitted document validations by outcome",
		},
		[]string{"outcome"},
	)

	RenderDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "topo_render_duration_seconds",
			Help:    "Config template render duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
