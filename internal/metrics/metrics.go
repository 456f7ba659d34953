// Package metrics exposes the service's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestTotal counts HTTP requests by method and path prefix.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlpipelines_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration is the latency of HTTP requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mlpipelines_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// CompilationsTotal counts pipeline compilations by pipeline and outcome.
	CompilationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlpipelines_compilations_total",
			Help: "Total number of pipeline compilations",
		},
		[]string{"pipeline", "status"},
	)

	// CompileDuration is how long building and compiling a graph took.
	CompileDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mlpipelines_compile_duration_seconds",
			Help:    "Pipeline build and compile latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pipeline"},
	)

	// SamplingQueriesTotal counts generated split queries.
	SamplingQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlpipelines_sampling_queries_total",
			Help: "Total number of generated sampling queries",
		},
		[]string{"status"},
	)

	// PublishTotal counts workflow uploads to the artifact store.
	PublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlpipelines_publish_total",
			Help: "Total number of workflow uploads",
		},
		[]string{"status"},
	)
)

// Status turns an error into the status label.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
