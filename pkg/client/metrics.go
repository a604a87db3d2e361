package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for table API operations.
var (
	snRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "servicenow_requests_total",
		Help: "Total table API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	snRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "servicenow_request_duration_seconds",
		Help:    "Table API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"endpoint"})

	snErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "servicenow_errors_total",
		Help: "Total table API errors by class",
	}, []string{"class"})

	snRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "servicenow_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	snRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "servicenow_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{1, 5, 10, 20, 30, 40, 60},
	}, []string{"error_class"})

	snRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "servicenow_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)
