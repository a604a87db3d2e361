// Package metrics provides the Prometheus registry and HTTP handler for the
// ServiceNOW client. All metrics are defined in their respective packages
// (client, pagination, filter, sink) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the ServiceNOW client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns the HTTP handler exposing the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - servicenow_requests_total{endpoint, status} (Counter): Table API requests by endpoint and HTTP status
//   - servicenow_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - servicenow_errors_total{class} (Counter): Errors by class (execution_time_exceeded, request_failed, network)
//
// Retry Metrics (pkg/client):
//   - servicenow_retries_total{error_class} (Counter): Retry attempts by error class
//   - servicenow_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - servicenow_retry_exhausted_total{error_class} (Counter): Page fetches that exhausted max attempts
//
// Pagination Metrics (pkg/pagination):
//   - servicenow_pages_fetched_total{endpoint} (Counter): Non-empty pages yielded
//   - servicenow_pagination_runs_total{endpoint, outcome} (Counter): Runs by outcome (complete, error, abandoned)
//
// Filter Metrics (pkg/filter):
//   - servicenow_records_skipped_total{filter} (Counter): Records dropped by a filter policy
//
// Sink Metrics (pkg/sink):
//   - servicenow_sink_records_total{sink} (Counter): Records written by sink
//   - servicenow_sink_errors_total{sink} (Counter): Sink write failures
//
// Example Prometheus Queries:
//
//   # Execution time exceeded rate
//   rate(servicenow_errors_total{class="execution_time_exceeded"}[5m])
//
//   # Retry exhaustion
//   increase(servicenow_retry_exhausted_total[1h]) > 0
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(servicenow_request_duration_seconds_bucket[5m]))
