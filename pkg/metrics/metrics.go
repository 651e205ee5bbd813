// Package metrics provides the Prometheus registry and HTTP endpoints for
// fleetdash. All metrics are defined in their respective packages (listquery,
// client, cache, ratelimit) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by fleetdash.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// ReadyFunc reports whether a dependency is usable.
type ReadyFunc func(ctx context.Context) error

const readyTimeout = 2 * time.Second

// NewMux returns a mux serving /metrics, /health and /ready. ready may be nil.
func NewMux(ready ReadyFunc) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", HealthHandler)
	mux.HandleFunc("/ready", ReadyHandler(ready))
	return mux
}

// HealthHandler always answers 200 OK.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// ReadyHandler answers 503 while ready fails.
func ReadyHandler(ready ReadyFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			defer cancel()
			if err := ready(ctx); err != nil {
				http.Error(w, fmt.Sprintf("not ready: %v", err), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}
}

// Metrics Documentation
//
// List Metrics (pkg/listquery):
//   - fleetdash_list_fetches_total{list, outcome} (Counter): Fetches by outcome (success, error, stale)
//   - fleetdash_list_fetch_duration_seconds{list} (Histogram): Fetch duration
//   - fleetdash_list_resets_total{list} (Counter): Filter or page size resets
//   - fleetdash_list_items{list} (Gauge): Items currently held by a list
//
// Rate Limit Metrics (pkg/ratelimit):
//   - fleetdash_rate_limit_remaining (Gauge): Requests remaining in the current window
//   - fleetdash_rate_limit_blocks_total (Counter): Requests blocked below the critical threshold
//   - fleetdash_rate_limit_throttles_total (Counter): Requests throttled below the warning threshold
//
// Cache Metrics (pkg/cache):
//   - fleetdash_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - fleetdash_cache_misses_total (Counter): Cache misses
//   - fleetdash_cache_size_bytes{layer="redis"} (Gauge): Current cache size in bytes
//   - fleetdash_304_responses_total (Counter): 304 Not Modified responses
//   - fleetdash_conditional_requests_total (Counter): Conditional requests sent with If-None-Match
//   - fleetdash_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - fleetdash_api_requests_total{resource, status} (Counter): Requests by resource and HTTP status
//   - fleetdash_api_request_duration_seconds{resource} (Histogram): Request duration by resource
//   - fleetdash_api_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - fleetdash_api_retries_total{error_class} (Counter): Retry attempts by error class
//   - fleetdash_api_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - fleetdash_api_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Example Prometheus Queries:
//
//   # Stale response share per list
//   sum by (list) (rate(fleetdash_list_fetches_total{outcome="stale"}[5m])) /
//   sum by (list) (rate(fleetdash_list_fetches_total[5m]))
//
//   # Cache Hit Rate
//   sum(rate(fleetdash_cache_hits_total[5m])) /
//   (sum(rate(fleetdash_cache_hits_total[5m])) + sum(rate(fleetdash_cache_misses_total[5m])))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(fleetdash_api_request_duration_seconds_bucket[5m]))
