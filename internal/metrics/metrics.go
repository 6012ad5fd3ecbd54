// Package metrics exposes Prometheus instrumentation for the gateway.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Upstream provider calls.
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "xtreamgate_upstream_request_duration_seconds",
			Help:    "Duration of requests to upstream providers",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action", "status"},
	)

	// Response cache.
	ResponseCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xtreamgate_response_cache_hits_total",
			Help: "Upstream responses served from cache",
		},
		[]string{"action"},
	)
	ResponseCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xtreamgate_response_cache_misses_total",
			Help: "Upstream responses not found in cache",
		},
		[]string{"action"},
	)

	BulkRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xtreamgate_bulk_refreshes_total",
			Help: "Guide and playlist downloads by result",
		},
		[]string{"kind", "result"},
	)

	CategoryReconciles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xtreamgate_category_reconciles_total",
			Help: "Category reconciliation runs by content type and whether anything changed",
		},
		[]string{"content_type", "changed"},
	)

	// HTTP API.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "xtreamgate_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveUpstream records an upstream call. status is 0 on transport error.
func ObserveUpstream(action string, status int, d time.Duration) {
	UpstreamRequestDuration.WithLabelValues(action, strconv.Itoa(status)).Observe(d.Seconds())
}

// ObserveHTTP records a served request.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
