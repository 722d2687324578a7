// Package metrics exposes Prometheus metrics for the cache layer.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cache metrics
	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartsuite_cache_hits_total",
			Help: "Cache hits by upstream table",
		},
		[]string{"table_id"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartsuite_cache_misses_total",
			Help: "Cache misses by upstream table",
		},
		[]string{"table_id"},
	)

	CounterFlushes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "smartsuite_cache_counter_flushes_total",
			Help: "Performance counter flushes to the durable store",
		},
	)

	Invalidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartsuite_cache_invalidations_total",
			Help: "Cache invalidations by scope",
		},
		[]string{"scope"},
	)

	PopulatedRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartsuite_cache_populated_rows_total",
			Help: "Rows written into the cache by resource",
		},
		[]string{"resource"},
	)

	// Upstream metrics
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartsuite_upstream_requests_total",
			Help: "Upstream API requests by outcome",
		},
		[]string{"outcome"},
	)
)

var registerOnce sync.Once

// Register registers all metrics with the default registry. Repeated
// calls are no-ops.
func Register() {
	registerOnce.Do(register)
}

func register() {
	prometheus.MustRegister(
		CacheHits,
		CacheMisses,
		CounterFlushes,
		Invalidations,
		PopulatedRows,
		UpstreamRequests,
	)
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
