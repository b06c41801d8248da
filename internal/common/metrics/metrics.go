// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solver_searches_completed_total",
			Help: "Total number of completed searches by strategy",
		},
		[]string{"strategy"},
	)

	SearchesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solver_searches_failed_total",
			Help: "Total number of failed searches by strategy",
		},
		[]string{"strategy", "error_code"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "solver_search_duration_seconds",
			Help: "Duration of search execution in seconds",
		},
		[]string{"strategy"},
	)

	SearchesActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "solver_searches_active",
			Help: "Number of in-flight searches per strategy",
		},
		[]string{"strategy"},
	)

	RecipesFound = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solver_recipes_per_search",
			Help:    "Number of recipes returned per search",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"strategy"},
	)

	NodesExplored = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solver_nodes_explored_per_search",
			Help:    "Search tree nodes visited per search by the backtracking strategies",
			Buckets: prometheus.ExponentialBuckets(1, 4, 12),
		},
		[]string{"strategy"},
	)

	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solver_fallbacks_total",
			Help: "Searches re-run sequentially after a backend failure",
		},
		[]string{"from"},
	)

	LimitReached = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solver_limit_reached_total",
			Help: "Searches that hit the solution or candidate cap",
		},
		[]string{"strategy"},
	)

	CatalogCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_hits_total",
			Help: "Catalog cache hits by entity type",
		},
		[]string{"entity"},
	)

	CatalogCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_misses_total",
			Help: "Catalog cache misses by entity type",
		},
		[]string{"entity"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP request latency by route",
		},
		[]string{"method", "route"},
	)
)
