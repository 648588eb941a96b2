// Package metrics provides Prometheus metrics collection for the
// formulary API. It exports HTTP server metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// and query pipeline metrics:
//   - formulary_queries_total: Counter with query_type and parse method labels
//   - formulary_llm_fallback_total: Counter with outcome label
//   - formulary_name_resolution_total: Counter with resolution tier label
//   - formulary_catalog_refresh_duration_seconds: Histogram of catalog reloads
//
// All metrics are automatically registered with the Prometheus default
// registry during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (clients seen in last ~5 minutes)",
		},
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formulary_queries_total",
			Help: "Total parsed queries by query type and parse method",
		},
		[]string{"query_type", "method"},
	)

	LLMFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formulary_llm_fallback_total",
			Help: "Total LLM fallback attempts by outcome",
		},
		[]string{"outcome"},
	)

	NameResolutionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formulary_name_resolution_total",
			Help: "Total drug name resolutions by tier",
		},
		[]string{"tier"},
	)

	CatalogRefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "formulary_catalog_refresh_duration_seconds",
			Help:    "Catalog refresh latency",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(LLMFallbackTotal)
	prometheus.MustRegister(NameResolutionTotal)
	prometheus.MustRegister(CatalogRefreshDuration)
}
