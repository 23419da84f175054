package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Upstream call metrics, labelled by service ("metadata", "backend", "recommend")
var (
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of requests sent to upstream services, by response status.",
		},
		[]string{"service", "status"},
	)

	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Latency of upstream requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)
)

// Dashboard metrics
var (
	DashboardSectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_sections_total",
			Help: "Dashboard sections settled, by section and status.",
		},
		[]string{"section", "status"},
	)

	// DetailResolutionsTotal counts per-item detail lookups; outcome is "success" or "dropped".
	DetailResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detail_resolutions_total",
			Help: "Total number of per-item detail resolutions.",
		},
		[]string{"outcome"},
	)

	RecommendationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total number of recommendation requests, by outcome.",
		},
		[]string{"outcome"},
	)
)

// API metrics, labelled by chi route pattern so ids do not explode cardinality
var (
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests, by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Latency of API requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(
		UpstreamRequestsTotal,
		UpstreamRequestDuration,
		DashboardSectionsTotal,
		DetailResolutionsTotal,
		RecommendationRequestsTotal,
		APIRequestsTotal,
		APIRequestDuration,
	)
}
