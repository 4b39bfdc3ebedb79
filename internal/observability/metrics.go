package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for perpview.
type Metrics struct {
	// --- HTTP query surface ---
	QueryRequests *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	QueryErrors   *prometheus.CounterVec

	// --- Upstream ledger reads ---
	UpstreamCalls    *prometheus.CounterVec
	UpstreamErrors   *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec

	// --- Derivation ---
	PositionsDerived prometheus.Histogram
	TokensDerived    prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		QueryRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "perpview_query_requests_total",
			Help: "Total HTTP query requests by route and status class",
		}, []string{"route", "status"}),
		QueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "perpview_query_duration_seconds",
			Help:    "End-to-end query latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		QueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "perpview_query_errors_total",
			Help: "Query failures by route and error class",
		}, []string{"route", "class"}),

		UpstreamCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "perpview_upstream_calls_total",
			Help: "Ledger reader calls by method",
		}, []string{"method"}),
		UpstreamErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "perpview_upstream_errors_total",
			Help: "Ledger reader failures by method",
		}, []string{"method"}),
		UpstreamDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "perpview_upstream_duration_seconds",
			Help:    "Ledger reader call latency by method",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),

		PositionsDerived: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "perpview_positions_derived",
			Help:    "Positions derived per request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		TokensDerived: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "perpview_tokens_derived",
			Help: "Tokens in the most recently derived token map",
		}),
	}
}
