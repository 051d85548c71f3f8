package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FeedRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "histpatch_feed_requests_total",
			Help: "Total feed requests served",
		},
		[]string{"status"},
	)

	FeedDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "histpatch_feed_duration_seconds",
			Help:    "Feed filter/sort pipeline duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	FeedRecordsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "histpatch_feed_records_returned",
			Help:    "Number of records returned per feed request",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
		},
	)

	ShardLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "histpatch_shard_loads_total",
			Help: "Total shard fetch attempts",
		},
		[]string{"status"},
	)

	ActiveRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "histpatch_ticker_active_records",
			Help: "Active records feeding the ticker",
		},
	)

	DiagnosticTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "histpatch_diagnostic_total",
			Help: "Total diagnostic requests",
		},
		[]string{"provider", "status"},
	)

	DiagnosticDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "histpatch_diagnostic_duration_seconds",
			Help:    "Diagnostic generation duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	DiagnosticTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "histpatch_diagnostic_tokens_total",
			Help: "Tokens consumed by the diagnostic provider",
		},
		[]string{"type"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "histpatch_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "histpatch_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	ContributorFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "histpatch_contributor_fetches_total",
			Help: "Contributor listing fetch attempts",
		},
		[]string{"status"},
	)
)

func Init() {
	prometheus.MustRegister(FeedRequests)
	prometheus.MustRegister(FeedDuration)
	prometheus.MustRegister(FeedRecordsReturned)
	prometheus.MustRegister(ShardLoads)
	prometheus.MustRegister(ActiveRecords)
	prometheus.MustRegister(DiagnosticTotal)
	prometheus.MustRegister(DiagnosticDuration)
	prometheus.MustRegister(DiagnosticTokens)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(ContributorFetches)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
