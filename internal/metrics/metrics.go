package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── HTTP request metrics (RED method) ──────────────────────────────────

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "near_dashboard",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "near_dashboard",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "near_dashboard",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being processed.",
	})
)

// ── Upstream fetch metrics ─────────────────────────────────────────────

var (
	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "near_dashboard",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Total number of upstream requests per provider.",
	}, []string{"provider", "status"})

	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "near_dashboard",
		Subsystem: "upstream",
		Name:      "duration_seconds",
		Help:      "Duration of upstream requests per provider in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"provider"})

	UpstreamBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "near_dashboard",
		Subsystem: "upstream",
		Name:      "breaker_state",
		Help:      "Circuit breaker state per provider (0=closed, 1=half-open, 2=open).",
	}, []string{"provider"})
)

// ── Page / pipeline metrics ────────────────────────────────────────────

var (
	PageBuildTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "near_dashboard",
		Subsystem: "page",
		Name:      "build_total",
		Help:      "Total page builds by outcome.",
	}, []string{"page", "status"})

	PageBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "near_dashboard",
		Subsystem: "page",
		Name:      "build_duration_seconds",
		Help:      "Duration of page builds in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"page"})

	DefiProtocolFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "near_dashboard",
		Subsystem: "defi",
		Name:      "protocol_failures_total",
		Help:      "Protocols dropped from the DeFi pipeline.",
	}, []string{"protocol"})

	DefiProtocols = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "near_dashboard",
		Subsystem: "defi",
		Name:      "protocols",
		Help:      "Protocols considered by the last DeFi pipeline run.",
	}, []string{"status"})

	DefiRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "near_dashboard",
		Subsystem: "defi",
		Name:      "rows",
		Help:      "Rows in the last windowed DeFi tables.",
	}, []string{"table"})
)

// ── Cache metrics ──────────────────────────────────────────────────────

var (
	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "near_dashboard",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Result cache lookups by outcome.",
	}, []string{"source", "result"})

	CacheInvalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "near_dashboard",
		Subsystem: "cache",
		Name:      "invalidations_total",
		Help:      "Total explicit cache refresh requests.",
	})
)
