package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight.
	HTTPRequestsInFlight prometheus.Gauge

	// Tracker operations by outcome, e.g. add_or_update/invalid_input, search/not_found.
	TrackerOperationsTotal *prometheus.CounterVec

	// Icon loads by outcome: fetched, cached, placeholder.
	IconLoadsTotal *prometheus.CounterVec

	// Icon download latency per attempt. Watch for: p95 close to icon.timeout.
	IconFetchDuration *prometheus.HistogramVec

	// Retry attempts for the icon download.
	IconFetchRetriesTotal prometheus.Counter

	// Icon breaker state changes. Repeated closed->open means the icon host is down.
	IconBreakerTransitionsTotal *prometheus.CounterVec

	// Icon cache operations by backend, op (get/set) and result (hit/miss/error/success).
	CacheOperationsTotal *prometheus.CounterVec

	// Rate limit denials.
	RateLimitDeniedTotal prometheus.Counter

	citiesGaugeOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	TrackerOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackerOperationsTotal",
			Help: "Tracker operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
	IconLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iconLoadsTotal",
			Help: "Icon loads by outcome (fetched, cached, placeholder)",
		},
		[]string{"outcome"},
	)
	IconFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "iconFetchDurationSeconds",
			Help:    "Icon download latency in seconds (per attempt)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	IconFetchRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "iconFetchRetriesTotal",
			Help: "Total number of retry attempts for the icon download",
		},
	)
	IconBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iconBreakerTransitionsTotal",
			Help: "Icon download circuit breaker state transitions",
		},
		[]string{"from", "to"},
	)
	CacheOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheOperationsTotal",
			Help: "Icon cache operations by backend, operation and result",
		},
		[]string{"backend", "operation", "result"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		TrackerOperationsTotal,
		IconLoadsTotal, IconFetchDuration, IconFetchRetriesTotal, IconBreakerTransitionsTotal,
		CacheOperationsTotal,
		RateLimitDeniedTotal,
	)
}

// RecordTrackerOperation counts one tracker operation with its outcome.
func RecordTrackerOperation(operation, outcome string) {
	TrackerOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RegisterCitiesGauge exposes the number of stored cities. count is called on
// every scrape. Only the first call registers; later calls are ignored.
func RegisterCitiesGauge(count func() int) {
	citiesGaugeOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "trackerCitiesStored",
					Help: "Number of cities with a stored weather record",
				},
				func() float64 { return float64(count()) },
			),
		)
	})
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
