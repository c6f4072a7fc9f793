package conduit

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector records Prometheus metrics for each pipeline stage. A nil
// collector is valid and records nothing.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	retriesTotal *prometheus.CounterVec

	rateLimitWindow *prometheus.GaugeVec

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	cacheSize   prometheus.Gauge

	errorsTotal *prometheus.CounterVec

	registry prometheus.Registerer
}

// NewMetricsCollector creates a collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using supplied registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	factory := promauto.With(registry)
	return &MetricsCollector{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conduit_requests_total",
				Help: "Total number of HTTP requests that reached the transport",
			},
			[]string{"method", "status_code", "host"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "conduit_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_code", "host"},
		),
		requestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "conduit_requests_in_flight",
				Help: "Number of requests currently inside the pipeline",
			},
			[]string{"method"},
		),
		retriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conduit_retries_total",
				Help: "Total number of retry attempts",
			},
			[]string{"attempt"},
		),
		rateLimitWindow: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "conduit_rate_limit_window_count",
				Help: "Requests counted in the current fixed window per host",
			},
			[]string{"host"},
		),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "conduit_cache_hits_total",
			Help: "Total number of cache hits",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "conduit_cache_misses_total",
			Help: "Total number of cache misses",
		}),
		cacheSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "conduit_cache_size",
			Help: "Current number of entries in cache",
		}),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conduit_errors_total",
				Help: "Total number of pipeline failures by type",
			},
			[]string{"type", "method", "host"},
		),
		registry: registry,
	}
}

// RecordRequest records request count and duration.
func (mc *MetricsCollector) RecordRequest(method, host string, statusCode int, duration time.Duration) {
	if mc == nil {
		return
	}

	statusCodeStr := strconv.Itoa(statusCode)
	mc.requestsTotal.WithLabelValues(method, statusCodeStr, host).Inc()
	mc.requestDuration.WithLabelValues(method, statusCodeStr, host).Observe(duration.Seconds())
}

// RecordRequestStart increments in-flight gauge.
func (mc *MetricsCollector) RecordRequestStart(method string) {
	if mc == nil {
		return
	}
	mc.requestsInFlight.WithLabelValues(method).Inc()
}

// RecordRequestEnd decrements in-flight gauge.
func (mc *MetricsCollector) RecordRequestEnd(method string) {
	if mc == nil {
		return
	}
	mc.requestsInFlight.WithLabelValues(method).Dec()
}

// RecordRetry increments retry counter for an attempt.
func (mc *MetricsCollector) RecordRetry(attempt int) {
	if mc == nil {
		return
	}
	mc.retriesTotal.WithLabelValues(strconv.Itoa(attempt)).Inc()
}

// RecordRateLimitWindow sets the host's current window count.
func (mc *MetricsCollector) RecordRateLimitWindow(host string, count int) {
	if mc == nil {
		return
	}
	mc.rateLimitWindow.WithLabelValues(host).Set(float64(count))
}

// RecordCacheHit increments cache hit counter.
func (mc *MetricsCollector) RecordCacheHit() {
	if mc == nil {
		return
	}
	mc.cacheHits.Inc()
}

// RecordCacheMiss increments cache miss counter.
func (mc *MetricsCollector) RecordCacheMiss() {
	if mc == nil {
		return
	}
	mc.cacheMisses.Inc()
}

// RecordCacheSize sets cache size gauge.
func (mc *MetricsCollector) RecordCacheSize(size int) {
	if mc == nil {
		return
	}
	mc.cacheSize.Set(float64(size))
}

// RecordError increments error counter by type.
func (mc *MetricsCollector) RecordError(errorType, method, host string) {
	if mc == nil {
		return
	}
	mc.errorsTotal.WithLabelValues(errorType, method, host).Inc()
}

// Registry exposes the registerer the collector was built on.
func (mc *MetricsCollector) Registry() prometheus.Registerer {
	if mc == nil {
		return nil
	}
	return mc.registry
}
