package service

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/learnhub/learnhub-api/internal/models"
)

// MetricsService owns the Prometheus collectors and keeps cheap atomic
// tallies so the analytics endpoints can snapshot them without
// scraping the registry.
type MetricsService struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheOps        *prometheus.CounterVec
	dbQueryDuration prometheus.Histogram

	requestCount    atomic.Uint64
	requestNanos    atomic.Uint64
	cacheHitCount   atomic.Uint64
	cacheMissCount  atomic.Uint64
	dbQueryCount    atomic.Uint64
	dbQueryNanosSum atomic.Uint64
}

// NewMetricsService creates the service and registers its collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	s := &MetricsService{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "learnhub",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "learnhub",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "learnhub",
			Name:      "cache_operations_total",
			Help:      "Cache lookups by outcome.",
		}, []string{"outcome"}),
		dbQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "learnhub",
			Name:      "db_query_duration_seconds",
			Help:      "Database query latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(s.requestsTotal, s.requestDuration, s.cacheOps, s.dbQueryDuration)
	return s
}

// Registry exposes the registry for the /metrics handler.
func (s *MetricsService) Registry() *prometheus.Registry {
	return s.registry
}

// ObserveRequest records one handled HTTP request.
func (s *MetricsService) ObserveRequest(method, route, status string, duration time.Duration) {
	s.requestsTotal.WithLabelValues(method, route, status).Inc()
	s.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	s.requestCount.Add(1)
	s.requestNanos.Add(uint64(duration.Nanoseconds()))
}

// ObserveCacheHit records a cache hit.
func (s *MetricsService) ObserveCacheHit() {
	s.cacheOps.WithLabelValues("hit").Inc()
	s.cacheHitCount.Add(1)
}

// ObserveCacheMiss records a cache miss.
func (s *MetricsService) ObserveCacheMiss() {
	s.cacheOps.WithLabelValues("miss").Inc()
	s.cacheMissCount.Add(1)
}

// ObserveDBQuery records one database query.
func (s *MetricsService) ObserveDBQuery(duration time.Duration) {
	s.dbQueryDuration.Observe(duration.Seconds())
	s.dbQueryCount.Add(1)
	s.dbQueryNanosSum.Add(uint64(duration.Nanoseconds()))
}

// Snapshot returns the process instrumentation rollup.
func (s *MetricsService) Snapshot() models.AnalyticsSystemMetrics {
	hits := s.cacheHitCount.Load()
	misses := s.cacheMissCount.Load()
	requests := s.requestCount.Load()
	queries := s.dbQueryCount.Load()

	snapshot := models.AnalyticsSystemMetrics{
		CacheHits:     hits,
		CacheMisses:   misses,
		RequestsTotal: requests,
		DBQueryCount:  queries,
		Goroutines:    runtime.NumGoroutine(),
		GeneratedAt:   time.Now().UTC(),
	}
	if hits+misses > 0 {
		snapshot.CacheHitRatio = float64(hits) / float64(hits+misses)
	}
	if requests > 0 {
		snapshot.AverageRequestDurationMs = float64(s.requestNanos.Load()) / float64(requests) / 1e6
	}
	if queries > 0 {
		snapshot.AverageDBQueryDurationMs = float64(s.dbQueryNanosSum.Load()) / float64(queries) / 1e6
	}
	return snapshot
}
