package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/school-admin-api/internal/dto"
)

const metricsNamespace = "school_admin"

// tally is a count plus accumulated nanoseconds, read back for dashboard averages.
type tally struct {
	count atomic.Uint64
	nanos atomic.Uint64
}

func (t *tally) add(d time.Duration) {
	t.count.Add(1)
	if d > 0 {
		t.nanos.Add(uint64(d))
	}
}

func (t *tally) averageMs() float64 {
	n := t.count.Load()
	if n == 0 {
		return 0
	}
	return float64(t.nanos.Load()) / float64(n) / float64(time.Millisecond)
}

// MetricsService owns a private Prometheus registry for the API and keeps
// in-process tallies so the admin dashboard can render without scraping.
// All methods are safe on a nil receiver.
type MetricsService struct {
	handler http.Handler

	httpLatency *prometheus.HistogramVec
	httpTotal   *prometheus.CounterVec
	cacheReads  *prometheus.HistogramVec
	cacheWrites prometheus.Histogram
	cacheRatio  prometheus.Gauge
	dbLatency   *prometheus.HistogramVec
	conflicts   *prometheus.CounterVec

	requests    tally
	queries     tally
	hits        atomic.Uint64
	misses      atomic.Uint64
	clashes     atomic.Uint64
	clockSource func() time.Time
}

// NewMetricsService registers the API collectors plus the Go runtime and process collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: metricsNamespace}),
	)
	factory := promauto.With(registry)

	return &MetricsService{
		handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of API requests by route template.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
		httpTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "API requests by route template and status code.",
		}, []string{"method", "route", "status"}),
		cacheReads: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "read_duration_seconds",
			Help:      "Redis lookups split by outcome.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05, 0.1},
		}, []string{"outcome"}),
		cacheWrites: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "write_duration_seconds",
			Help:      "Redis snapshot writes.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05, 0.1},
		}),
		cacheRatio: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "hit_ratio",
			Help:      "Share of cache lookups answered from Redis since start.",
		}),
		dbLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Latency of instrumented queries by label.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
		conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "schedule",
			Name:      "conflicts_total",
			Help:      "Class session writes rejected because a room or teacher was already booked.",
		}, []string{"dimension"}),
		clockSource: time.Now,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "metrics disabled", http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one finished request. route should be the
// matched template, not the raw path, to keep label cardinality bounded.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpLatency.WithLabelValues(method, route, code).Observe(duration.Seconds())
	m.httpTotal.WithLabelValues(method, route, code).Inc()
	m.requests.add(duration)
}

// RecordCacheOperation records a lookup and refreshes the hit ratio gauge.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
		m.hits.Add(1)
	} else {
		m.misses.Add(1)
	}
	m.cacheReads.WithLabelValues(outcome).Observe(duration.Seconds())
	m.cacheRatio.Set(m.hitRatio())
}

// ObserveCacheWrite records a snapshot write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrites.Observe(duration.Seconds())
}

// ObserveDBQuery records a labelled query.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbLatency.WithLabelValues(label).Observe(duration.Seconds())
	m.queries.add(duration)
}

// RecordScheduleConflict counts a rejected booking by the dimension that clashed.
func (m *MetricsService) RecordScheduleConflict(dimension string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(dimension).Inc()
	m.clashes.Add(1)
}

func (m *MetricsService) hitRatio() float64 {
	hits := m.hits.Load()
	total := hits + m.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Snapshot returns the in-process tallies for the admin dashboard.
func (m *MetricsService) Snapshot() dto.SystemMetrics {
	if m == nil {
		return dto.SystemMetrics{}
	}
	return dto.SystemMetrics{
		CacheHitRatio:            m.hitRatio(),
		CacheHits:                m.hits.Load(),
		CacheMisses:              m.misses.Load(),
		RequestsTotal:            m.requests.count.Load(),
		AverageRequestDurationMs: m.requests.averageMs(),
		DBQueryCount:             m.queries.count.Load(),
		AverageDBQueryDurationMs: m.queries.averageMs(),
		ScheduleConflicts:        m.clashes.Load(),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              m.clockSource().UTC(),
	}
}
