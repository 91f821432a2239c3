package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the planning and
// commit pipelines plus the HTTP surface.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	planRuns        *prometheus.CounterVec
	ledgerCreated   prometheus.Counter
	ledgerSkipped   prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	planRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plan_regenerations_total",
		Help: "Total plan regeneration runs by outcome",
	}, []string{"outcome"})

	ledgerCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_records_created_total",
		Help: "Total tuition ledger records created by commits",
	})

	ledgerSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_records_skipped_total",
		Help: "Total tuition ledger writes skipped as already committed",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_hits_total",
		Help: "Total catalog cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_misses_total",
		Help: "Total catalog cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, planRuns, ledgerCreated, ledgerSkipped, cacheHits, cacheMisses, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		planRuns:        planRuns,
		ledgerCreated:   ledgerCreated,
		ledgerSkipped:   ledgerSkipped,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordPlanRun counts a regeneration run; stale runs are those whose output
// was discarded in favour of a newer stamp.
func (m *MetricsService) RecordPlanRun(stale bool) {
	if m == nil {
		return
	}
	outcome := "published"
	if stale {
		outcome = "stale_discard"
	}
	m.planRuns.WithLabelValues(outcome).Inc()
}

// RecordLedgerCommit accumulates commit outcome counts.
func (m *MetricsService) RecordLedgerCommit(created, skipped int) {
	if m == nil {
		return
	}
	m.ledgerCreated.Add(float64(created))
	m.ledgerSkipped.Add(float64(skipped))
}

// RecordCacheLookup counts catalog cache hits and misses.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}
