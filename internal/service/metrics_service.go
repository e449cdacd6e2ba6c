package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/course-batch-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic, caching and batch decisions.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	cacheLatency       prometheus.Observer
	cacheHitRatio      prometheus.Gauge
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	assignmentOutcomes *prometheus.CounterVec
	waitingDecisions   *prometheus.CounterVec
	lockWait           prometheus.Observer
	delayedStudents    prometheus.Gauge
	notifications      *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	assignmentOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_assignments_total",
		Help: "Assignment attempts by outcome",
	}, []string{"outcome"})

	waitingDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_waiting_decisions_total",
		Help: "Waiting-list approvals and disapprovals by result code",
	}, []string{"decision", "result"})

	lockWait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "batch_lock_wait_seconds",
		Help:    "Time spent waiting for the per-batch lock",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	delayedStudents := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "batch_delayed_students",
		Help: "Seated students whose enrollment end date has passed, as of the last sweep",
	})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Notifications delivered by channel and result",
	}, []string{"channel", "result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheHitRatio, cacheHits, cacheMisses,
		assignmentOutcomes, waitingDecisions, lockWait, delayedStudents, notifications, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheHitRatio:      cacheHitRatio,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		assignmentOutcomes: assignmentOutcomes,
		waitingDecisions:   waitingDecisions,
		lockWait:           lockWait,
		delayedStudents:    delayedStudents,
		notifications:      notifications,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
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

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// RecordAssignment counts an assignment attempt by outcome ("error" for failures).
func (m *MetricsService) RecordAssignment(outcome models.AssignmentOutcome, err error) {
	if m == nil {
		return
	}
	label := string(outcome)
	if err != nil {
		label = "error"
	}
	m.assignmentOutcomes.WithLabelValues(label).Inc()
}

// RecordWaitingDecision counts approve/disapprove calls by result code ("OK" on success).
func (m *MetricsService) RecordWaitingDecision(decision string, code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = "OK"
	}
	m.waitingDecisions.WithLabelValues(decision, code).Inc()
}

// ObserveLockWait records how long a caller waited for a batch lock.
func (m *MetricsService) ObserveLockWait(duration time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(duration.Seconds())
}

// SetDelayedStudents publishes the latest delayed-seat count.
func (m *MetricsService) SetDelayedStudents(count int) {
	if m == nil {
		return
	}
	m.delayedStudents.Set(float64(count))
}

// RecordNotification counts a delivery attempt per channel.
func (m *MetricsService) RecordNotification(channel string, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.notifications.WithLabelValues(channel, result).Inc()
}
