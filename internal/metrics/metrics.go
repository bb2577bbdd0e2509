package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector either binary exports. A nil *Metrics is
// valid and records nothing, which keeps tests free of registry setup.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	attendanceRecorded *prometheus.CounterVec
	wakeupsSent        *prometheus.CounterVec

	pendingRecords prometheus.Gauge
	online         prometheus.Gauge
	syncPasses     *prometheus.CounterVec
	syncRecords    *prometheus.CounterVec
	syncDuration   prometheus.Histogram
	checkins       *prometheus.CounterVec
}

// New creates a registry with Go/process collectors and the app collectors.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		attendanceRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "attendance_recorded_total",
			Help: "Record-attendance calls by result (created, duplicate, rejected).",
		}, []string{"result"}),
		wakeupsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "agent_wakeups_total",
			Help: "SYNC_ATTENDANCE messages pushed to stations by trigger.",
		}, []string{"trigger"}),
		pendingRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "pending_records",
			Help: "Check-ins waiting in the local pending store.",
		}),
		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "online",
			Help: "1 while the station considers itself online.",
		}),
		syncPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sync_passes_total",
			Help: "Sync passes by outcome (complete, error).",
		}, []string{"outcome"}),
		syncRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sync_records_total",
			Help: "Pending records attempted during sync passes by result.",
		}, []string{"result"}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "sync_pass_duration_seconds",
			Help:    "Duration of sync passes.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		checkins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "checkins_total",
			Help: "Scanned codes by outcome (sent, queued, invalid, expired, failed).",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.httpRequests, m.httpDuration,
		m.attendanceRecorded, m.wakeupsSent,
		m.pendingRecords, m.online,
		m.syncPasses, m.syncRecords, m.syncDuration, m.checkins,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) AttendanceRecorded(result string) {
	if m == nil {
		return
	}
	m.attendanceRecorded.WithLabelValues(result).Inc()
}

func (m *Metrics) WakeupSent(trigger string, n int) {
	if m == nil {
		return
	}
	m.wakeupsSent.WithLabelValues(trigger).Add(float64(n))
}

func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pendingRecords.Set(float64(n))
}

func (m *Metrics) SetOnline(online bool) {
	if m == nil {
		return
	}
	if online {
		m.online.Set(1)
	} else {
		m.online.Set(0)
	}
}

func (m *Metrics) SyncPass(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.syncPasses.WithLabelValues(outcome).Inc()
	m.syncDuration.Observe(d.Seconds())
}

func (m *Metrics) SyncRecord(result string) {
	if m == nil {
		return
	}
	m.syncRecords.WithLabelValues(result).Inc()
}

func (m *Metrics) CheckIn(outcome string) {
	if m == nil {
		return
	}
	m.checkins.WithLabelValues(outcome).Inc()
}
