package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dispatch results
const (
	DispatchHit  = "hit"
	DispatchMiss = "miss"
)

// Message directions
const (
	DirectionDown = "down" // background → foreground
	DirectionUp   = "up"   // foreground → background
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Root metrics
	RootsActive prometheus.Gauge
	RootsTotal  prometheus.Counter

	// Commit and snapshot metrics
	Commits       prometheus.Counter
	SnapshotBytes prometheus.Histogram
	CommitLatency prometheus.Histogram

	// Dispatch metrics
	Dispatches        *prometheus.CounterVec
	MalformedMessages prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	snapshot MetricsSnapshot
	mu       sync.RWMutex
}

// MetricsSnapshot holds current values for the JSON API
type MetricsSnapshot struct {
	ActiveRoots       int64 `json:"active_roots"`
	TotalCommits      int64 `json:"total_commits"`
	DispatchHits      int64 `json:"dispatch_hits"`
	DispatchMisses    int64 `json:"dispatch_misses"`
	MalformedMessages int64 `json:"malformed_messages"`
	ActiveConnections int64 `json:"active_connections"`
}

// NewMetrics creates a collector backed by its own registry, so several
// collectors can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workerview_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workerview_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		RootsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "workerview_roots_active",
				Help: "Number of live background roots",
			},
		),
		RootsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "workerview_roots_total",
				Help: "Total number of background roots started",
			},
		),

		Commits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "workerview_commits_total",
				Help: "Total number of completed reconciliation passes",
			},
		),
		SnapshotBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "workerview_snapshot_bytes",
				Help:    "Encoded snapshot size in bytes",
				Buckets: prometheus.ExponentialBuckets(64, 4, 8),
			},
		),
		CommitLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "workerview_snapshot_encode_seconds",
				Help:    "Time to snapshot and encode the tree on commit",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
			},
		),

		Dispatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workerview_dispatches_total",
				Help: "Click dispatches by result",
			},
			[]string{"result"},
		),
		MalformedMessages: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "workerview_malformed_messages_total",
				Help: "Inbound messages rejected by the protocol decoder",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "workerview_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workerview_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction"},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "workerview_uptime_seconds",
				Help: "Process uptime in seconds",
			},
		),
	}

	return m
}

// Handler exposes the collector's registry in Prometheus text format
func (m *Metrics) Handler() http.Handler {
	inner := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.UpdateUptime()
		inner.ServeHTTP(w, r)
	})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordCommit records one commit and the encoded snapshot it produced
func (m *Metrics) RecordCommit(snapshotBytes int, encode time.Duration) {
	m.Commits.Inc()
	m.SnapshotBytes.Observe(float64(snapshotBytes))
	m.CommitLatency.Observe(encode.Seconds())

	m.mu.Lock()
	m.snapshot.TotalCommits++
	m.mu.Unlock()
}

// RecordDispatch records the outcome of a click dispatch
func (m *Metrics) RecordDispatch(hit bool) {
	result := DispatchMiss
	if hit {
		result = DispatchHit
	}
	m.Dispatches.WithLabelValues(result).Inc()

	m.mu.Lock()
	if hit {
		m.snapshot.DispatchHits++
	} else {
		m.snapshot.DispatchMisses++
	}
	m.mu.Unlock()
}

// RecordMalformed records a rejected inbound message
func (m *Metrics) RecordMalformed() {
	m.MalformedMessages.Inc()
	m.mu.Lock()
	m.snapshot.MalformedMessages++
	m.mu.Unlock()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction string) {
	m.WSMessages.WithLabelValues(direction).Inc()
}

// SetRootsActive sets the number of live roots
func (m *Metrics) SetRootsActive(count int) {
	m.RootsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveRoots = int64(count)
	m.mu.Unlock()
}

// IncRootsTotal increments the started roots counter
func (m *Metrics) IncRootsTotal() {
	m.RootsTotal.Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns the current JSON-friendly values
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// UpdateUptime refreshes the uptime gauge
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}
