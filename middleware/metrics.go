package middleware

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const unmatchedPath = "unmatched"

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Current number of active HTTP requests",
		},
	)

	// Notes Metrics
	NotesOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notes_operations_total",
			Help: "Total number of note and tag operations",
		},
		[]string{"operation"}, // create, update, soft_delete, delete, attach_tag, ...
	)

	// Authentication Metrics
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"status", "type"}, // success/failure, login/refresh/access/reset
	)

	// Retention Metrics
	SweepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retention_sweeps_total",
			Help: "Retention sweeps by outcome",
		},
		[]string{"status"},
	)

	NotesPurgedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retention_notes_purged_total",
			Help: "Notes hard-deleted by the retention sweeper",
		},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type"}, // not_found, conflict, validation, internal, ...
	)
)

func routeLabel(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return unmatchedPath
}

// MetricsMiddleware records Prometheus metrics and, when recorder is non-nil,
// feeds the in-process request aggregator.
func MetricsMiddleware(recorder *RequestMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		ActiveRequests.Inc()
		defer ActiveRequests.Dec()

		c.Next()

		path := routeLabel(c)
		status := c.Writer.Status()
		elapsed := time.Since(start)

		HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(c.Writer.Size()))

		if recorder != nil {
			recorder.Record(path, elapsed, status >= 500)
		}
	}
}

// TrackNoteOperation increments the notes operation counter
func TrackNoteOperation(operation string) {
	NotesOperationsTotal.WithLabelValues(operation).Inc()
}

// TrackAuthAttempt records authentication attempts
func TrackAuthAttempt(status, authType string) {
	AuthAttempts.WithLabelValues(status, authType).Inc()
}

// TrackError increments the error counter by type
func TrackError(errorType string) {
	ErrorsTotal.WithLabelValues(errorType).Inc()
}

// TrackSweep records the outcome of a retention pass.
func TrackSweep(purged int, err error) {
	if err != nil {
		SweepsTotal.WithLabelValues("failure").Inc()
		return
	}
	SweepsTotal.WithLabelValues("success").Inc()
	NotesPurgedTotal.Add(float64(purged))
}

type pathStats struct {
	count int64
	total time.Duration
}

// RequestMetrics is a process-local request aggregator. Counts are advisory
// and reset on restart.
type RequestMetrics struct {
	mu     sync.Mutex
	total  int64
	errors int64
	time   time.Duration
	paths  map[string]*pathStats
}

func NewRequestMetrics() *RequestMetrics {
	return &RequestMetrics{paths: make(map[string]*pathStats)}
}

func (m *RequestMetrics) Record(path string, elapsed time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.time += elapsed
	if failed {
		m.errors++
	}
	ps, ok := m.paths[path]
	if !ok {
		ps = &pathStats{}
		m.paths[path] = ps
	}
	ps.count++
	ps.total += elapsed
}

func (m *RequestMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total, m.errors, m.time = 0, 0, 0
	m.paths = make(map[string]*pathStats)
}

type PathSnapshot struct {
	Path        string  `json:"path"`
	Count       int64   `json:"count"`
	AverageTime float64 `json:"average_time"`
}

type MetricsSnapshot struct {
	TotalRequests       int64          `json:"total_requests"`
	AverageResponseTime float64        `json:"average_response_time"`
	ErrorCount          int64          `json:"error_count"`
	MostUsedEndpoint    *string        `json:"most_used_endpoint"`
	Paths               []PathSnapshot `json:"paths"`
}

// Snapshot reports times in seconds. Paths are sorted by count, then name.
func (m *RequestMetrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		TotalRequests: m.total,
		ErrorCount:    m.errors,
		Paths:         make([]PathSnapshot, 0, len(m.paths)),
	}
	if m.total > 0 {
		snap.AverageResponseTime = m.time.Seconds() / float64(m.total)
	}
	for path, ps := range m.paths {
		snap.Paths = append(snap.Paths, PathSnapshot{
			Path:        path,
			Count:       ps.count,
			AverageTime: ps.total.Seconds() / float64(ps.count),
		})
	}
	sort.Slice(snap.Paths, func(i, j int) bool {
		if snap.Paths[i].Count != snap.Paths[j].Count {
			return snap.Paths[i].Count > snap.Paths[j].Count
		}
		return snap.Paths[i].Path < snap.Paths[j].Path
	})
	if len(snap.Paths) > 0 {
		top := snap.Paths[0].Path
		snap.MostUsedEndpoint = &top
	}
	return snap
}
