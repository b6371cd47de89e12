// Package metrics provides Prometheus metrics for the skillroute server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// namespace prefixes every metric name.
const namespace = "skillroute"

// Metrics owns one registry and the server collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	// requestsTotal labels: surface (api, mcp), method, code.
	requestsTotal *prometheus.CounterVec
	// requestDuration labels: surface, method.
	requestDuration *prometheus.HistogramVec
	// progressUpdates labels: status (pending, completed).
	progressUpdates *prometheus.CounterVec
	// gapMatch observes match percentages of completed analyses.
	gapMatch prometheus.Histogram
}

// New builds a Metrics instance with Go and process collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by surface, method, and status code",
			},
			[]string{"surface", "method", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"surface", "method"},
		),
		progressUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "progress_updates_total",
				Help:      "Total number of phase status updates by target status",
			},
			[]string{"status"},
		),
		gapMatch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gap_match_percentage",
			Help:      "Match percentage of completed skill-gap analyses",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal,
		m.requestDuration,
		m.progressUpdates,
		m.gapMatch,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Instrument wraps next and records request counts and durations under surface.
func (m *Metrics) Instrument(surface string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.requestsTotal.WithLabelValues(surface, r.Method, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(surface, r.Method).Observe(time.Since(start).Seconds())
	})
}

// RecordProgressUpdate counts one phase status update.
func (m *Metrics) RecordProgressUpdate(status string) {
	m.progressUpdates.WithLabelValues(status).Inc()
}

// ObserveGapMatch records the match percentage of one analysis.
func (m *Metrics) ObserveGapMatch(pct float64) {
	m.gapMatch.Observe(pct)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

// WriteHeader records the first status code.
func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

// Flush forwards streaming flushes for MCP responses.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
