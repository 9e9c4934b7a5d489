package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIMetrics carries the serving-path instruments behind a per-process
// registry. ObserveBranch makes it the retrieval engine's branch observer.
type APIMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	branchDuration *prometheus.HistogramVec
	retrievedHits  *prometheus.HistogramVec
	snapshotChunks prometheus.Gauge
}

func NewAPIMetrics(service string) *APIMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ask",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ask",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ask",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	branchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ask",
			Subsystem: "retrieval",
			Name:      "branch_duration_seconds",
			Help:      "Per-branch search duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "branch"},
	)
	retrievedHits := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ask",
			Subsystem: "retrieval",
			Name:      "fused_hits",
			Help:      "Distribution of fused hits returned per retrieve call.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "endpoint"},
	)
	snapshotChunks := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ask",
			Subsystem: "index",
			Name:      "snapshot_chunks",
			Help:      "Chunk count of the snapshot currently served.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		branchDuration,
		retrievedHits,
		snapshotChunks,
	)

	return &APIMetrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		branchDuration:  branchDuration,
		retrievedHits:   retrievedHits,
		snapshotChunks:  snapshotChunks,
	}
}

func (m *APIMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *APIMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (m *APIMetrics) ObserveBranch(branch string, seconds float64) {
	m.branchDuration.WithLabelValues("api", branch).Observe(seconds)
}

func (m *APIMetrics) RecordRetrieval(service, endpoint string, hitCount int) {
	m.retrievedHits.WithLabelValues(service, endpoint).Observe(float64(hitCount))
}

func (m *APIMetrics) SetSnapshotChunks(count int) {
	m.snapshotChunks.Set(float64(count))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
