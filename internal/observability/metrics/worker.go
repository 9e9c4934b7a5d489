package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkerMetrics tracks snapshot rebuilds in the worker process.
type WorkerMetrics struct {
	registry *prometheus.Registry

	rebuildTotal    *prometheus.CounterVec
	rebuildDuration *prometheus.HistogramVec
	rebuildInFlight prometheus.Gauge
	snapshotChunks  prometheus.Gauge
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	rebuildTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ask",
			Subsystem: "worker",
			Name:      "snapshot_rebuild_total",
			Help:      "Total snapshot rebuilds by status.",
		},
		[]string{"service", "status"},
	)
	rebuildDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ask",
			Subsystem: "worker",
			Name:      "snapshot_rebuild_duration_seconds",
			Help:      "Snapshot rebuild duration in seconds by status.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"service", "status"},
	)
	rebuildInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ask",
			Subsystem: "worker",
			Name:      "snapshot_rebuild_in_flight",
			Help:      "Number of in-flight snapshot rebuilds.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	snapshotChunks := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ask",
			Subsystem: "worker",
			Name:      "snapshot_chunks",
			Help:      "Chunk count of the last successfully built snapshot.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(rebuildTotal, rebuildDuration, rebuildInFlight, snapshotChunks)

	return &WorkerMetrics{
		registry:        registry,
		rebuildTotal:    rebuildTotal,
		rebuildDuration: rebuildDuration,
		rebuildInFlight: rebuildInFlight,
		snapshotChunks:  snapshotChunks,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRebuild() {
	m.rebuildInFlight.Inc()
}

func (m *WorkerMetrics) FinishRebuild(service string, duration time.Duration, chunks int, err error) {
	m.rebuildInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.rebuildTotal.WithLabelValues(service, status).Inc()
	m.rebuildDuration.WithLabelValues(service, status).Observe(duration.Seconds())
	if err == nil {
		m.snapshotChunks.Set(float64(chunks))
	}
}
