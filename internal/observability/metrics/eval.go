package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kmoroz/askcorpus/internal/core/domain"
)

// EvalMetrics instruments evaluation runs. It satisfies the harness's
// observer interface.
type EvalMetrics struct {
	registry *prometheus.Registry

	itemTotal    *prometheus.CounterVec
	itemDuration *prometheus.HistogramVec
	aggregate    *prometheus.GaugeVec
}

func NewEvalMetrics(service string) *EvalMetrics {
	registry := prometheus.NewRegistry()

	itemTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ask",
			Subsystem: "eval",
			Name:      "items_total",
			Help:      "Total evaluated items by configuration and outcome.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"config", "outcome"},
	)
	itemDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ask",
			Subsystem: "eval",
			Name:      "item_duration_seconds",
			Help:      "Per-item retrieve latency in seconds.",
			Buckets:   prometheus.DefBuckets,
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"config"},
	)
	aggregate := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "ask",
			Subsystem: "eval",
			Name:      "aggregate_metric",
			Help:      "Latest aggregate metric value per configuration.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"config", "metric"},
	)

	registry.MustRegister(itemTotal, itemDuration, aggregate)

	return &EvalMetrics{
		registry:     registry,
		itemTotal:    itemTotal,
		itemDuration: itemDuration,
		aggregate:    aggregate,
	}
}

func (m *EvalMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *EvalMetrics) ObserveItem(configID string, outcome domain.Outcome, seconds float64) {
	m.itemTotal.WithLabelValues(configID, string(outcome)).Inc()
	m.itemDuration.WithLabelValues(configID).Observe(seconds)
}

func (m *EvalMetrics) SetAggregate(configID, metric string, value float64) {
	m.aggregate.WithLabelValues(configID, metric).Set(value)
}
