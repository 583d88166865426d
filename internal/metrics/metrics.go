// Package metrics provides Prometheus metrics for service interval
// predictions. A prediction run is a short-lived process, so the registry is
// private and can be flushed to a node-exporter textfile on exit.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "servicepredict"

// Metrics holds all Prometheus metrics of a prediction run.
type Metrics struct {
	Predictions      *prometheus.CounterVec // Predictions emitted, by variant and source
	Fallbacks        *prometheus.CounterVec // Fallbacks taken, by variant and failure kind
	InferenceLatency prometheus.Histogram   // Model evaluation latency
	ArtifactLoad     prometheus.Histogram   // Artifact read and decode latency
	ArtifactAge      prometheus.Gauge       // Age of the loaded artifact

	registry *prometheus.Registry
}

// New creates metrics on a fresh private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)
	m.registry = reg
	return m
}

// NewWithRegistry creates metrics registered with registerer (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Total number of predictions emitted",
		}, []string{"variant", "source"}),
		Fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Total number of times the fallback heuristic answered",
		}, []string{"variant", "kind"}),
		InferenceLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_latency_seconds",
			Help:      "Model evaluation latency in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),
		ArtifactLoad: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "artifact_load_seconds",
			Help:      "Artifact read and decode latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		ArtifactAge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "artifact_age_seconds",
			Help:      "Age of the loaded artifact in seconds",
		}),
	}
}

// Gatherer returns the private registry, or the default gatherer when the
// metrics were registered elsewhere.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m.registry != nil {
		return m.registry
	}
	return prometheus.DefaultGatherer
}

// WriteTextfile writes the current values in the text exposition format,
// atomically replacing path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Gatherer()); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
