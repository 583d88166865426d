package metrics

// MetricsWrapper adapts Metrics to the predictor's metrics interface.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) PredictionsInc(variant, source string) {
	w.m.Predictions.WithLabelValues(variant, source).Inc()
}

func (w *MetricsWrapper) FallbacksInc(variant, kind string) {
	w.m.Fallbacks.WithLabelValues(variant, kind).Inc()
}

func (w *MetricsWrapper) InferenceLatencyObserve(v float64) {
	w.m.InferenceLatency.Observe(v)
}

func (w *MetricsWrapper) ArtifactLoadObserve(v float64) {
	w.m.ArtifactLoad.Observe(v)
}

func (w *MetricsWrapper) ArtifactAgeSet(v float64) {
	w.m.ArtifactAge.Set(v)
}
