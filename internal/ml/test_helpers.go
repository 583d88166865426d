package ml

import "sync"

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu            sync.Mutex
	predictions   map[string]int
	fallbacks     map[string]int
	latencySum    float64
	latencyCount  int
	loadCount     int
	artifactAge   float64
	artifactAgeOK bool
}

func (m *MockMetrics) PredictionsInc(variant, source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.predictions == nil {
		m.predictions = make(map[string]int)
	}
	m.predictions[variant+"/"+source]++
}

func (m *MockMetrics) FallbacksInc(variant, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fallbacks == nil {
		m.fallbacks = make(map[string]int)
	}
	m.fallbacks[variant+"/"+kind]++
}

func (m *MockMetrics) InferenceLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
	m.latencyCount++
}

func (m *MockMetrics) ArtifactLoadObserve(float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCount++
}

func (m *MockMetrics) ArtifactAgeSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifactAge = v
	m.artifactAgeOK = true
}

// Predictions returns the count recorded for variant and source.
func (m *MockMetrics) Predictions(variant, source string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.predictions[variant+"/"+source]
}

// Fallbacks returns the count recorded for variant and failure kind.
func (m *MockMetrics) Fallbacks(variant, kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fallbacks[variant+"/"+kind]
}
