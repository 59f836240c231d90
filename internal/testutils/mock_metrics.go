package testutils

import (
	"maps"
	"sync"
	"time"

	"github.com/ahrav/go-rubric/internal/ports"
)

var _ ports.MetricsCollector = (*MockMetricsCollector)(nil)

// MetricSample is one call recorded by MockMetricsCollector.
type MetricSample struct {
	Kind   string
	Name   string
	Value  float64
	Labels map[string]string
}

// MockMetricsCollector records every metric call for later assertions.
// It is safe for concurrent use.
type MockMetricsCollector struct {
	mu      sync.Mutex
	samples []MetricSample
}

// NewMockMetricsCollector creates an empty collector.
func NewMockMetricsCollector() *MockMetricsCollector {
	return &MockMetricsCollector{}
}

func (m *MockMetricsCollector) record(kind, name string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, MetricSample{Kind: kind, Name: name, Value: value, Labels: maps.Clone(labels)})
}

// RecordLatency implements ports.MetricsCollector. The value is seconds.
func (m *MockMetricsCollector) RecordLatency(operation string, d time.Duration, labels map[string]string) {
	m.record("latency", operation, d.Seconds(), labels)
}

// RecordCounter implements ports.MetricsCollector.
func (m *MockMetricsCollector) RecordCounter(metric string, value float64, labels map[string]string) {
	m.record("counter", metric, value, labels)
}

// RecordGauge implements ports.MetricsCollector.
func (m *MockMetricsCollector) RecordGauge(metric string, value float64, labels map[string]string) {
	m.record("gauge", metric, value, labels)
}

// RecordHistogram implements ports.MetricsCollector.
func (m *MockMetricsCollector) RecordHistogram(metric string, value float64, labels map[string]string) {
	m.record("histogram", metric, value, labels)
}

// Samples returns the recorded calls with the given name, in call order.
func (m *MockMetricsCollector) Samples(name string) []MetricSample {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []MetricSample
	for _, s := range m.samples {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of recorded calls.
func (m *MockMetricsCollector) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.samples)
}
