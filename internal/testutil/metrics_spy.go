package testutil

import (
	"strings"
	"sync"

	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/prometheus"
)

// CounterSpy implements prometheus.CounterVec and records increments per
// label combination, so tests can assert on instrumentation.
type CounterSpy struct {
	mu     sync.Mutex
	counts map[string]float64
}

// NewCounterSpy creates an empty CounterSpy.
func NewCounterSpy() *CounterSpy {
	return &CounterSpy{counts: make(map[string]float64)}
}

// WithLabelValues returns a counter bound to the label combination.
func (s *CounterSpy) WithLabelValues(lvs ...string) prometheus.Counter {
	return &spyCounter{spy: s, key: labelKey(lvs)}
}

// Value returns the accumulated count for the label combination.
func (s *CounterSpy) Value(lvs ...string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[labelKey(lvs)]
}

type spyCounter struct {
	spy *CounterSpy
	key string
}

func (c *spyCounter) Inc() { c.Add(1) }

func (c *spyCounter) Add(delta float64) {
	c.spy.mu.Lock()
	defer c.spy.mu.Unlock()
	c.spy.counts[c.key] += delta
}

// HistogramSpy implements prometheus.HistogramVec and records observations
// per label combination.
type HistogramSpy struct {
	mu      sync.Mutex
	samples map[string][]float64
}

// NewHistogramSpy creates an empty HistogramSpy.
func NewHistogramSpy() *HistogramSpy {
	return &HistogramSpy{samples: make(map[string][]float64)}
}

// WithLabelValues returns a histogram bound to the label combination.
func (s *HistogramSpy) WithLabelValues(lvs ...string) prometheus.Histogram {
	return &spyHistogram{spy: s, key: labelKey(lvs)}
}

// Count returns the number of observations for the label combination.
func (s *HistogramSpy) Count(lvs ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples[labelKey(lvs)])
}

type spyHistogram struct {
	spy *HistogramSpy
	key string
}

func (h *spyHistogram) Observe(value float64) {
	h.spy.mu.Lock()
	defer h.spy.mu.Unlock()
	h.spy.samples[h.key] = append(h.spy.samples[h.key], value)
}

func labelKey(lvs []string) string {
	return strings.Join(lvs, "|")
}
