// Package metrics exposes the pipeline's structured counts through a
// backend-agnostic Sink. The Prometheus sink is the production default; the
// in-memory sink backs tests and health reporting.
package metrics

import (
	"sync"
	"time"
)

// Sink receives the pipeline's structured counts. Implementations must be
// safe for concurrent use.
type Sink interface {
	// IncCounter adds delta to a named counter.
	IncCounter(name string, delta float64, labels ...string)
	// SetGauge sets a named gauge.
	SetGauge(name string, value float64, labels ...string)
	// ObserveDuration records a latency observation.
	ObserveDuration(name string, d time.Duration, labels ...string)
}

// Metric names emitted by the pipeline.
const (
	RecordsProcessed  = "records_processed_total"
	RecordsFailed     = "records_failed_total"
	DuplicatesRemoved = "duplicates_removed_total"
	ChunksProcessed   = "chunks_processed_total"
	CircuitState      = "circuit_state"
	CacheHitRate      = "cache_hit_rate"
	ChunkDuration     = "chunk_duration"
	RunDuration       = "run_duration"
)

// NopSink discards everything.
type NopSink struct{}

func (NopSink) IncCounter(string, float64, ...string)            {}
func (NopSink) SetGauge(string, float64, ...string)              {}
func (NopSink) ObserveDuration(string, time.Duration, ...string) {}

// MemorySink accumulates values in memory for tests and health checks.
type MemorySink struct {
	mu       sync.Mutex
	counters map[string]float64
	gauges   map[string]float64
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		counters: make(map[string]float64),
		gauges:   make(map[string]float64),
	}
}

func (m *MemorySink) IncCounter(name string, delta float64, labels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[keyed(name, labels)] += delta
}

func (m *MemorySink) SetGauge(name string, value float64, labels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[keyed(name, labels)] = value
}

func (m *MemorySink) ObserveDuration(string, time.Duration, ...string) {}

// Counter returns the accumulated value of a counter.
func (m *MemorySink) Counter(name string, labels ...string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[keyed(name, labels)]
}

// Gauge returns the last value of a gauge.
func (m *MemorySink) Gauge(name string, labels ...string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gauges[keyed(name, labels)]
}

func keyed(name string, labels []string) string {
	for _, l := range labels {
		name += "|" + l
	}
	return name
}
