package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestMemorySinkCounters(t *testing.T) {
	s := NewMemorySink()
	s.IncCounter(RecordsProcessed, 10)
	s.IncCounter(RecordsProcessed, 5)
	s.IncCounter(RecordsFailed, 1, "chunk-1")

	assert.Equal(t, 15.0, s.Counter(RecordsProcessed))
	assert.Equal(t, 1.0, s.Counter(RecordsFailed, "chunk-1"))
	assert.Equal(t, 0.0, s.Counter(RecordsFailed))
}

func TestMemorySinkGauges(t *testing.T) {
	s := NewMemorySink()
	s.SetGauge(CacheHitRate, 0.5)
	s.SetGauge(CacheHitRate, 0.75)
	assert.Equal(t, 0.75, s.Gauge(CacheHitRate))
}

func TestPrometheusSinkRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewPrometheusSink(reg)

	s.IncCounter(RecordsProcessed, 3, "success")
	s.SetGauge(CircuitState, 1, "convert")
	s.ObserveDuration(ChunkDuration, 50*time.Millisecond)

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.Len(t, families, 3)
}
