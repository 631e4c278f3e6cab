package performance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryMonitorHealthyKeepsChunkSize(t *testing.T) {
	// high-water mark far above any realistic test RSS
	m := NewMemoryMonitor(1<<20, nil)
	assert.Equal(t, 5000, m.CheckBetweenChunks(5000))
	assert.Equal(t, 0, m.OverThresholdEvents())
	assert.Greater(t, m.PeakRSS(), uint64(0))
}

func TestMemoryMonitorShrinksChunkSizeWhenOver(t *testing.T) {
	// 1 MB mark is always exceeded by a running test process
	m := NewMemoryMonitor(1, nil)
	next := m.CheckBetweenChunks(5000)
	assert.Equal(t, 2500, next)
	assert.Equal(t, 1, m.OverThresholdEvents())

	assert.Equal(t, 1, m.CheckBetweenChunks(1))
}

func TestMemoryMonitorDisabled(t *testing.T) {
	m := NewMemoryMonitor(0, nil)
	assert.Equal(t, 5000, m.CheckBetweenChunks(5000))
}
