package performance

import (
	"os"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// MemoryMonitor samples resident memory between chunk boundaries and triggers
// reclamation when usage crosses the high-water mark. It never runs
// asynchronously; the scheduling loop calls CheckBetweenChunks explicitly.
type MemoryMonitor struct {
	highWaterMark uint64 // bytes
	logger        *zap.Logger

	mu        sync.Mutex
	proc      *process.Process
	peakRSS   uint64
	overCount int
}

// NewMemoryMonitor creates a monitor with the high-water mark in megabytes.
func NewMemoryMonitor(highWaterMarkMB int, logger *zap.Logger) *MemoryMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		proc = nil
	}
	return &MemoryMonitor{
		highWaterMark: uint64(highWaterMarkMB) * 1024 * 1024,
		logger:        logger.With(zap.String("component", "memory_monitor")),
		proc:          proc,
	}
}

// CurrentRSS returns the resident set size in bytes, falling back to the Go
// heap when process stats are unavailable.
func (m *MemoryMonitor) CurrentRSS() uint64 {
	m.mu.Lock()
	proc := m.proc
	m.mu.Unlock()

	if proc != nil {
		if info, err := proc.MemoryInfo(); err == nil {
			return info.RSS
		}
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}

// CheckBetweenChunks samples memory and, if over the high-water mark, forces
// a reclamation pass. Returns a suggested chunk size: unchanged when healthy,
// halved (minimum 1) when memory stays over threshold after reclamation.
func (m *MemoryMonitor) CheckBetweenChunks(currentChunkSize int) int {
	rss := m.CurrentRSS()

	m.mu.Lock()
	if rss > m.peakRSS {
		m.peakRSS = rss
	}
	m.mu.Unlock()

	if m.highWaterMark == 0 || rss <= m.highWaterMark {
		return currentChunkSize
	}

	m.logger.Info("memory over high-water mark, forcing reclamation",
		zap.Uint64("rss_bytes", rss),
		zap.Uint64("high_water_mark", m.highWaterMark))

	runtime.GC()
	debug.FreeOSMemory()

	rss = m.CurrentRSS()
	if rss <= m.highWaterMark {
		return currentChunkSize
	}

	m.mu.Lock()
	m.overCount++
	m.mu.Unlock()

	next := currentChunkSize / 2
	if next < 1 {
		next = 1
	}
	m.logger.Warn("memory still over threshold after reclamation, shrinking chunk size",
		zap.Uint64("rss_bytes", rss),
		zap.Int("next_chunk_size", next))
	return next
}

// PeakRSS returns the highest observed resident size in bytes.
func (m *MemoryMonitor) PeakRSS() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peakRSS
}

// OverThresholdEvents returns how often reclamation failed to bring memory
// back under the high-water mark.
func (m *MemoryMonitor) OverThresholdEvents() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overCount
}
