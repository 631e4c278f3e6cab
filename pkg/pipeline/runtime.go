// Package pipeline orchestrates the ETL run: it reads the input through the
// storage collaborator, splits and transforms chunks in parallel, writes the
// columnar outputs, and accounts for every input record in the returned
// summary.
package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/config"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/convert"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/metrics"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/performance"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/resilience"
)

// Breaker names, one per operation class.
const (
	BreakerConversion = "conversion"
	BreakerTransform  = "transform"
	BreakerIO         = "io"
)

// Runtime is the explicit shared-state value passed into every component
// call: cache, client pool, circuit breakers, memory monitor, retry policies
// and the metrics sink. Tests build a fresh Runtime for isolation; nothing
// here is ambient or global.
type Runtime struct {
	Cache    *performance.Cache
	ConvPool *performance.ClientPool[*convert.Converter]
	Memory   *performance.MemoryMonitor
	Policies resilience.PolicySet
	Sink     metrics.Sink

	breakers map[string]*resilience.CircuitBreaker

	successTotal atomic.Int64
	failureTotal atomic.Int64

	mu      sync.Mutex
	written map[int]string // chunk ID -> checksum of already-written payload
}

// NewRuntime builds the shared state for one pipeline instance.
func NewRuntime(cfg *config.PipelineConfig, sink metrics.Sink, logger *zap.Logger) *Runtime {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	convPool := performance.NewClientPool(performance.PoolConfig{
		Size:            cfg.Performance.PoolSize,
		CheckoutTimeout: cfg.Performance.PoolCheckoutTimeout,
		IdleTimeout:     cfg.Performance.PoolIdleTimeout,
	}, func(context.Context) (*convert.Converter, error) {
		return convert.NewConverter(cfg.Output, logger)
	}, nil)

	rt := &Runtime{
		Cache:    performance.NewCache(cfg.Performance.CacheSize, cfg.Performance.CacheTTL),
		ConvPool: convPool,
		Memory:   performance.NewMemoryMonitor(cfg.Performance.MemoryHighWaterMarkMB, logger),
		Policies: resilience.NewPolicySet(cfg.Resilience.MaxRetries, cfg.Resilience.RetryBaseDelay, cfg.Resilience.RetryMaxDelay),
		Sink:     sink,
		breakers: make(map[string]*resilience.CircuitBreaker),
		written:  make(map[int]string),
	}
	for _, name := range []string{BreakerConversion, BreakerTransform, BreakerIO} {
		rt.breakers[name] = resilience.NewCircuitBreaker(name,
			cfg.Resilience.FailureThreshold, cfg.Resilience.CooldownPeriod, logger)
	}
	return rt
}

// Breaker returns the circuit breaker for an operation class.
func (rt *Runtime) Breaker(name string) *resilience.CircuitBreaker {
	return rt.breakers[name]
}

// OpenCircuits lists the operation classes whose circuits are not closed.
func (rt *Runtime) OpenCircuits() []string {
	var open []string
	for _, name := range []string{BreakerConversion, BreakerTransform, BreakerIO} {
		if cb := rt.breakers[name]; cb.State() != resilience.StateClosed {
			open = append(open, name)
		}
	}
	return open
}

// CountOutcome records terminal record outcomes for the health signal.
func (rt *Runtime) CountOutcome(successes, failures int) {
	rt.successTotal.Add(int64(successes))
	rt.failureTotal.Add(int64(failures))
}

// SuccessRate returns successes / (successes + failures), 1 before any work.
func (rt *Runtime) SuccessRate() float64 {
	s := rt.successTotal.Load()
	f := rt.failureTotal.Load()
	if s+f == 0 {
		return 1
	}
	return float64(s) / float64(s+f)
}

// AlreadyWritten reports whether a chunk's payload with this checksum was
// already written in this run, making a retried write a no-op.
func (rt *Runtime) AlreadyWritten(chunkID int, checksum string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.written[chunkID] == checksum
}

// MarkWritten records a chunk's written checksum.
func (rt *Runtime) MarkWritten(chunkID int, checksum string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.written[chunkID] = checksum
}

// Close releases pooled resources.
func (rt *Runtime) Close() {
	rt.ConvPool.Close()
}

// ExecuteGuarded runs operation under the named breaker and the retry
// policies. Circuit-open rejections pass through without consuming retry
// budget.
func (rt *Runtime) ExecuteGuarded(ctx context.Context, breaker string, operation func(ctx context.Context) error) error {
	cb := rt.breakers[breaker]
	return resilience.ExecuteWithPolicy(ctx, rt.Policies, func(ctx context.Context) error {
		return cb.Execute(ctx, operation)
	})
}
