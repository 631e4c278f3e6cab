// Package config provides the unified configuration surface for the flight
// ETL core. A single PipelineConfig structure covers chunking, output,
// performance, resilience, transformation and observability settings, with
// production-ready defaults and early validation.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// PipelineConfig is the single configuration structure the pipeline and all
// of its components consume.
type PipelineConfig struct {
	// Name identifies the pipeline instance
	Name string `yaml:"name" json:"name"`

	Chunking      ChunkingConfig      `yaml:"chunking" json:"chunking"`
	Output        OutputConfig        `yaml:"output" json:"output"`
	Performance   PerformanceConfig   `yaml:"performance" json:"performance"`
	Resilience    ResilienceConfig    `yaml:"resilience" json:"resilience"`
	Transform     TransformConfig     `yaml:"transform" json:"transform"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// ChunkingConfig controls input splitting.
type ChunkingConfig struct {
	// ChunkSize is the maximum number of records per chunk
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`
	// SchemaSampleSize is how many leading records feed schema inference
	SchemaSampleSize int `yaml:"schema_sample_size" json:"schema_sample_size"`
}

// OutputConfig controls the columnar writer.
type OutputConfig struct {
	// Format selects the output container: parquet or avro
	Format string `yaml:"format" json:"format"`
	// CompressionAlgorithm selects the payload compression
	// (none, gzip, snappy, lz4, zstd, s2)
	CompressionAlgorithm string `yaml:"compression_algorithm" json:"compression_algorithm"`
	// CompressionLevel trades speed against ratio (1-9)
	CompressionLevel int `yaml:"compression_level" json:"compression_level"`
	// DictionaryThreshold is the max distinct-value ratio for a string
	// column to be dictionary-encoded
	DictionaryThreshold float64 `yaml:"dictionary_threshold" json:"dictionary_threshold"`
	// Prefix is prepended to every output object reference
	Prefix string `yaml:"prefix" json:"prefix"`
}

// PerformanceConfig controls the optimization substrate.
type PerformanceConfig struct {
	// MaxWorkers bounds the parallel executor
	MaxWorkers int `yaml:"max_workers" json:"max_workers"`
	// CacheSize bounds the computation cache (entries)
	CacheSize int `yaml:"cache_size" json:"cache_size"`
	// CacheTTL expires cache entries
	CacheTTL time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
	// PoolSize bounds the reusable I/O client pool
	PoolSize int `yaml:"pool_size" json:"pool_size"`
	// PoolCheckoutTimeout bounds how long a checkout may block
	PoolCheckoutTimeout time.Duration `yaml:"pool_checkout_timeout" json:"pool_checkout_timeout"`
	// PoolIdleTimeout evicts idle pooled handles
	PoolIdleTimeout time.Duration `yaml:"pool_idle_timeout" json:"pool_idle_timeout"`
	// MemoryHighWaterMarkMB triggers reclamation between chunks
	MemoryHighWaterMarkMB int `yaml:"memory_high_water_mark_mb" json:"memory_high_water_mark_mb"`
	// ExecutionBudget is the wall-clock budget for one run (0 = unlimited)
	ExecutionBudget time.Duration `yaml:"execution_budget" json:"execution_budget"`
}

// ResilienceConfig controls retries, circuit breaking and dead-lettering.
type ResilienceConfig struct {
	// MaxRetries caps retry attempts for retryable kinds
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
	// RetryBaseDelay is the initial backoff delay
	RetryBaseDelay time.Duration `yaml:"retry_base_delay" json:"retry_base_delay"`
	// RetryMaxDelay caps the backoff delay
	RetryMaxDelay time.Duration `yaml:"retry_max_delay" json:"retry_max_delay"`
	// FailureThreshold opens a circuit after this many consecutive failures
	FailureThreshold int `yaml:"failure_threshold" json:"failure_threshold"`
	// CooldownPeriod is how long an open circuit waits before half-open
	CooldownPeriod time.Duration `yaml:"cooldown_period" json:"cooldown_period"`
	// DeadLetterPrefix namespaces dead-letter entries in the store
	DeadLetterPrefix string `yaml:"dead_letter_prefix" json:"dead_letter_prefix"`
}

// TransformConfig controls the transformation pipeline.
type TransformConfig struct {
	// DedupStrategy is one of first, last, best-quality
	DedupStrategy string `yaml:"dedup_strategy" json:"dedup_strategy"`
	// ImputationGapWindow is the max gap (consecutive missing points)
	// filled by linear interpolation
	ImputationGapWindow int `yaml:"imputation_gap_window" json:"imputation_gap_window"`
	// QualityThreshold drops records scoring below it after imputation
	QualityThreshold int `yaml:"quality_threshold" json:"quality_threshold"`
	// CruiseThresholdFt is the CLIMB ceiling for phase classification
	CruiseThresholdFt float64 `yaml:"cruise_threshold_ft" json:"cruise_threshold_ft"`
	// EnableDedup toggles duplicate resolution
	EnableDedup bool `yaml:"enable_dedup" json:"enable_dedup"`
	// EnableImputation toggles missing-value imputation
	EnableImputation bool `yaml:"enable_imputation" json:"enable_imputation"`
	// EnableEnrichment toggles calculated fields
	EnableEnrichment bool `yaml:"enable_enrichment" json:"enable_enrichment"`
	// EnableClassification toggles phase/category classification
	EnableClassification bool `yaml:"enable_classification" json:"enable_classification"`
}

// ObservabilityConfig controls logging, metrics and tracing.
type ObservabilityConfig struct {
	LogLevel      string  `yaml:"log_level" json:"log_level"`
	EnableMetrics bool    `yaml:"enable_metrics" json:"enable_metrics"`
	EnableTracing bool    `yaml:"enable_tracing" json:"enable_tracing"`
	TraceSampling float64 `yaml:"trace_sampling" json:"trace_sampling"`
}

// Default returns a PipelineConfig with production-ready defaults.
func Default() *PipelineConfig {
	return &PipelineConfig{
		Name: "flight-etl",
		Chunking: ChunkingConfig{
			ChunkSize:        5000,
			SchemaSampleSize: 100,
		},
		Output: OutputConfig{
			Format:               "parquet",
			CompressionAlgorithm: "snappy",
			CompressionLevel:     5,
			DictionaryThreshold:  0.1,
			Prefix:               "processed",
		},
		Performance: PerformanceConfig{
			MaxWorkers:            runtime.NumCPU(),
			CacheSize:             1024,
			CacheTTL:              5 * time.Minute,
			PoolSize:              8,
			PoolCheckoutTimeout:   5 * time.Second,
			PoolIdleTimeout:       2 * time.Minute,
			MemoryHighWaterMarkMB: 1024,
			ExecutionBudget:       0,
		},
		Resilience: ResilienceConfig{
			MaxRetries:       3,
			RetryBaseDelay:   200 * time.Millisecond,
			RetryMaxDelay:    30 * time.Second,
			FailureThreshold: 5,
			CooldownPeriod:   30 * time.Second,
			DeadLetterPrefix: "dead-letter",
		},
		Transform: TransformConfig{
			DedupStrategy:        "best-quality",
			ImputationGapWindow:  5,
			QualityThreshold:     0,
			CruiseThresholdFt:    10000,
			EnableDedup:          true,
			EnableImputation:     true,
			EnableEnrichment:     true,
			EnableClassification: true,
		},
		Observability: ObservabilityConfig{
			LogLevel:      "info",
			EnableMetrics: true,
			EnableTracing: false,
			TraceSampling: 0.1,
		},
	}
}

// Validate checks the configuration for correctness.
func (c *PipelineConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive")
	}
	if c.Chunking.SchemaSampleSize <= 0 {
		return fmt.Errorf("schema_sample_size must be positive")
	}
	switch c.Output.Format {
	case "parquet", "avro":
	default:
		return fmt.Errorf("unsupported output format: %s", c.Output.Format)
	}
	if c.Performance.MaxWorkers <= 0 {
		return fmt.Errorf("max_workers must be positive")
	}
	if c.Performance.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be positive")
	}
	if c.Resilience.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	if c.Resilience.FailureThreshold <= 0 {
		return fmt.Errorf("failure_threshold must be positive")
	}
	switch c.Transform.DedupStrategy {
	case "first", "last", "best-quality":
	default:
		return fmt.Errorf("unsupported dedup_strategy: %s", c.Transform.DedupStrategy)
	}
	if c.Transform.ImputationGapWindow <= 0 {
		return fmt.Errorf("imputation_gap_window must be positive")
	}
	return nil
}

// GetWorkers returns the worker count, ensuring at least one.
func (p *PerformanceConfig) GetWorkers() int {
	if p.MaxWorkers <= 0 {
		return runtime.NumCPU()
	}
	return p.MaxWorkers
}
