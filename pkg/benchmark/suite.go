package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/config"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/metrics"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/pipeline"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/storage"
)

// BaselineScenario is the reference every other scenario is compared to.
const BaselineScenario = "baseline"

// Scenario names a pipeline configuration variant.
type Scenario struct {
	Name      string
	Configure func(*config.PipelineConfig)
}

// Scenarios returns the fixed scenario set, baseline first.
func Scenarios() []Scenario {
	return []Scenario{
		{BaselineScenario, func(c *config.PipelineConfig) {
			c.Performance.MaxWorkers = 1
			c.Performance.PoolSize = 1
			c.Performance.CacheSize = 1
			c.Output.CompressionAlgorithm = "none"
		}},
		{"optimized-conversion", func(c *config.PipelineConfig) {
			c.Performance.MaxWorkers = 1
			c.Output.CompressionAlgorithm = "snappy"
		}},
		{"optimized-transform", func(c *config.PipelineConfig) {
			c.Performance.MaxWorkers = runtime.NumCPU()
			c.Performance.PoolSize = 1
			c.Output.CompressionAlgorithm = "none"
		}},
		{"full-optimization", func(c *config.PipelineConfig) {
			c.Performance.MaxWorkers = runtime.NumCPU()
			c.Output.CompressionAlgorithm = "snappy"
		}},
		{"with-resilience", func(c *config.PipelineConfig) {
			c.Performance.MaxWorkers = runtime.NumCPU()
			c.Output.CompressionAlgorithm = "snappy"
			c.Resilience.MaxRetries = 3
		}},
	}
}

// SuiteConfig controls a suite run.
type SuiteConfig struct {
	DatasetSize    int
	DuplicateRatio float64
	MalformedRatio float64
	Iterations     int
	Seed           int64
}

// Comparison is the percent delta of one scenario against the baseline.
// Positive DurationPct/MemoryPct mean worse than baseline; positive
// ThroughputPct means better.
type Comparison struct {
	ScenarioName  string  `json:"scenario_name"`
	DurationPct   float64 `json:"duration_delta_pct"`
	MemoryPct     float64 `json:"memory_delta_pct"`
	ThroughputPct float64 `json:"throughput_delta_pct"`
}

// SuiteReport exposes the structured results for external reporting.
type SuiteReport struct {
	Results     []models.BenchmarkResult `json:"results"`
	Comparisons []Comparison             `json:"comparisons"`
}

// RunSuite generates one synthetic dataset, executes every scenario over it
// for the configured iteration count, and reports per-scenario results plus
// deltas against the baseline.
func RunSuite(ctx context.Context, cfg SuiteConfig, logger *zap.Logger) (*SuiteReport, error) {
	if cfg.DatasetSize <= 0 {
		cfg.DatasetSize = 10000
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := Generate(DatasetConfig{
		Size:           cfg.DatasetSize,
		DuplicateRatio: cfg.DuplicateRatio,
		MalformedRatio: cfg.MalformedRatio,
		Seed:           cfg.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate dataset: %w", err)
	}

	report := &SuiteReport{}
	for _, scenario := range Scenarios() {
		result, err := runScenario(ctx, scenario, data, cfg.DatasetSize, cfg.Iterations, logger)
		if err != nil {
			return nil, fmt.Errorf("scenario %s failed: %w", scenario.Name, err)
		}
		report.Results = append(report.Results, *result)
		logger.Info("scenario finished",
			zap.String("scenario", scenario.Name),
			zap.Duration("duration", result.Duration),
			zap.Float64("throughput_rps", result.Throughput))
	}

	report.Comparisons = compare(report.Results)
	return report, nil
}

func runScenario(ctx context.Context, scenario Scenario, data []byte, datasetSize, iterations int, logger *zap.Logger) (*models.BenchmarkResult, error) {
	pipelineCfg := config.Default()
	pipelineCfg.Observability.EnableMetrics = false
	scenario.Configure(pipelineCfg)

	var total time.Duration
	var peak uint64
	var processed int

	for i := 0; i < iterations; i++ {
		objects := storage.NewMemoryObjectStore()
		if err := objects.Write(ctx, "benchmark/input.json", data); err != nil {
			return nil, err
		}
		p, err := pipeline.New(pipelineCfg, objects, storage.NewMemoryDeadLetterStore(), metrics.NopSink{}, logger)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		summary, err := p.Process(ctx, "benchmark/input.json")
		elapsed := time.Since(start)
		if rss := p.Runtime().Memory.PeakRSS(); rss > peak {
			peak = rss
		}
		p.Close()
		if err != nil {
			return nil, err
		}

		total += elapsed
		processed += summary.SuccessCount + summary.FailureCount + summary.DuplicatesRemoved
	}

	avg := total / time.Duration(iterations)
	throughput := 0.0
	if total > 0 {
		throughput = float64(processed) / total.Seconds()
	}
	return &models.BenchmarkResult{
		ScenarioName: scenario.Name,
		DatasetSize:  datasetSize,
		Duration:     avg,
		PeakMemory:   peak,
		Throughput:   throughput,
	}, nil
}

// compare computes percent deltas of every scenario against the baseline.
func compare(results []models.BenchmarkResult) []Comparison {
	var baseline *models.BenchmarkResult
	for i := range results {
		if results[i].ScenarioName == BaselineScenario {
			baseline = &results[i]
			break
		}
	}
	if baseline == nil {
		return nil
	}

	var comparisons []Comparison
	for _, r := range results {
		if r.ScenarioName == BaselineScenario {
			continue
		}
		comparisons = append(comparisons, Comparison{
			ScenarioName:  r.ScenarioName,
			DurationPct:   deltaPct(float64(r.Duration), float64(baseline.Duration)),
			MemoryPct:     deltaPct(float64(r.PeakMemory), float64(baseline.PeakMemory)),
			ThroughputPct: deltaPct(r.Throughput, baseline.Throughput),
		})
	}
	return comparisons
}

func deltaPct(value, baseline float64) float64 {
	if baseline == 0 {
		return 0
	}
	return (value - baseline) / baseline * 100
}
