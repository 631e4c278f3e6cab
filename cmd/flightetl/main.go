package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/benchmark"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/config"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/logger"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/metrics"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/observability"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/pipeline"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/storage"

	"github.com/goccy/go-json"
)

var version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "flightetl",
		Short: "Flight-state ETL processing core",
		Long: `flightetl converts raw flight-state observations into compressed columnar
outputs with deduplication, imputation, enrichment and flight-phase
classification, guarded by retries, circuit breakers and a dead-letter queue.`,
	}

	var configFile string
	var bucket, region string
	var metricsAddr string
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "pipeline configuration file (YAML)")
	root.PersistentFlags().StringVar(&bucket, "bucket", "", "S3 bucket (omit to use in-memory storage)")
	root.PersistentFlags().StringVar(&region, "region", "us-east-1", "AWS region")
	root.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve /metrics on (empty disables)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("flightetl v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	processCmd := &cobra.Command{
		Use:   "process <input-ref>",
		Short: "Process one input object through the full pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(cmd.Context(), configFile, bucket, region, metricsAddr, func(ctx context.Context, p *pipeline.Pipeline) error {
				summary, err := p.Process(ctx, args[0])
				if summary != nil {
					printJSON(summary)
				}
				return err
			})
		},
	}
	root.AddCommand(processCmd)

	var maxReprocess int
	reprocessCmd := &cobra.Command{
		Use:   "reprocess",
		Short: "Resubmit dead-lettered records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(cmd.Context(), configFile, bucket, region, metricsAddr, func(ctx context.Context, p *pipeline.Pipeline) error {
				summary, err := p.ReprocessDeadLetters(ctx, maxReprocess)
				if summary != nil {
					printJSON(summary)
				}
				return err
			})
		},
	}
	reprocessCmd.Flags().IntVar(&maxReprocess, "max", 100, "maximum records to resubmit")
	root.AddCommand(reprocessCmd)

	root.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Report pipeline health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(cmd.Context(), configFile, bucket, region, metricsAddr, func(ctx context.Context, p *pipeline.Pipeline) error {
				printJSON(p.HealthCheck())
				return nil
			})
		},
	})

	var datasetSize, iterations int
	benchmarkCmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Run the scenario benchmark suite on synthetic data",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := benchmark.RunSuite(cmd.Context(), benchmark.SuiteConfig{
				DatasetSize: datasetSize,
				Iterations:  iterations,
			}, logger.Get())
			if err != nil {
				return err
			}
			printJSON(report)
			return nil
		},
	}
	benchmarkCmd.Flags().IntVar(&datasetSize, "size", 10000, "synthetic dataset size")
	benchmarkCmd.Flags().IntVar(&iterations, "iterations", 3, "iterations per scenario")
	root.AddCommand(benchmarkCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withPipeline loads config, initializes logging, tracing and storage, runs
// fn and tears everything down.
func withPipeline(ctx context.Context, configFile, bucket, region, metricsAddr string, fn func(context.Context, *pipeline.Pipeline) error) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{Level: cfg.Observability.LogLevel, Encoding: "json"}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.Get()
	defer func() { _ = logger.Sync() }()

	shutdown, err := observability.Init(ctx, observability.Config{
		Enabled:      cfg.Observability.EnableTracing,
		SamplingRate: cfg.Observability.TraceSampling,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	var sink metrics.Sink = metrics.NopSink{}
	if cfg.Observability.EnableMetrics {
		reg := prometheus.NewRegistry()
		sink = metrics.NewPrometheusSink(reg)
		if metricsAddr != "" {
			go serveMetrics(metricsAddr, reg, log)
		}
	}

	objects, deadLetters, err := buildStores(ctx, cfg, bucket, region, log)
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg, objects, deadLetters, sink, log)
	if err != nil {
		return err
	}
	defer p.Close()

	return fn(ctx, p)
}

func loadConfig(path string) (*config.PipelineConfig, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func buildStores(ctx context.Context, cfg *config.PipelineConfig, bucket, region string, log *zap.Logger) (storage.ObjectStore, storage.DeadLetterStore, error) {
	if bucket == "" {
		log.Info("no bucket configured, using in-memory storage")
		return storage.NewMemoryObjectStore(), storage.NewMemoryDeadLetterStore(), nil
	}

	s3Store, err := storage.NewS3ObjectStore(ctx, storage.S3Config{Bucket: bucket, Region: region}, log)
	if err != nil {
		return nil, nil, err
	}
	return s3Store, storage.NewS3DeadLetterStore(s3Store, cfg.Resilience.DeadLetterPrefix), nil
}

func serveMetrics(addr string, reg *prometheus.Registry, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	log.Info("serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn("metrics server stopped", zap.Error(err))
	}
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to render output: %v\n", err)
		return
	}
	fmt.Println(string(out))
}
