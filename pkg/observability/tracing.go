// Package observability wires OpenTelemetry tracing around batch and chunk
// operations.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const serviceName = "flightetl"

var tracer trace.Tracer = noop.NewTracerProvider().Tracer(serviceName)

// Config controls tracing initialization.
type Config struct {
	Enabled      bool
	SamplingRate float64
	Version      string
}

// Init sets up the global tracer provider with a stdout exporter. Returns a
// shutdown function that flushes pending spans.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(cfg.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SamplingRate <= 0:
		sampler = sdktrace.NeverSample()
	case cfg.SamplingRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SamplingRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	tracer = tp.Tracer(serviceName)

	return tp.Shutdown, nil
}

// StartRunSpan opens the span covering one pipeline invocation.
func StartRunSpan(ctx context.Context, runID, inputRef string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "pipeline.process",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.String("input_reference", inputRef),
		))
}

// StartChunkSpan opens the span covering one chunk task.
func StartChunkSpan(ctx context.Context, chunkID, records int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "pipeline.chunk",
		trace.WithAttributes(
			attribute.Int("chunk_id", chunkID),
			attribute.Int("records", records),
		))
}
