package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/config"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/convert"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/errors"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/logger"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/metrics"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/observability"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/performance"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/resilience"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/storage"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/transform"
)

// Pipeline is the processing core. One instance is safe for sequential runs;
// the Runtime it carries is shared across all workers within a run.
type Pipeline struct {
	cfg      *config.PipelineConfig
	objects  storage.ObjectStore
	dlq      *resilience.DeadLetterManager
	runtime  *Runtime
	reader   *convert.Reader
	xform    *transform.Pipeline
	executor *performance.Executor
	logger   *zap.Logger
}

// New assembles a Pipeline over the given collaborators.
func New(cfg *config.PipelineConfig, objects storage.ObjectStore, deadLetters storage.DeadLetterStore, sink metrics.Sink, log *zap.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.KindPermanent, "invalid pipeline configuration")
	}
	if log == nil {
		log = logger.Get()
	}

	rt := NewRuntime(cfg, sink, log)
	return &Pipeline{
		cfg:      cfg,
		objects:  objects,
		dlq:      resilience.NewDeadLetterManager(deadLetters, log),
		runtime:  rt,
		reader:   convert.NewReader(cfg.Chunking.ChunkSize, log),
		xform:    transform.NewPipeline(cfg.Transform, log),
		executor: performance.NewExecutor(cfg.Performance.GetWorkers(), log),
		logger:   log.With(zap.String("component", "pipeline")),
	}, nil
}

// Runtime exposes the shared state, mainly for health checks and tests.
func (p *Pipeline) Runtime() *Runtime {
	return p.runtime
}

// Close releases pooled resources.
func (p *Pipeline) Close() {
	p.runtime.Close()
}

// Process runs the full pipeline over one input reference and returns the
// execution summary. Record-level failures are dead-lettered and counted;
// only infrastructure failures that survive their retry budget fail the run.
func (p *Pipeline) Process(ctx context.Context, inputRef string) (*models.ExecutionSummary, error) {
	start := time.Now()
	runID := newRunID()
	log := p.logger.With(zap.String("run_id", runID), zap.String("input_reference", inputRef))

	ctx, span := observability.StartRunSpan(ctx, runID, inputRef)
	defer span.End()

	if p.cfg.Performance.ExecutionBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Performance.ExecutionBudget)
		defer cancel()
	}

	summary := &models.ExecutionSummary{RunID: runID, Status: models.RunCompleted}

	// read the input through the guarded storage path
	var data []byte
	readErr := p.runtime.ExecuteGuarded(ctx, BreakerIO, func(ctx context.Context) error {
		var err error
		data, err = p.objects.Read(ctx, inputRef)
		return err
	})
	if readErr != nil {
		summary.Status = models.RunFailed
		summary.Duration = time.Since(start)
		log.Error("failed to read input", zap.Error(readErr))
		return summary, readErr
	}

	// a structurally unreadable input is fatal and never retried
	records, parseErrors, err := p.reader.Parse(data)
	if err != nil {
		summary.Status = models.RunFailed
		summary.Duration = time.Since(start)
		log.Error("input is unreadable", zap.Error(err))
		return summary, err
	}
	p.deadLetter(ctx, summary, parseErrors)

	schema := p.inferSchema(inputRef, records)

	results, unscheduled, runErr := p.processChunks(ctx, runID, records, schema, log)
	for _, res := range results {
		summary.SuccessCount += res.SuccessCount
		summary.FailureCount += res.FailureCount
		summary.DuplicatesRemoved += res.DuplicatesRemoved
		if res.Output != nil {
			summary.OutputReferences = append(summary.OutputReferences, res.Output.Location)
		}
		for _, rec := range res.Errors {
			summary.ErrorReferences = append(summary.ErrorReferences, rec.ID)
		}
	}
	summary.UnprocessedChunks = unscheduled

	switch {
	case runErr != nil:
		summary.Status = models.RunFailed
	case summary.FailureCount > 0 || len(unscheduled) > 0:
		summary.Status = models.RunPartial
	}
	summary.Duration = time.Since(start)

	p.runtime.CountOutcome(summary.SuccessCount, summary.FailureCount)
	p.emitRunMetrics(summary)
	log.Info("run finished",
		zap.String("status", string(summary.Status)),
		zap.Int("success", summary.SuccessCount),
		zap.Int("failure", summary.FailureCount),
		zap.Int("duplicates_removed", summary.DuplicatesRemoved),
		zap.Duration("duration", summary.Duration))
	return summary, runErr
}

// inferSchema caches the inference per input reference: a reprocessed input
// skips the sampling pass entirely.
func (p *Pipeline) inferSchema(inputRef string, records []models.RawRecord) *convert.Schema {
	sampleSize := p.cfg.Chunking.SchemaSampleSize
	if sampleSize > len(records) {
		sampleSize = len(records)
	}
	key := performance.CacheKey("schema_infer", inputRef, convert.SchemaVersion)
	v, _ := p.runtime.Cache.GetOrCompute(key, func() (interface{}, error) {
		return convert.InferSchema(records[:sampleSize], p.cfg.Output.DictionaryThreshold), nil
	})
	return v.(*convert.Schema)
}

// processChunks schedules chunk tasks in waves of at most maxWorkers,
// checking memory between waves. A shrink suggestion from the monitor
// re-splits the remaining records into smaller chunks.
func (p *Pipeline) processChunks(ctx context.Context, runID string, records []models.RawRecord, schema *convert.Schema, log *zap.Logger) ([]*models.ChunkResult, []int, error) {
	chunkSize := p.cfg.Chunking.ChunkSize
	chunks := p.reader.Split(records, chunkSize)

	var (
		results     []*models.ChunkResult
		unscheduled []int
		runErr      error
	)
	workers := p.cfg.Performance.GetWorkers()
	nextID := 0

	for len(chunks) > 0 {
		wave := chunks
		if len(wave) > workers {
			wave = chunks[:workers]
		}
		chunks = chunks[len(wave):]

		tasks := make([]performance.Task, 0, len(wave))
		waveResults := make([]*models.ChunkResult, len(wave))
		for i, chunk := range wave {
			chunk.ID = nextID
			nextID++
			i, chunk := i, chunk
			tasks = append(tasks, performance.Task{
				ID: chunk.ID,
				Run: func(ctx context.Context) error {
					res, err := p.processChunk(ctx, runID, chunk, schema)
					waveResults[i] = res
					return err
				},
			})
		}

		report := p.executor.Execute(ctx, tasks)
		unscheduled = append(unscheduled, report.Unscheduled...)
		for _, outcome := range report.Outcomes {
			if outcome.Err != nil && runErr == nil {
				runErr = outcome.Err
			}
		}
		for _, res := range waveResults {
			if res != nil {
				results = append(results, res)
			}
		}

		// between chunk boundaries only, never mid-record
		suggested := p.runtime.Memory.CheckBetweenChunks(chunkSize)
		if suggested < chunkSize && len(chunks) > 0 {
			chunkSize = suggested
			var remaining []models.RawRecord
			for _, c := range chunks {
				remaining = append(remaining, c.Records...)
			}
			chunks = p.reader.Split(remaining, chunkSize)
			log.Info("re-split remaining input after memory pressure",
				zap.Int("chunk_size", chunkSize),
				zap.Int("remaining_chunks", len(chunks)))
		}
	}

	// abandoned chunks are reported, never silently dropped
	if len(unscheduled) > 0 {
		var ids []int
		seen := map[int]struct{}{}
		for _, id := range unscheduled {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
		sort.Ints(ids)
		unscheduled = ids
	}
	return results, unscheduled, runErr
}

// processChunk runs one chunk through transform and conversion. Record
// failures accumulate inside the result; the returned error is reserved for
// chunk-level infrastructure failures that exhausted their budget.
func (p *Pipeline) processChunk(ctx context.Context, runID string, chunk *models.Chunk, schema *convert.Schema) (*models.ChunkResult, error) {
	ctx, span := observability.StartChunkSpan(ctx, chunk.ID, chunk.Len())
	defer span.End()
	started := time.Now()

	result := &models.ChunkResult{ChunkID: chunk.ID}

	var xres *transform.Result
	if err := p.runtime.ExecuteGuarded(ctx, BreakerTransform, func(context.Context) error {
		var err error
		xres, err = applyTransform(p.xform, chunk)
		return err
	}); err != nil {
		return result, err
	}
	result.DuplicatesRemoved = xres.DuplicatesRemoved
	result.FailureCount = len(xres.Errors)
	result.Errors = xres.Errors
	p.deadLetterChunk(ctx, xres.Errors)

	if len(xres.Records) == 0 {
		p.runtime.Sink.ObserveDuration(metrics.ChunkDuration, time.Since(started))
		return result, nil
	}

	var payload []byte
	var manifest *models.ConversionResult
	if err := p.runtime.ExecuteGuarded(ctx, BreakerConversion, func(ctx context.Context) error {
		conv, err := p.runtime.ConvPool.Checkout(ctx)
		if err != nil {
			return err
		}
		defer p.runtime.ConvPool.Return(conv)
		payload, manifest, err = conv.Convert(xres.Records, schema)
		if err == nil {
			manifest.Location = conv.ObjectReference(p.cfg.Output.Prefix, runID, chunk.ID)
		}
		return err
	}); err != nil {
		return result, err
	}

	if err := p.writeOutput(ctx, chunk.ID, payload, manifest); err != nil {
		return result, err
	}

	result.SuccessCount = len(xres.Records)
	result.Output = manifest
	p.runtime.Sink.ObserveDuration(metrics.ChunkDuration, time.Since(started))
	return result, nil
}

// writeOutput stores the payload and its manifest. A retried write whose
// checksum matches what this run already stored for the chunk is skipped.
func (p *Pipeline) writeOutput(ctx context.Context, chunkID int, payload []byte, manifest *models.ConversionResult) error {
	return p.runtime.ExecuteGuarded(ctx, BreakerIO, func(ctx context.Context) error {
		if p.runtime.AlreadyWritten(chunkID, manifest.Checksum) {
			return nil
		}
		if err := p.objects.Write(ctx, manifest.Location, payload); err != nil {
			return err
		}
		manifestBytes, err := json.Marshal(manifest)
		if err != nil {
			return errors.Wrap(err, errors.KindPermanent, "failed to marshal manifest")
		}
		if err := p.objects.Write(ctx, manifest.Location+".manifest.json", manifestBytes); err != nil {
			return err
		}
		p.runtime.MarkWritten(chunkID, manifest.Checksum)
		return nil
	})
}

// applyTransform runs the transform step, converting a panic into a
// chunk-level permanent error so the guarding breaker records it instead of
// the worker dying.
func applyTransform(x *transform.Pipeline, chunk *models.Chunk) (res *transform.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf(errors.KindPermanent, "transform step panicked: %v", r)
		}
	}()
	return x.Apply(chunk), nil
}

// deadLetter counts each record as failed whether or not the enqueue
// succeeds; a store outage must never make the accounting under-report.
func (p *Pipeline) deadLetter(ctx context.Context, summary *models.ExecutionSummary, errRecords []models.ErrorRecord) {
	for _, rec := range errRecords {
		summary.FailureCount++
		summary.ErrorReferences = append(summary.ErrorReferences, rec.ID)
		if err := p.dlq.Store().Enqueue(ctx, rec); err != nil {
			p.logger.Error("failed to dead-letter record", zap.String("id", rec.ID), zap.Error(err))
		}
	}
}

func (p *Pipeline) deadLetterChunk(ctx context.Context, errRecords []models.ErrorRecord) {
	for _, rec := range errRecords {
		if err := p.dlq.Store().Enqueue(ctx, rec); err != nil {
			p.logger.Error("failed to dead-letter record", zap.String("id", rec.ID), zap.Error(err))
		}
	}
}

func (p *Pipeline) emitRunMetrics(summary *models.ExecutionSummary) {
	sink := p.runtime.Sink
	sink.IncCounter(metrics.RecordsProcessed, float64(summary.SuccessCount))
	sink.IncCounter(metrics.RecordsFailed, float64(summary.FailureCount))
	sink.IncCounter(metrics.DuplicatesRemoved, float64(summary.DuplicatesRemoved))
	sink.IncCounter(metrics.ChunksProcessed, float64(len(summary.OutputReferences)))
	sink.SetGauge(metrics.CacheHitRate, p.runtime.Cache.HitRate())
	sink.ObserveDuration(metrics.RunDuration, summary.Duration)
	for _, name := range []string{BreakerConversion, BreakerTransform, BreakerIO} {
		state := 0.0
		if p.runtime.Breaker(name).State() != resilience.StateClosed {
			state = 1.0
		}
		sink.SetGauge(metrics.CircuitState, state, name)
	}
}

func newRunID() string {
	return fmt.Sprintf("run-%s-%06d", time.Now().UTC().Format("20060102T150405"), time.Now().UnixNano()%1e6)
}
