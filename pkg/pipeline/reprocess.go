package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/convert"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/errors"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
)

// ReprocessDeadLetters resubmits up to max stored payloads through the same
// transform and conversion path. A successfully reprocessed entry is deleted
// from the store; a failing one has its attempt count and last-seen time
// updated in place. Resubmission is idempotent: a fixed record lands exactly
// once and its error entry disappears.
func (p *Pipeline) ReprocessDeadLetters(ctx context.Context, max int) (*models.ExecutionSummary, error) {
	start := time.Now()
	runID := newRunID()
	log := p.logger.With(zap.String("run_id", runID))

	summary := &models.ExecutionSummary{RunID: runID, Status: models.RunCompleted}

	succeeded, failed, err := p.dlq.Reprocess(ctx, max, func(ctx context.Context, rec models.ErrorRecord) error {
		return p.reprocessOne(ctx, runID, rec, summary)
	})
	if err != nil {
		summary.Status = models.RunFailed
		summary.Duration = time.Since(start)
		return summary, err
	}

	summary.SuccessCount = len(succeeded)
	summary.FailureCount = len(failed)
	for _, id := range failed {
		summary.ErrorReferences = append(summary.ErrorReferences, id)
	}
	if summary.FailureCount > 0 {
		summary.Status = models.RunPartial
	}
	summary.Duration = time.Since(start)

	p.runtime.CountOutcome(summary.SuccessCount, summary.FailureCount)
	log.Info("dead-letter reprocessing finished",
		zap.Int("succeeded", summary.SuccessCount),
		zap.Int("failed", summary.FailureCount))
	return summary, nil
}

// reprocessOne pushes a single stored payload through validation, transform
// and conversion, writing a one-record output object.
func (p *Pipeline) reprocessOne(ctx context.Context, runID string, errRec models.ErrorRecord, summary *models.ExecutionSummary) error {
	var raw models.RawRecord
	if err := json.Unmarshal(errRec.Payload, &raw); err != nil {
		return errors.Wrap(err, errors.KindDataQuality, "stored payload is not a valid record")
	}
	if err := raw.Validate(); err != nil {
		return err
	}

	chunk := &models.Chunk{ID: 0, Records: []models.RawRecord{raw}}
	var xres = p.xform.Apply(chunk)
	if len(xres.Errors) > 0 {
		return errors.New(errors.KindDataQuality, xres.Errors[0].LastErrorMessage)
	}
	if len(xres.Records) == 0 {
		return errors.New(errors.KindDataQuality, "record eliminated during transformation")
	}

	schema := convert.InferSchema(chunk.Records, p.cfg.Output.DictionaryThreshold)

	return p.runtime.ExecuteGuarded(ctx, BreakerIO, func(ctx context.Context) error {
		conv, err := p.runtime.ConvPool.Checkout(ctx)
		if err != nil {
			return err
		}
		defer p.runtime.ConvPool.Return(conv)

		payload, manifest, err := conv.Convert(xres.Records, schema)
		if err != nil {
			return err
		}
		manifest.Location = fmt.Sprintf("%s/%s/reprocessed-%s.%s",
			p.cfg.Output.Prefix, runID, errRec.ID, conv.Extension())
		if err := p.objects.Write(ctx, manifest.Location, payload); err != nil {
			return err
		}
		summary.OutputReferences = append(summary.OutputReferences, manifest.Location)
		return nil
	})
}
