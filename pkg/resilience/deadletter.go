package resilience

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/errors"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/storage"
)

// DeadLetterManager writes exhausted or permanently failed units of work to
// the durable error store and drives their reprocessing.
type DeadLetterManager struct {
	store  storage.DeadLetterStore
	logger *zap.Logger
}

// NewDeadLetterManager creates a manager over the given store.
func NewDeadLetterManager(store storage.DeadLetterStore, logger *zap.Logger) *DeadLetterManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeadLetterManager{
		store:  store,
		logger: logger.With(zap.String("component", "dead_letter")),
	}
}

// Record dead-letters a failed unit of work with its full original payload.
func (m *DeadLetterManager) Record(ctx context.Context, id string, payload []byte, cause error, attempts int) (models.ErrorRecord, error) {
	now := time.Now().UTC()
	rec := models.ErrorRecord{
		ID:               id,
		Payload:          payload,
		Kind:             errors.KindOf(cause),
		AttemptCount:     attempts,
		LastErrorMessage: cause.Error(),
		FirstSeenAt:      now,
		LastSeenAt:       now,
	}
	if err := m.store.Enqueue(ctx, rec); err != nil {
		return rec, errors.Wrap(err, errors.KindOf(err), "failed to enqueue dead-letter record")
	}
	m.logger.Info("unit dead-lettered",
		zap.String("id", id),
		zap.String("kind", string(rec.Kind)),
		zap.Int("attempts", attempts))
	return rec, nil
}

// Store exposes the underlying store for accounting.
func (m *DeadLetterManager) Store() storage.DeadLetterStore {
	return m.store
}

// Reprocess dequeues up to max records and resubmits each through process.
// A successful resubmission deletes the stored entry; a failed one updates
// attempt_count and last_seen_at in place. Returns (succeeded, failed) IDs.
func (m *DeadLetterManager) Reprocess(ctx context.Context, max int, process func(ctx context.Context, rec models.ErrorRecord) error) (succeeded, failed []string, err error) {
	records, err := m.store.Dequeue(ctx, max)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.KindOf(err), "failed to dequeue dead-letter records")
	}

	for _, rec := range records {
		if procErr := process(ctx, rec); procErr != nil {
			rec.AttemptCount++
			rec.LastErrorMessage = procErr.Error()
			rec.LastSeenAt = time.Now().UTC()
			rec.Kind = errors.KindOf(procErr)
			if updErr := m.store.Update(ctx, rec); updErr != nil {
				m.logger.Error("failed to update dead-letter record",
					zap.String("id", rec.ID), zap.Error(updErr))
			}
			failed = append(failed, rec.ID)
			continue
		}
		if delErr := m.store.Delete(ctx, rec.ID); delErr != nil {
			m.logger.Error("failed to delete reprocessed dead-letter record",
				zap.String("id", rec.ID), zap.Error(delErr))
			failed = append(failed, rec.ID)
			continue
		}
		succeeded = append(succeeded, rec.ID)
	}

	m.logger.Info("dead-letter reprocessing finished",
		zap.Int("succeeded", len(succeeded)),
		zap.Int("failed", len(failed)))
	return succeeded, failed, nil
}
