package convert

import (
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/errors"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
)

// Reader parses a raw JSON array of flight-state records and splits the
// valid ones into bounded chunks.
type Reader struct {
	chunkSize int
	logger    *zap.Logger
}

// NewReader creates a Reader producing chunks of at most chunkSize records.
func NewReader(chunkSize int, logger *zap.Logger) *Reader {
	if chunkSize <= 0 {
		chunkSize = 5000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{
		chunkSize: chunkSize,
		logger:    logger.With(zap.String("component", "reader")),
	}
}

// Parse decodes the input bytes. A structurally unreadable input (not a JSON
// array) is a Conversion error: fatal, never retryable. Individual malformed
// or invalid elements become DataQuality error records carrying the original
// element bytes; they never fail the whole input.
func (r *Reader) Parse(data []byte) ([]models.RawRecord, []models.ErrorRecord, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, nil, errors.Wrap(err, errors.KindConversion, "input is not a JSON array")
	}

	records := make([]models.RawRecord, 0, len(elements))
	var errRecords []models.ErrorRecord

	for i, elem := range elements {
		var rec models.RawRecord
		if err := json.Unmarshal(elem, &rec); err != nil {
			errRecords = append(errRecords, malformedRecord(i, elem,
				errors.Wrap(err, errors.KindDataQuality, "malformed record")))
			continue
		}
		if err := rec.Validate(); err != nil {
			errRecords = append(errRecords, malformedRecord(i, elem, err))
			continue
		}
		records = append(records, rec)
	}

	r.logger.Debug("input parsed",
		zap.Int("elements", len(elements)),
		zap.Int("valid", len(records)),
		zap.Int("invalid", len(errRecords)))
	return records, errRecords, nil
}

// Split partitions records into chunks of at most the configured size,
// preserving input order. chunkSize overrides the configured size when
// positive, so the memory monitor can shrink chunks mid-run.
func (r *Reader) Split(records []models.RawRecord, chunkSize int) []*models.Chunk {
	if chunkSize <= 0 {
		chunkSize = r.chunkSize
	}
	var chunks []*models.Chunk
	for offset := 0; offset < len(records); offset += chunkSize {
		end := offset + chunkSize
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, &models.Chunk{
			ID:           len(chunks),
			Records:      records[offset:end],
			SourceOffset: offset,
		})
	}
	return chunks
}

func malformedRecord(index int, payload json.RawMessage, cause error) models.ErrorRecord {
	now := time.Now().UTC()
	return models.ErrorRecord{
		ID:               recordID("parse", index, payload),
		Payload:          payload,
		Kind:             errors.KindOf(cause),
		AttemptCount:     1,
		LastErrorMessage: cause.Error(),
		FirstSeenAt:      now,
		LastSeenAt:       now,
	}
}
