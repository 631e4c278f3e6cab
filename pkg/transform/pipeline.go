package transform

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/config"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/errors"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
)

// Pipeline runs the transformation steps over one chunk in fixed order:
// duplicate resolution, imputation, enrichment, classification. Individual
// steps can be toggled off through configuration; the order of the enabled
// steps never changes.
type Pipeline struct {
	cfg        config.TransformConfig
	imputer    *Imputer
	classifier *Classifier
	logger     *zap.Logger
}

// Result is the outcome of transforming one chunk.
type Result struct {
	Records           []*models.EnrichedRecord
	Errors            []models.ErrorRecord
	DuplicatesRemoved int
}

// NewPipeline builds a Pipeline from transform configuration.
func NewPipeline(cfg config.TransformConfig, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:        cfg,
		imputer:    NewImputer(cfg.ImputationGapWindow),
		classifier: NewClassifier(cfg.CruiseThresholdFt),
		logger:     logger.With(zap.String("component", "transform")),
	}
}

// Apply transforms a chunk. Per-record failures are accumulated as error
// records, never raised; Records + Errors + DuplicatesRemoved accounts for
// every input record.
func (p *Pipeline) Apply(chunk *models.Chunk) *Result {
	res := &Result{}

	survivors := chunk.Records
	if p.cfg.EnableDedup {
		var removed int
		survivors, removed = Dedup(survivors, DedupStrategy(p.cfg.DedupStrategy))
		res.DuplicatesRemoved = removed
	}

	enriched := make([]*models.EnrichedRecord, 0, len(survivors))
	for _, raw := range survivors {
		enriched = append(enriched, &models.EnrichedRecord{RawRecord: raw})
	}

	if p.cfg.EnableImputation {
		p.imputer.Impute(enriched)
	}

	// records still below the quality threshold after imputation are
	// dead-lettered, not emitted
	if p.cfg.QualityThreshold > 0 {
		kept := enriched[:0]
		for _, rec := range enriched {
			if rec.QualityScore() < p.cfg.QualityThreshold {
				res.Errors = append(res.Errors, p.qualityError(chunk.ID, rec))
				continue
			}
			kept = append(kept, rec)
		}
		enriched = kept
	}

	if p.cfg.EnableEnrichment {
		Enrich(enriched)
	}
	if p.cfg.EnableClassification {
		p.classifier.Classify(enriched)
	}

	res.Records = enriched

	p.logger.Debug("chunk transformed",
		zap.Int("chunk_id", chunk.ID),
		zap.Int("input", chunk.Len()),
		zap.Int("output", len(res.Records)),
		zap.Int("duplicates_removed", res.DuplicatesRemoved),
		zap.Int("errors", len(res.Errors)))

	return res
}

func (p *Pipeline) qualityError(chunkID int, rec *models.EnrichedRecord) models.ErrorRecord {
	payload, err := json.Marshal(rec.RawRecord)
	if err != nil {
		payload = nil
	}
	now := time.Now().UTC()
	qualityErr := errors.New(errors.KindDataQuality, "record below quality threshold").
		WithDetail("icao24", rec.ICAO24).
		WithDetail("quality_score", rec.QualityScore())
	return models.ErrorRecord{
		ID:               fmt.Sprintf("dq-%d-%s-%d", chunkID, rec.ICAO24, rec.Timestamp),
		Payload:          payload,
		Kind:             errors.KindDataQuality,
		AttemptCount:     1,
		LastErrorMessage: qualityErr.Error(),
		FirstSeenAt:      now,
		LastSeenAt:       now,
	}
}
