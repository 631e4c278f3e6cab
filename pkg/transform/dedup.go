// Package transform implements the per-chunk transformation pipeline:
// duplicate resolution, missing-value imputation, field enrichment and
// flight-phase classification, executed in that fixed order.
package transform

import (
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
)

// DedupStrategy selects which record survives a duplicate group.
type DedupStrategy string

const (
	// KeepFirst keeps the first occurrence in chunk order.
	KeepFirst DedupStrategy = "first"
	// KeepLast keeps the last occurrence in chunk order.
	KeepLast DedupStrategy = "last"
	// KeepBestQuality keeps the record with the most populated fields,
	// first occurrence winning ties.
	KeepBestQuality DedupStrategy = "best-quality"
)

// Dedup collapses records sharing an (icao24, timestamp) key down to one
// survivor per group. Survivors keep the chunk position of the group's first
// occurrence. Returns the survivors and the number of records removed.
func Dedup(records []models.RawRecord, strategy DedupStrategy) ([]models.RawRecord, int) {
	if len(records) == 0 {
		return nil, 0
	}

	type slot struct {
		index  int
		record models.RawRecord
	}
	groups := make(map[models.RecordKey]*slot, len(records))
	order := make([]models.RecordKey, 0, len(records))

	for _, rec := range records {
		key := rec.Key()
		existing, ok := groups[key]
		if !ok {
			groups[key] = &slot{index: len(order), record: rec}
			order = append(order, key)
			continue
		}
		switch strategy {
		case KeepLast:
			existing.record = rec
		case KeepBestQuality:
			if rec.QualityScore() > existing.record.QualityScore() {
				existing.record = rec
			}
		default: // KeepFirst
		}
	}

	survivors := make([]models.RawRecord, 0, len(order))
	for _, key := range order {
		survivors = append(survivors, groups[key].record)
	}
	return survivors, len(records) - len(survivors)
}
