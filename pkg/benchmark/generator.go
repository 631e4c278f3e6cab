// Package benchmark generates synthetic flight-state datasets and runs the
// named scenario suite over them, reporting duration, peak memory and
// throughput per scenario plus deltas against the baseline.
package benchmark

import (
	"fmt"
	"math/rand"

	"github.com/goccy/go-json"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
)

// DatasetConfig controls synthetic data generation.
type DatasetConfig struct {
	// Size is the number of well-formed unique records.
	Size int
	// DuplicateRatio adds this fraction of duplicate-key copies.
	DuplicateRatio float64
	// MalformedRatio adds this fraction of invalid records.
	MalformedRatio float64
	// AircraftCount bounds the distinct aircraft population.
	AircraftCount int
	// Seed makes generation reproducible.
	Seed int64
}

// Generate produces a JSON array payload for the configured dataset.
func Generate(cfg DatasetConfig) ([]byte, error) {
	if cfg.AircraftCount <= 0 {
		cfg.AircraftCount = cfg.Size/100 + 1
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	records := make([]interface{}, 0, cfg.Size)
	for i := 0; i < cfg.Size; i++ {
		records = append(records, syntheticRecord(rng, i, cfg.AircraftCount))
	}

	duplicates := int(float64(cfg.Size) * cfg.DuplicateRatio)
	for i := 0; i < duplicates && i < cfg.Size; i++ {
		records = append(records, records[rng.Intn(cfg.Size)])
	}

	malformed := int(float64(cfg.Size) * cfg.MalformedRatio)
	for i := 0; i < malformed; i++ {
		records = append(records, map[string]interface{}{
			"icao24":    "",
			"timestamp": 0,
		})
	}

	return json.Marshal(records)
}

func syntheticRecord(rng *rand.Rand, i, aircraftCount int) models.RawRecord {
	rec := models.RawRecord{
		ICAO24:    fmt.Sprintf("ac%06d", i%aircraftCount),
		Timestamp: int64(1700000000 + i),
		Latitude:  models.Float64(-60 + rng.Float64()*120),
		Longitude: models.Float64(-180 + rng.Float64()*360),
		OnGround:  rng.Float64() < 0.1,
		Callsign:  fmt.Sprintf("SYN%03d", i%aircraftCount%500),
	}
	if !rec.OnGround {
		rec.AltitudeM = models.Float64(rng.Float64() * 12000)
		rec.VelocityMps = models.Float64(rng.Float64() * 280)
		rec.Heading = models.Float64(rng.Float64() * 360)
		rec.VerticalRate = models.Float64(-15 + rng.Float64()*30)
	}
	// a share of sparse records exercises imputation
	if rng.Float64() < 0.05 {
		rec.AltitudeM = nil
		rec.VelocityMps = nil
	}
	return rec
}
