package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
)

func rec(icao string, ts int64, quality int) models.RawRecord {
	r := models.RawRecord{ICAO24: icao, Timestamp: ts}
	if quality > 0 {
		r.Latitude = models.Float64(50)
	}
	if quality > 1 {
		r.Longitude = models.Float64(4)
	}
	if quality > 2 {
		r.AltitudeM = models.Float64(1000)
	}
	if quality > 3 {
		r.Callsign = "KLM123"
	}
	return r
}

func TestDedupStrategies(t *testing.T) {
	input := []models.RawRecord{
		rec("abc", 100, 1),
		rec("abc", 100, 3),
		rec("def", 100, 2),
		rec("abc", 100, 2),
	}

	tests := []struct {
		name        string
		strategy    DedupStrategy
		wantQuality int
	}{
		{"keep first", KeepFirst, 1},
		{"keep last", KeepLast, 2},
		{"keep best quality", KeepBestQuality, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, removed := Dedup(input, tt.strategy)
			assert.Equal(t, 2, removed)
			assert.Len(t, out, 2)
			// survivor keeps the group's first position
			assert.Equal(t, "abc", out[0].ICAO24)
			assert.Equal(t, "def", out[1].ICAO24)
			assert.Equal(t, tt.wantQuality, out[0].QualityScore())
		})
	}
}

func TestDedupNoDuplicates(t *testing.T) {
	input := []models.RawRecord{rec("abc", 100, 1), rec("abc", 101, 1)}
	out, removed := Dedup(input, KeepFirst)
	assert.Equal(t, 0, removed)
	assert.Len(t, out, 2)
}

func TestDedupEmpty(t *testing.T) {
	out, removed := Dedup(nil, KeepBestQuality)
	assert.Equal(t, 0, removed)
	assert.Empty(t, out)
}
