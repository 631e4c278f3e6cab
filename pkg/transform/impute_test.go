package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
)

func enrichedAlt(icao string, ts int64, altM *float64) *models.EnrichedRecord {
	return &models.EnrichedRecord{RawRecord: models.RawRecord{
		ICAO24: icao, Timestamp: ts, AltitudeM: altM,
	}}
}

func TestImputeLinearInterpolation(t *testing.T) {
	records := []*models.EnrichedRecord{
		enrichedAlt("abc", 100, models.Float64(1000)),
		enrichedAlt("abc", 110, nil),
		enrichedAlt("abc", 120, nil),
		enrichedAlt("abc", 130, models.Float64(1300)),
	}

	NewImputer(5).Impute(records)

	require.NotNil(t, records[1].AltitudeM)
	require.NotNil(t, records[2].AltitudeM)
	assert.InDelta(t, 1100, *records[1].AltitudeM, 1e-9)
	assert.InDelta(t, 1200, *records[2].AltitudeM, 1e-9)
	assert.True(t, records[1].HasFlag(models.FlagImputedAltitude))
	assert.False(t, records[1].HasFlag(models.FlagFilledForward))
}

func TestImputeGapExceedsWindowForwardFills(t *testing.T) {
	records := []*models.EnrichedRecord{
		enrichedAlt("abc", 100, models.Float64(1000)),
	}
	for i := int64(1); i <= 4; i++ {
		records = append(records, enrichedAlt("abc", 100+i*10, nil))
	}
	records = append(records, enrichedAlt("abc", 200, models.Float64(5000)))

	NewImputer(2).Impute(records)

	for _, r := range records[1:5] {
		require.NotNil(t, r.AltitudeM)
		assert.Equal(t, 1000.0, *r.AltitudeM)
		assert.True(t, r.HasFlag(models.FlagFilledForward))
	}
}

func TestImputeBackwardFillAtSeriesStart(t *testing.T) {
	records := []*models.EnrichedRecord{
		enrichedAlt("abc", 100, nil),
		enrichedAlt("abc", 110, models.Float64(2000)),
	}

	NewImputer(5).Impute(records)

	require.NotNil(t, records[0].AltitudeM)
	assert.Equal(t, 2000.0, *records[0].AltitudeM)
	assert.True(t, records[0].HasFlag(models.FlagFilledBackward))
}

func TestImputeStatisticalDefault(t *testing.T) {
	// "abc" has no altitude at all; "def" supplies the batch mean
	records := []*models.EnrichedRecord{
		enrichedAlt("abc", 100, nil),
		enrichedAlt("def", 100, models.Float64(1000)),
		enrichedAlt("def", 110, models.Float64(3000)),
	}

	NewImputer(5).Impute(records)

	require.NotNil(t, records[0].AltitudeM)
	assert.Equal(t, 2000.0, *records[0].AltitudeM)
	assert.True(t, records[0].HasFlag(models.FlagStatisticalDefault))
}

func TestImputeNothingAvailableLeavesMissing(t *testing.T) {
	records := []*models.EnrichedRecord{
		enrichedAlt("abc", 100, nil),
		enrichedAlt("def", 110, nil),
	}

	NewImputer(5).Impute(records)

	assert.Nil(t, records[0].AltitudeM)
	assert.Nil(t, records[1].AltitudeM)
}

func TestImputeGroupsPerAircraft(t *testing.T) {
	// a gap in "abc" must never be filled from "def" values
	records := []*models.EnrichedRecord{
		enrichedAlt("abc", 100, models.Float64(1000)),
		enrichedAlt("def", 105, models.Float64(9000)),
		enrichedAlt("abc", 110, nil),
		enrichedAlt("abc", 120, models.Float64(1200)),
	}

	NewImputer(5).Impute(records)

	require.NotNil(t, records[2].AltitudeM)
	assert.InDelta(t, 1100, *records[2].AltitudeM, 1e-9)
}
