package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
)

func TestEnrichUnitConversions(t *testing.T) {
	r := &models.EnrichedRecord{RawRecord: models.RawRecord{
		ICAO24:      "abc",
		Timestamp:   1,
		AltitudeM:   models.Float64(1000),
		VelocityMps: models.Float64(100),
	}}

	Enrich([]*models.EnrichedRecord{r})

	require.NotNil(t, r.AltitudeFt)
	require.NotNil(t, r.SpeedKnots)
	assert.InDelta(t, 3280.84, *r.AltitudeFt, 0.01)
	assert.InDelta(t, 194.384, *r.SpeedKnots, 0.01)
}

func TestEnrichDistanceFromPrev(t *testing.T) {
	// Amsterdam to Paris, roughly 430 km
	a := &models.EnrichedRecord{RawRecord: models.RawRecord{
		ICAO24: "abc", Timestamp: 100,
		Latitude: models.Float64(52.3105), Longitude: models.Float64(4.7683),
	}}
	b := &models.EnrichedRecord{RawRecord: models.RawRecord{
		ICAO24: "abc", Timestamp: 200,
		Latitude: models.Float64(49.0097), Longitude: models.Float64(2.5479),
	}}

	Enrich([]*models.EnrichedRecord{a, b})

	assert.Nil(t, a.DistanceFromPrev)
	require.NotNil(t, b.DistanceFromPrev)
	assert.InDelta(t, 400, *b.DistanceFromPrev, 40)
}

func TestHaversineZeroDistance(t *testing.T) {
	assert.InDelta(t, 0, Haversine(52.3, 4.76, 52.3, 4.76), 1e-9)
}
