package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
)

// fromFt builds a record from already-derived units for rule testing.
func fromFt(altFt float64, speedKnots, rateFpm *float64) *models.EnrichedRecord {
	r := &models.EnrichedRecord{RawRecord: models.RawRecord{ICAO24: "abc", Timestamp: 1}}
	r.AltitudeFt = models.Float64(altFt)
	r.SpeedKnots = speedKnots
	if rateFpm != nil {
		r.VerticalRate = models.Float64(*rateFpm / models.MpsToFeetPerMin)
	}
	return r
}

func TestFlightPhaseRules(t *testing.T) {
	tests := []struct {
		name string
		rec  *models.EnrichedRecord
		want models.FlightPhase
	}{
		{"parked", fromFt(50, models.Float64(3), nil), models.PhaseGround},
		{"taxiing", fromFt(80, models.Float64(15), nil), models.PhaseTaxi},
		{"takeoff roll-out", fromFt(500, models.Float64(160), models.Float64(800)), models.PhaseTakeoff},
		{"climbing", fromFt(6000, models.Float64(250), models.Float64(1200)), models.PhaseClimb},
		{"level cruise", fromFt(20000, models.Float64(450), models.Float64(0)), models.PhaseCruise},
		{"approach", fromFt(2000, models.Float64(180), models.Float64(-500)), models.PhaseApproach},
		{"descending", fromFt(8000, models.Float64(300), models.Float64(-600)), models.PhaseDescent},
		{"missing vertical rate airborne", fromFt(5000, models.Float64(250), nil), models.PhaseUnknown},
		{"level below cruise band", fromFt(5000, models.Float64(250), models.Float64(0)), models.PhaseUnknown},
	}

	c := NewClassifier(10000)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.Classify([]*models.EnrichedRecord{tt.rec})
			assert.Equal(t, tt.want, tt.rec.FlightPhase)
		})
	}
}

func TestMissingAltitudeIsUnknown(t *testing.T) {
	r := &models.EnrichedRecord{RawRecord: models.RawRecord{ICAO24: "abc", Timestamp: 1}}
	NewClassifier(10000).Classify([]*models.EnrichedRecord{r})
	assert.Equal(t, models.PhaseUnknown, r.FlightPhase)
}

func TestSpeedCategories(t *testing.T) {
	tests := []struct {
		knots float64
		want  models.SpeedCategory
	}{
		{0, models.SpeedStationary},
		{15, models.SpeedTaxi},
		{100, models.SpeedLow},
		{300, models.SpeedMedium},
		{500, models.SpeedHigh},
		{700, models.SpeedSupersonic},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, speedCategory(models.Float64(tt.knots)), "knots=%v", tt.knots)
	}
	assert.Equal(t, models.SpeedStationary, speedCategory(nil))
}
