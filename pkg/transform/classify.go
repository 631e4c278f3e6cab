package transform

import (
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
)

// Phase rule thresholds, in feet / knots / feet-per-minute.
const (
	groundAltitudeFt = 100
	groundSpeedKnots = 5
	taxiSpeedKnots   = 30
	lowAltitudeFt    = 3000
	climbRateFpm     = 500
	descentRateFpm   = -300
	cruiseBandFpm    = 300
	defaultCruiseFt  = 10000
)

// Classifier assigns flight phases and speed categories. Rules are evaluated
// in a fixed priority order; the first matching rule wins.
type Classifier struct {
	// CruiseThresholdFt is the CLIMB ceiling; at or above it a level
	// aircraft is CRUISE.
	CruiseThresholdFt float64
}

// NewClassifier returns a Classifier with the given cruise threshold.
func NewClassifier(cruiseThresholdFt float64) *Classifier {
	if cruiseThresholdFt <= 0 {
		cruiseThresholdFt = defaultCruiseFt
	}
	return &Classifier{CruiseThresholdFt: cruiseThresholdFt}
}

// Classify sets FlightPhase and SpeedCategory on every record in place.
func (c *Classifier) Classify(records []*models.EnrichedRecord) {
	for _, r := range records {
		r.FlightPhase = c.phase(r)
		r.SpeedCategory = speedCategory(r.SpeedKnots)
	}
}

// phase evaluates the rules in priority order:
// GROUND, TAXI, TAKEOFF, CLIMB, CRUISE, APPROACH, DESCENT, UNKNOWN.
// GROUND and TAXI need only altitude and speed; every later rule needs the
// vertical rate, so a missing vertical rate yields UNKNOWN past TAXI.
func (c *Classifier) phase(r *models.EnrichedRecord) models.FlightPhase {
	if r.AltitudeFt == nil {
		return models.PhaseUnknown
	}
	alt := *r.AltitudeFt

	if r.SpeedKnots != nil && alt <= groundAltitudeFt {
		speed := *r.SpeedKnots
		if speed <= groundSpeedKnots {
			return models.PhaseGround
		}
		if speed <= taxiSpeedKnots {
			return models.PhaseTaxi
		}
	}

	if r.VerticalRate == nil {
		return models.PhaseUnknown
	}
	rate := *r.VerticalRate * models.MpsToFeetPerMin

	switch {
	case alt < lowAltitudeFt && rate > climbRateFpm:
		return models.PhaseTakeoff
	case alt < c.CruiseThresholdFt && rate > climbRateFpm:
		return models.PhaseClimb
	case alt >= defaultCruiseFt && rate > -cruiseBandFpm && rate < cruiseBandFpm:
		return models.PhaseCruise
	case alt < lowAltitudeFt && rate < descentRateFpm:
		return models.PhaseApproach
	case rate < descentRateFpm:
		return models.PhaseDescent
	default:
		return models.PhaseUnknown
	}
}

// Speed category bands in knots.
const (
	stationaryMaxKnots = 1
	taxiMaxKnots       = 30
	lowMaxKnots        = 150
	mediumMaxKnots     = 400
	highMaxKnots       = 661 // Mach 1 at sea level
)

func speedCategory(speedKnots *float64) models.SpeedCategory {
	if speedKnots == nil {
		return models.SpeedStationary
	}
	s := *speedKnots
	switch {
	case s < stationaryMaxKnots:
		return models.SpeedStationary
	case s <= taxiMaxKnots:
		return models.SpeedTaxi
	case s <= lowMaxKnots:
		return models.SpeedLow
	case s <= mediumMaxKnots:
		return models.SpeedMedium
	case s <= highMaxKnots:
		return models.SpeedHigh
	default:
		return models.SpeedSupersonic
	}
}
