package transform

import (
	"math"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
)

// Enrich populates the calculated fields: altitude in feet, ground speed in
// knots and great-circle distance from the aircraft's previous observation.
func Enrich(records []*models.EnrichedRecord) {
	for _, r := range records {
		if r.AltitudeM != nil {
			r.AltitudeFt = models.Float64(*r.AltitudeM * models.MetersToFeet)
		}
		if r.VelocityMps != nil {
			r.SpeedKnots = models.Float64(*r.VelocityMps * models.MpsToKnots)
		}
	}

	for _, idxs := range groupByAircraft(records) {
		var prev *models.EnrichedRecord
		for _, i := range idxs {
			cur := records[i]
			if prev != nil && prev.Latitude != nil && prev.Longitude != nil &&
				cur.Latitude != nil && cur.Longitude != nil {
				d := Haversine(*prev.Latitude, *prev.Longitude, *cur.Latitude, *cur.Longitude)
				cur.DistanceFromPrev = models.Float64(d)
			}
			prev = cur
		}
	}
}

// Haversine returns the great-circle distance in kilometers between two
// points given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180

	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return models.EarthRadiusKm * c
}
