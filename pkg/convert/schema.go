// Package convert implements the conversion engine: parsing and chunking the
// raw JSON input, inferring the output schema, and writing/reading the
// columnar output containers.
package convert

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
)

// SchemaVersion identifies the output column layout.
const SchemaVersion = "1"

// Column names of the columnar output, in field order.
const (
	ColICAO24        = "icao24"
	ColTimestamp     = "timestamp"
	ColLatitude      = "latitude"
	ColLongitude     = "longitude"
	ColAltitudeM     = "altitude_m"
	ColVelocityMps   = "velocity_mps"
	ColHeading       = "heading"
	ColVerticalRate  = "vertical_rate_mps"
	ColOnGround      = "on_ground"
	ColCallsign      = "callsign"
	ColAltitudeFt    = "altitude_ft"
	ColSpeedKnots    = "speed_knots"
	ColDistanceKm    = "distance_from_prev_km"
	ColFlightPhase   = "flight_phase"
	ColSpeedCategory = "speed_category"
	ColQualityFlags  = "quality_flags"
)

// Schema is the inferred output schema: a fixed column layout plus the
// per-column dictionary-encoding decision taken from a sample of the input.
type Schema struct {
	Version           string
	DictionaryColumns []string
}

// InferSchema samples the leading records and decides which string columns
// get dictionary encoding: a column qualifies when its distinct-value ratio
// over the sample is at or below threshold.
func InferSchema(sample []models.RawRecord, threshold float64) *Schema {
	s := &Schema{Version: SchemaVersion}
	if len(sample) == 0 {
		return s
	}
	if threshold <= 0 {
		threshold = 0.1
	}

	stringCols := []struct {
		name string
		get  func(*models.RawRecord) string
	}{
		{ColICAO24, func(r *models.RawRecord) string { return r.ICAO24 }},
		{ColCallsign, func(r *models.RawRecord) string { return r.Callsign }},
	}

	for _, col := range stringCols {
		distinct := make(map[string]struct{}, len(sample))
		for i := range sample {
			distinct[col.get(&sample[i])] = struct{}{}
		}
		ratio := float64(len(distinct)) / float64(len(sample))
		if ratio <= threshold {
			s.DictionaryColumns = append(s.DictionaryColumns, col.name)
		}
	}
	return s
}

// ArrowSchema returns the Arrow schema for the columnar output.
func (s *Schema) ArrowSchema() *arrow.Schema {
	f64 := arrow.PrimitiveTypes.Float64
	str := arrow.BinaryTypes.String
	return arrow.NewSchema([]arrow.Field{
		{Name: ColICAO24, Type: str},
		{Name: ColTimestamp, Type: arrow.PrimitiveTypes.Int64},
		{Name: ColLatitude, Type: f64, Nullable: true},
		{Name: ColLongitude, Type: f64, Nullable: true},
		{Name: ColAltitudeM, Type: f64, Nullable: true},
		{Name: ColVelocityMps, Type: f64, Nullable: true},
		{Name: ColHeading, Type: f64, Nullable: true},
		{Name: ColVerticalRate, Type: f64, Nullable: true},
		{Name: ColOnGround, Type: arrow.FixedWidthTypes.Boolean},
		{Name: ColCallsign, Type: str, Nullable: true},
		{Name: ColAltitudeFt, Type: f64, Nullable: true},
		{Name: ColSpeedKnots, Type: f64, Nullable: true},
		{Name: ColDistanceKm, Type: f64, Nullable: true},
		{Name: ColFlightPhase, Type: str},
		{Name: ColSpeedCategory, Type: str},
		{Name: ColQualityFlags, Type: str, Nullable: true},
	}, nil)
}
