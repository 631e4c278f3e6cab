package convert

import (
	"bytes"

	"github.com/linkedin/goavro/v2"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/errors"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/performance"
)

// avroSchema is the OCF record schema matching the Arrow layout.
const avroSchema = `{
  "type": "record",
  "name": "FlightState",
  "namespace": "flightetl",
  "fields": [
    {"name": "icao24", "type": "string"},
    {"name": "timestamp", "type": "long"},
    {"name": "latitude", "type": ["null", "double"], "default": null},
    {"name": "longitude", "type": ["null", "double"], "default": null},
    {"name": "altitude_m", "type": ["null", "double"], "default": null},
    {"name": "velocity_mps", "type": ["null", "double"], "default": null},
    {"name": "heading", "type": ["null", "double"], "default": null},
    {"name": "vertical_rate_mps", "type": ["null", "double"], "default": null},
    {"name": "on_ground", "type": "boolean"},
    {"name": "callsign", "type": ["null", "string"], "default": null},
    {"name": "altitude_ft", "type": ["null", "double"], "default": null},
    {"name": "speed_knots", "type": ["null", "double"], "default": null},
    {"name": "distance_from_prev_km", "type": ["null", "double"], "default": null},
    {"name": "flight_phase", "type": "string"},
    {"name": "speed_category", "type": "string"},
    {"name": "quality_flags", "type": ["null", "string"], "default": null}
  ]
}`

// Compiling the codec walks the whole schema; one shared instance serves
// all conversions for the process lifetime.
var avroCodec = performance.NewLazy(func() (*goavro.Codec, error) {
	return goavro.NewCodec(avroSchema)
})

// writeAvro encodes records as an Avro OCF container. The container itself
// is uncompressed; payload compression happens one layer up.
func writeAvro(records []*models.EnrichedRecord) ([]byte, error) {
	codec, err := avroCodec.Get()
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConversion, "failed to build avro codec")
	}

	var buf bytes.Buffer
	w, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               &buf,
		Codec:           codec,
		CompressionName: goavro.CompressionNullLabel,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConversion, "failed to create avro OCF writer")
	}

	native := make([]interface{}, 0, len(records))
	for _, rec := range records {
		native = append(native, toAvroNative(rec))
	}
	if err := w.Append(native); err != nil {
		return nil, errors.Wrap(err, errors.KindConversion, "failed to append avro records")
	}
	return buf.Bytes(), nil
}

func toAvroNative(rec *models.EnrichedRecord) map[string]interface{} {
	return map[string]interface{}{
		"icao24":                rec.ICAO24,
		"timestamp":             rec.Timestamp,
		"latitude":              avroDouble(rec.Latitude),
		"longitude":             avroDouble(rec.Longitude),
		"altitude_m":            avroDouble(rec.AltitudeM),
		"velocity_mps":          avroDouble(rec.VelocityMps),
		"heading":               avroDouble(rec.Heading),
		"vertical_rate_mps":     avroDouble(rec.VerticalRate),
		"on_ground":             rec.OnGround,
		"callsign":              avroString(rec.Callsign),
		"altitude_ft":           avroDouble(rec.AltitudeFt),
		"speed_knots":           avroDouble(rec.SpeedKnots),
		"distance_from_prev_km": avroDouble(rec.DistanceFromPrev),
		"flight_phase":          string(rec.FlightPhase),
		"speed_category":        string(rec.SpeedCategory),
		"quality_flags":         avroString(joinFlags(rec.QualityFlags)),
	}
}

func avroDouble(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return map[string]interface{}{"double": *v}
}

func avroString(s string) interface{} {
	if s == "" {
		return nil
	}
	return map[string]interface{}{"string": s}
}

// readAvro decodes an OCF payload back into enriched records.
func readAvro(data []byte) ([]*models.EnrichedRecord, error) {
	r, err := goavro.NewOCFReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConversion, "failed to open avro OCF payload")
	}

	var out []*models.EnrichedRecord
	for r.Scan() {
		datum, err := r.Read()
		if err != nil {
			return nil, errors.Wrap(err, errors.KindConversion, "failed to read avro record")
		}
		fields, ok := datum.(map[string]interface{})
		if !ok {
			return nil, errors.New(errors.KindConversion, "unexpected avro datum shape")
		}
		out = append(out, fromAvroNative(fields))
	}
	if err := r.Err(); err != nil {
		return nil, errors.Wrap(err, errors.KindConversion, "avro scan failed")
	}
	return out, nil
}

func fromAvroNative(fields map[string]interface{}) *models.EnrichedRecord {
	rec := &models.EnrichedRecord{}
	rec.ICAO24, _ = fields["icao24"].(string)
	if ts, ok := fields["timestamp"].(int64); ok {
		rec.Timestamp = ts
	}
	rec.Latitude = nativeDouble(fields["latitude"])
	rec.Longitude = nativeDouble(fields["longitude"])
	rec.AltitudeM = nativeDouble(fields["altitude_m"])
	rec.VelocityMps = nativeDouble(fields["velocity_mps"])
	rec.Heading = nativeDouble(fields["heading"])
	rec.VerticalRate = nativeDouble(fields["vertical_rate_mps"])
	rec.OnGround, _ = fields["on_ground"].(bool)
	rec.Callsign = nativeString(fields["callsign"])
	rec.AltitudeFt = nativeDouble(fields["altitude_ft"])
	rec.SpeedKnots = nativeDouble(fields["speed_knots"])
	rec.DistanceFromPrev = nativeDouble(fields["distance_from_prev_km"])
	if s, ok := fields["flight_phase"].(string); ok {
		rec.FlightPhase = models.FlightPhase(s)
	}
	if s, ok := fields["speed_category"].(string); ok {
		rec.SpeedCategory = models.SpeedCategory(s)
	}
	if flags := nativeString(fields["quality_flags"]); flags != "" {
		for _, f := range splitFlags(flags) {
			rec.QualityFlags = append(rec.QualityFlags, models.QualityFlag(f))
		}
	}
	return rec
}

func nativeDouble(v interface{}) *float64 {
	union, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	if d, ok := union["double"].(float64); ok {
		return models.Float64(d)
	}
	return nil
}

func nativeString(v interface{}) string {
	union, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	s, _ := union["string"].(string)
	return s
}
