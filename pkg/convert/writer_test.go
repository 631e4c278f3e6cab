package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/config"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
)

func sampleEnriched() []*models.EnrichedRecord {
	full := &models.EnrichedRecord{
		RawRecord: models.RawRecord{
			ICAO24:       "abc123",
			Timestamp:    1700000000,
			Latitude:     models.Float64(52.3105),
			Longitude:    models.Float64(4.7683),
			AltitudeM:    models.Float64(11000),
			VelocityMps:  models.Float64(230),
			Heading:      models.Float64(87.5),
			VerticalRate: models.Float64(0.5),
			OnGround:     false,
			Callsign:     "KLM1234",
		},
		AltitudeFt:    models.Float64(36089.24),
		SpeedKnots:    models.Float64(447.08),
		FlightPhase:   models.PhaseCruise,
		SpeedCategory: models.SpeedHigh,
		QualityFlags:  []models.QualityFlag{models.FlagImputedAltitude, models.FlagFilledForward},
	}
	sparse := &models.EnrichedRecord{
		RawRecord: models.RawRecord{
			ICAO24:    "def456",
			Timestamp: 1700000010,
			OnGround:  true,
		},
		FlightPhase:   models.PhaseUnknown,
		SpeedCategory: models.SpeedStationary,
	}
	return []*models.EnrichedRecord{full, sparse}
}

func outputCfg(format, algorithm string) config.OutputConfig {
	cfg := config.Default().Output
	cfg.Format = format
	cfg.CompressionAlgorithm = algorithm
	return cfg
}

func assertSameRecords(t *testing.T, want, got []*models.EnrichedRecord) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ICAO24, got[i].ICAO24)
		assert.Equal(t, want[i].Timestamp, got[i].Timestamp)
		assert.Equal(t, want[i].OnGround, got[i].OnGround)
		assert.Equal(t, want[i].Callsign, got[i].Callsign)
		assert.Equal(t, want[i].FlightPhase, got[i].FlightPhase)
		assert.Equal(t, want[i].SpeedCategory, got[i].SpeedCategory)
		assert.Equal(t, want[i].QualityFlags, got[i].QualityFlags)
		assertSameFloat(t, want[i].Latitude, got[i].Latitude)
		assertSameFloat(t, want[i].Longitude, got[i].Longitude)
		assertSameFloat(t, want[i].AltitudeM, got[i].AltitudeM)
		assertSameFloat(t, want[i].VelocityMps, got[i].VelocityMps)
		assertSameFloat(t, want[i].AltitudeFt, got[i].AltitudeFt)
		assertSameFloat(t, want[i].DistanceFromPrev, got[i].DistanceFromPrev)
	}
}

func assertSameFloat(t *testing.T, want, got *float64) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got)
		return
	}
	require.NotNil(t, got)
	assert.InDelta(t, *want, *got, 1e-9)
}

func TestRoundTripParquet(t *testing.T) {
	records := sampleEnriched()
	schema := InferSchema([]models.RawRecord{records[0].RawRecord}, 0.5)

	conv, err := NewConverter(outputCfg("parquet", "snappy"), nil)
	require.NoError(t, err)

	payload, result, err := conv.Convert(records, schema)
	require.NoError(t, err)
	assert.Equal(t, 2, result.RecordCount)
	assert.Equal(t, SchemaVersion, result.SchemaVersion)
	assert.NotEmpty(t, result.Checksum)
	assert.Greater(t, result.CompressionRatio, 0.0)

	got, err := conv.Read(payload)
	require.NoError(t, err)
	assertSameRecords(t, records, got)
}

func TestRoundTripAvro(t *testing.T) {
	records := sampleEnriched()
	schema := InferSchema(nil, 0.1)

	conv, err := NewConverter(outputCfg("avro", "zstd"), nil)
	require.NoError(t, err)

	payload, result, err := conv.Convert(records, schema)
	require.NoError(t, err)
	assert.Equal(t, 2, result.RecordCount)

	got, err := conv.Read(payload)
	require.NoError(t, err)
	assertSameRecords(t, records, got)
}

func TestConvertDeterministicChecksum(t *testing.T) {
	records := sampleEnriched()
	schema := InferSchema(nil, 0.1)

	conv, err := NewConverter(outputCfg("avro", "gzip"), nil)
	require.NoError(t, err)

	_, r1, err := conv.Convert(records, schema)
	require.NoError(t, err)
	_, r2, err := conv.Convert(records, schema)
	require.NoError(t, err)
	assert.Equal(t, r1.Checksum, r2.Checksum)
}

func TestNewConverterRejectsBadConfig(t *testing.T) {
	_, err := NewConverter(outputCfg("orc", "snappy"), nil)
	assert.Error(t, err)

	_, err = NewConverter(outputCfg("parquet", "brotli"), nil)
	assert.Error(t, err)
}

func TestObjectReference(t *testing.T) {
	conv, err := NewConverter(outputCfg("parquet", "none"), nil)
	require.NoError(t, err)
	assert.Equal(t, "processed/run-1/chunk-00007.parquet", conv.ObjectReference("processed", "run-1", 7))
}

func TestChecksumStable(t *testing.T) {
	assert.Equal(t, Checksum([]byte("payload")), Checksum([]byte("payload")))
	assert.NotEqual(t, Checksum([]byte("a")), Checksum([]byte("b")))
	assert.Len(t, Checksum([]byte("x")), 8)
}
