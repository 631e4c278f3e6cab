package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		record  RawRecord
		wantErr bool
	}{
		{
			name:   "valid minimal",
			record: RawRecord{ICAO24: "abc123", Timestamp: 1700000000},
		},
		{
			name:    "missing icao24",
			record:  RawRecord{Timestamp: 1700000000},
			wantErr: true,
		},
		{
			name:    "missing timestamp",
			record:  RawRecord{ICAO24: "abc123"},
			wantErr: true,
		},
		{
			name:    "latitude out of range",
			record:  RawRecord{ICAO24: "abc123", Timestamp: 1700000000, Latitude: Float64(91)},
			wantErr: true,
		},
		{
			name:    "longitude out of range",
			record:  RawRecord{ICAO24: "abc123", Timestamp: 1700000000, Longitude: Float64(-181)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQualityScore(t *testing.T) {
	empty := RawRecord{ICAO24: "abc123", Timestamp: 1}
	assert.Equal(t, 0, empty.QualityScore())

	full := RawRecord{
		ICAO24:       "abc123",
		Timestamp:    1,
		Latitude:     Float64(52.3),
		Longitude:    Float64(4.7),
		AltitudeM:    Float64(11000),
		VelocityMps:  Float64(250),
		Heading:      Float64(90),
		VerticalRate: Float64(0),
		Callsign:     "KLM123",
	}
	assert.Equal(t, 7, full.QualityScore())
}

func TestEnrichedRecordFlags(t *testing.T) {
	var rec EnrichedRecord
	rec.AddFlag(FlagImputedAltitude)
	rec.AddFlag(FlagImputedAltitude)
	rec.AddFlag(FlagFilledForward)

	assert.Len(t, rec.QualityFlags, 2)
	assert.True(t, rec.HasFlag(FlagImputedAltitude))
	assert.False(t, rec.HasFlag(FlagStatisticalDefault))
}
