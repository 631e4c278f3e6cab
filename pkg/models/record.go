// Package models defines the data model for the flight ETL core: raw
// flight-state observations, enriched records, chunks, and the result types
// flowing between the conversion, transformation and resilience layers.
package models

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/errors"
)

// Unit conversion factors.
const (
	MetersToFeet    = 3.28084
	MpsToKnots      = 1.94384
	MpsToFeetPerMin = 196.850394
	EarthRadiusKm   = 6371.0
)

// RawRecord is one flight-state observation as delivered by the data source.
// Optional numeric fields are pointers so a missing value is distinguishable
// from zero; immutable once read.
type RawRecord struct {
	ICAO24       string   `json:"icao24"`
	Timestamp    int64    `json:"timestamp"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	AltitudeM    *float64 `json:"altitude_m"`
	VelocityMps  *float64 `json:"velocity_mps"`
	Heading      *float64 `json:"heading"`
	VerticalRate *float64 `json:"vertical_rate_mps"`
	OnGround     bool     `json:"on_ground"`
	Callsign     string   `json:"callsign"`
}

// Validate checks the record against the input schema. Violations are
// tagged DataQuality; they fail the record, never the whole input.
func (r *RawRecord) Validate() error {
	if r.ICAO24 == "" {
		return errors.New(errors.KindDataQuality, "missing required field icao24")
	}
	if r.Timestamp <= 0 {
		return errors.New(errors.KindDataQuality, "missing or invalid timestamp").
			WithDetail("icao24", r.ICAO24)
	}
	if r.Latitude != nil && (*r.Latitude < -90 || *r.Latitude > 90) {
		return errors.New(errors.KindDataQuality, "latitude out of range").
			WithDetail("icao24", r.ICAO24).
			WithDetail("latitude", *r.Latitude)
	}
	if r.Longitude != nil && (*r.Longitude < -180 || *r.Longitude > 180) {
		return errors.New(errors.KindDataQuality, "longitude out of range").
			WithDetail("icao24", r.ICAO24).
			WithDetail("longitude", *r.Longitude)
	}
	return nil
}

// QualityScore counts the populated optional fields. Used to pick the
// surviving record under the best-quality dedup strategy and to enforce
// the configured quality threshold.
func (r *RawRecord) QualityScore() int {
	score := 0
	for _, p := range []*float64{r.Latitude, r.Longitude, r.AltitudeM, r.VelocityMps, r.Heading, r.VerticalRate} {
		if p != nil {
			score++
		}
	}
	if r.Callsign != "" {
		score++
	}
	return score
}

// Key identifies the deduplication group of the record.
func (r *RawRecord) Key() RecordKey {
	return RecordKey{ICAO24: r.ICAO24, Timestamp: r.Timestamp}
}

// RecordKey is the (aircraft, observation time) identity of a record.
type RecordKey struct {
	ICAO24    string
	Timestamp int64
}

// FlightPhase is the derived operating state of an aircraft.
type FlightPhase string

const (
	PhaseGround   FlightPhase = "GROUND"
	PhaseTaxi     FlightPhase = "TAXI"
	PhaseTakeoff  FlightPhase = "TAKEOFF"
	PhaseClimb    FlightPhase = "CLIMB"
	PhaseCruise   FlightPhase = "CRUISE"
	PhaseApproach FlightPhase = "APPROACH"
	PhaseDescent  FlightPhase = "DESCENT"
	PhaseUnknown  FlightPhase = "UNKNOWN"
)

// SpeedCategory buckets ground speed into fixed knot bands.
type SpeedCategory string

const (
	SpeedStationary SpeedCategory = "STATIONARY"
	SpeedTaxi       SpeedCategory = "TAXI"
	SpeedLow        SpeedCategory = "LOW"
	SpeedMedium     SpeedCategory = "MEDIUM"
	SpeedHigh       SpeedCategory = "HIGH"
	SpeedSupersonic SpeedCategory = "SUPERSONIC"
)

// QualityFlag records a repair applied to a record during transformation.
type QualityFlag string

const (
	FlagImputedPosition    QualityFlag = "imputed_position"
	FlagImputedAltitude    QualityFlag = "imputed_altitude"
	FlagImputedVelocity    QualityFlag = "imputed_velocity"
	FlagFilledForward      QualityFlag = "filled_forward"
	FlagFilledBackward     QualityFlag = "filled_backward"
	FlagStatisticalDefault QualityFlag = "statistical_default"
	FlagDeduplicated       QualityFlag = "deduplicated"
)

// EnrichedRecord is a surviving RawRecord plus derived analytics fields.
type EnrichedRecord struct {
	RawRecord

	AltitudeFt       *float64      `json:"altitude_ft"`
	SpeedKnots       *float64      `json:"speed_knots"`
	DistanceFromPrev *float64      `json:"distance_from_prev_km"`
	FlightPhase      FlightPhase   `json:"flight_phase"`
	SpeedCategory    SpeedCategory `json:"speed_category"`
	QualityFlags     []QualityFlag `json:"quality_flags,omitempty"`
}

// AddFlag appends a quality flag if it is not already present.
func (e *EnrichedRecord) AddFlag(flag QualityFlag) {
	for _, f := range e.QualityFlags {
		if f == flag {
			return
		}
	}
	e.QualityFlags = append(e.QualityFlags, flag)
}

// HasFlag reports whether the record carries the given quality flag.
func (e *EnrichedRecord) HasFlag(flag QualityFlag) bool {
	for _, f := range e.QualityFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// Chunk is a bounded ordered batch of raw records processed as a unit.
// Created during input splitting, consumed by the transform pipeline and
// discarded; never persisted.
type Chunk struct {
	ID           int
	Records      []RawRecord
	SourceOffset int
}

// Len returns the number of records in the chunk.
func (c *Chunk) Len() int {
	return len(c.Records)
}

// ConversionResult describes one written columnar output unit.
type ConversionResult struct {
	Location         string  `json:"location"`
	RecordCount      int     `json:"record_count"`
	CompressionRatio float64 `json:"compression_ratio"`
	SchemaVersion    string  `json:"schema_version"`
	Checksum         string  `json:"checksum"`
}

// ErrorRecord is a failed unit of work held in the dead-letter store.
// The payload preserves the original record bytes so the unit can be
// resubmitted unchanged.
type ErrorRecord struct {
	ID               string          `json:"id"`
	Payload          json.RawMessage `json:"payload"`
	Kind             errors.Kind     `json:"error_kind"`
	AttemptCount     int             `json:"attempt_count"`
	LastErrorMessage string          `json:"last_error_message"`
	FirstSeenAt      time.Time       `json:"first_seen_at"`
	LastSeenAt       time.Time       `json:"last_seen_at"`
}

// ChunkResult is the per-chunk accounting merged into the batch summary.
// Invariant: SuccessCount + FailureCount + DuplicatesRemoved equals the
// chunk's input record count.
type ChunkResult struct {
	ChunkID           int
	SuccessCount      int
	FailureCount      int
	DuplicatesRemoved int
	Output            *ConversionResult
	Errors            []ErrorRecord
}

// RunStatus is the terminal state of one pipeline invocation.
type RunStatus string

const (
	RunCompleted RunStatus = "COMPLETED"
	RunPartial   RunStatus = "PARTIAL"
	RunFailed    RunStatus = "FAILED"
)

// ExecutionSummary is returned by the pipeline entry points.
type ExecutionSummary struct {
	RunID             string        `json:"run_id"`
	Status            RunStatus     `json:"status"`
	SuccessCount      int           `json:"success_count"`
	FailureCount      int           `json:"failure_count"`
	DuplicatesRemoved int           `json:"duplicates_removed"`
	OutputReferences  []string      `json:"output_references"`
	ErrorReferences   []string      `json:"error_references"`
	UnprocessedChunks []int         `json:"unprocessed_chunks,omitempty"`
	Duration          time.Duration `json:"duration"`
}

// BenchmarkResult captures one benchmark scenario run.
type BenchmarkResult struct {
	ScenarioName string        `json:"scenario_name"`
	DatasetSize  int           `json:"dataset_size"`
	Duration     time.Duration `json:"duration"`
	PeakMemory   uint64        `json:"peak_memory_bytes"`
	Throughput   float64       `json:"throughput_rps"`
}

// Float64 returns a pointer to v. Convenience for building records.
func Float64(v float64) *float64 {
	return &v
}
