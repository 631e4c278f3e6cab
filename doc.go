// Package flightetl is the processing core of a flight-data ETL pipeline.
//
// It converts raw flight-state observations (JSON arrays of per-aircraft
// position reports) into compressed columnar outputs, applying a fixed
// transformation order on the way: deduplication, gap imputation, unit
// enrichment and flight-phase classification.
//
// # Architecture
//
// The core is organized around a narrow object-storage boundary. The pipeline
// reads one input object, splits it into bounded chunks, pushes each chunk
// through the transform steps and a Parquet or Avro writer, and writes the
// result plus a JSON manifest back through the same boundary. Failed records
// land in a dead-letter store keyed by error kind and can be resubmitted.
//
// Execution is guarded end to end: every outbound operation runs inside a
// named circuit breaker and a kind-specific retry policy, a memory monitor
// shrinks chunk sizes under pressure, and a wall-clock budget aborts
// scheduling without silently dropping chunks.
//
// # Packages
//
//   - pkg/convert: input parsing, schema inference, Parquet/Avro writers
//   - pkg/transform: dedup, imputation, enrichment, phase classification
//   - pkg/performance: cache, client pool, lazy init, memory monitor, executor
//   - pkg/resilience: retry policies, circuit breakers, dead-letter manager
//   - pkg/pipeline: the orchestrator tying the above together
//   - pkg/benchmark: synthetic datasets and the scenario suite
//
// The flightetl CLI under cmd/flightetl exposes process, reprocess, health
// and benchmark commands.
package flightetl
