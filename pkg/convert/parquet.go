package convert

import (
	"bytes"
	"context"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/errors"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
)

// writeParquet encodes records as an uncompressed Parquet file. Payload
// compression happens one layer up so the checksum always covers the
// uncompressed container; dictionary encoding follows the inferred schema.
func writeParquet(records []*models.EnrichedRecord, schema *Schema) ([]byte, error) {
	pool := memory.NewGoAllocator()
	arrowSchema := schema.ArrowSchema()

	builder := array.NewRecordBuilder(pool, arrowSchema)
	defer builder.Release()

	for _, rec := range records {
		appendRecord(builder, rec)
	}
	record := builder.NewRecord()
	defer record.Release()

	props := []parquet.WriterProperty{
		parquet.WithCompression(compress.Codecs.Uncompressed),
		parquet.WithDictionaryDefault(false),
	}
	for _, col := range schema.DictionaryColumns {
		props = append(props, parquet.WithDictionaryFor(col, true))
	}

	var buf bytes.Buffer
	fw, err := pqarrow.NewFileWriter(arrowSchema, &buf,
		parquet.NewWriterProperties(props...),
		pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(pool)))
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConversion, "failed to create parquet writer")
	}
	if err := fw.WriteBuffered(record); err != nil {
		return nil, errors.Wrap(err, errors.KindConversion, "failed to write parquet record batch")
	}
	if err := fw.Close(); err != nil {
		return nil, errors.Wrap(err, errors.KindConversion, "failed to finalize parquet file")
	}
	return buf.Bytes(), nil
}

func appendRecord(b *array.RecordBuilder, rec *models.EnrichedRecord) {
	b.Field(0).(*array.StringBuilder).Append(rec.ICAO24)
	b.Field(1).(*array.Int64Builder).Append(rec.Timestamp)
	appendFloat(b.Field(2).(*array.Float64Builder), rec.Latitude)
	appendFloat(b.Field(3).(*array.Float64Builder), rec.Longitude)
	appendFloat(b.Field(4).(*array.Float64Builder), rec.AltitudeM)
	appendFloat(b.Field(5).(*array.Float64Builder), rec.VelocityMps)
	appendFloat(b.Field(6).(*array.Float64Builder), rec.Heading)
	appendFloat(b.Field(7).(*array.Float64Builder), rec.VerticalRate)
	b.Field(8).(*array.BooleanBuilder).Append(rec.OnGround)
	appendString(b.Field(9).(*array.StringBuilder), rec.Callsign)
	appendFloat(b.Field(10).(*array.Float64Builder), rec.AltitudeFt)
	appendFloat(b.Field(11).(*array.Float64Builder), rec.SpeedKnots)
	appendFloat(b.Field(12).(*array.Float64Builder), rec.DistanceFromPrev)
	b.Field(13).(*array.StringBuilder).Append(string(rec.FlightPhase))
	b.Field(14).(*array.StringBuilder).Append(string(rec.SpeedCategory))
	appendString(b.Field(15).(*array.StringBuilder), joinFlags(rec.QualityFlags))
}

func appendFloat(b *array.Float64Builder, v *float64) {
	if v == nil {
		b.AppendNull()
		return
	}
	b.Append(*v)
}

func appendString(b *array.StringBuilder, s string) {
	if s == "" {
		b.AppendNull()
		return
	}
	b.Append(s)
}

func joinFlags(flags []models.QualityFlag) string {
	if len(flags) == 0 {
		return ""
	}
	parts := make([]string, len(flags))
	for i, f := range flags {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}

func splitFlags(joined string) []string {
	return strings.Split(joined, ",")
}

// readParquet decodes a Parquet payload back into enriched records.
func readParquet(data []byte) ([]*models.EnrichedRecord, error) {
	fr, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConversion, "failed to open parquet file")
	}
	defer fr.Close()

	ar, err := pqarrow.NewFileReader(fr, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConversion, "failed to create arrow reader")
	}

	rr, err := ar.GetRecordReader(context.Background(), nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConversion, "failed to read parquet record batches")
	}
	defer rr.Release()

	var out []*models.EnrichedRecord
	for rr.Next() {
		batch := rr.Record()
		for row := 0; row < int(batch.NumRows()); row++ {
			out = append(out, rowToRecord(batch, row))
		}
	}
	return out, nil
}

func rowToRecord(batch arrow.Record, row int) *models.EnrichedRecord {
	rec := &models.EnrichedRecord{}
	rec.ICAO24 = batch.Column(0).(*array.String).Value(row)
	rec.Timestamp = batch.Column(1).(*array.Int64).Value(row)
	rec.Latitude = floatAt(batch.Column(2), row)
	rec.Longitude = floatAt(batch.Column(3), row)
	rec.AltitudeM = floatAt(batch.Column(4), row)
	rec.VelocityMps = floatAt(batch.Column(5), row)
	rec.Heading = floatAt(batch.Column(6), row)
	rec.VerticalRate = floatAt(batch.Column(7), row)
	rec.OnGround = batch.Column(8).(*array.Boolean).Value(row)
	rec.Callsign = stringAt(batch.Column(9), row)
	rec.AltitudeFt = floatAt(batch.Column(10), row)
	rec.SpeedKnots = floatAt(batch.Column(11), row)
	rec.DistanceFromPrev = floatAt(batch.Column(12), row)
	rec.FlightPhase = models.FlightPhase(batch.Column(13).(*array.String).Value(row))
	rec.SpeedCategory = models.SpeedCategory(batch.Column(14).(*array.String).Value(row))
	if flags := stringAt(batch.Column(15), row); flags != "" {
		for _, f := range splitFlags(flags) {
			rec.QualityFlags = append(rec.QualityFlags, models.QualityFlag(f))
		}
	}
	return rec
}

func floatAt(col arrow.Array, row int) *float64 {
	a := col.(*array.Float64)
	if a.IsNull(row) {
		return nil
	}
	return models.Float64(a.Value(row))
}

func stringAt(col arrow.Array, row int) string {
	a := col.(*array.String)
	if a.IsNull(row) {
		return ""
	}
	return a.Value(row)
}
