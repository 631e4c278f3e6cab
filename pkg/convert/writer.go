package convert

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/compression"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/config"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/errors"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
)

// Converter turns transformed records into a compressed columnar payload and
// back. The checksum covers the uncompressed container, so identical record
// content always yields the same checksum regardless of compression timing.
type Converter struct {
	format     string
	compressor compression.Compressor
	logger     *zap.Logger
}

// NewConverter builds a Converter from output configuration.
func NewConverter(cfg config.OutputConfig, logger *zap.Logger) (*Converter, error) {
	switch cfg.Format {
	case "parquet", "avro":
	default:
		return nil, errors.New(errors.KindPermanent, "unsupported output format").
			WithDetail("format", cfg.Format)
	}

	alg, err := compression.ParseAlgorithm(cfg.CompressionAlgorithm)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindPermanent, "invalid compression algorithm")
	}
	comp, err := compression.NewCompressor(&compression.Config{
		Algorithm: alg,
		Level:     compression.Level(cfg.CompressionLevel),
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.KindPermanent, "failed to build compressor")
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		format:     cfg.Format,
		compressor: comp,
		logger:     logger.With(zap.String("component", "converter")),
	}, nil
}

// Convert encodes records into the configured container, compresses the
// payload and returns it with its manifest. The manifest's Location is
// filled in by the caller once the object reference is known.
func (c *Converter) Convert(records []*models.EnrichedRecord, schema *Schema) ([]byte, *models.ConversionResult, error) {
	var raw []byte
	var err error
	switch c.format {
	case "avro":
		raw, err = writeAvro(records)
	default:
		raw, err = writeParquet(records, schema)
	}
	if err != nil {
		return nil, nil, err
	}

	payload, err := c.compressor.Compress(raw)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.KindConversion, "failed to compress payload")
	}

	result := &models.ConversionResult{
		RecordCount:      len(records),
		CompressionRatio: compression.Ratio(len(raw), len(payload)),
		SchemaVersion:    schema.Version,
		Checksum:         Checksum(raw),
	}
	c.logger.Debug("chunk converted",
		zap.Int("records", len(records)),
		zap.Int("uncompressed_bytes", len(raw)),
		zap.Int("payload_bytes", len(payload)),
		zap.String("checksum", result.Checksum))
	return payload, result, nil
}

// Read decompresses and decodes a payload produced by Convert.
func (c *Converter) Read(payload []byte) ([]*models.EnrichedRecord, error) {
	raw, err := c.compressor.Decompress(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConversion, "failed to decompress payload")
	}
	if c.format == "avro" {
		return readAvro(raw)
	}
	return readParquet(raw)
}

// Extension returns the file extension for the configured format.
func (c *Converter) Extension() string {
	if c.format == "avro" {
		return "avro"
	}
	return "parquet"
}

// ObjectReference builds the output reference for a chunk.
func (c *Converter) ObjectReference(prefix, runID string, chunkID int) string {
	return fmt.Sprintf("%s/%s/chunk-%05d.%s", prefix, runID, chunkID, c.Extension())
}
