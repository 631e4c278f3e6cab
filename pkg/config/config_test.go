package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PipelineConfig)
	}{
		{"empty name", func(c *PipelineConfig) { c.Name = "" }},
		{"zero chunk size", func(c *PipelineConfig) { c.Chunking.ChunkSize = 0 }},
		{"bad format", func(c *PipelineConfig) { c.Output.Format = "orc" }},
		{"bad dedup strategy", func(c *PipelineConfig) { c.Transform.DedupStrategy = "random" }},
		{"negative retries", func(c *PipelineConfig) { c.Resilience.MaxRetries = -1 }},
		{"zero failure threshold", func(c *PipelineConfig) { c.Resilience.FailureThreshold = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadAppliesDefaultsAndEnv(t *testing.T) {
	t.Setenv("FLIGHT_ETL_PREFIX", "env-prefix")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
name: test-pipeline
chunking:
  chunk_size: 250
output:
  prefix: ${FLIGHT_ETL_PREFIX}
resilience:
  max_retries: 7
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test-pipeline", cfg.Name)
	assert.Equal(t, 250, cfg.Chunking.ChunkSize)
	assert.Equal(t, "env-prefix", cfg.Output.Prefix)
	assert.Equal(t, 7, cfg.Resilience.MaxRetries)
	// untouched sections keep defaults
	assert.Equal(t, "parquet", cfg.Output.Format)
	assert.Equal(t, 5*time.Minute, cfg.Performance.CacheTTL)
}
