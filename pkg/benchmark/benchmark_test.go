package benchmark

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
)

func TestGenerateComposition(t *testing.T) {
	data, err := Generate(DatasetConfig{
		Size:           1000,
		DuplicateRatio: 0.1,
		MalformedRatio: 0.05,
		Seed:           42,
	})
	require.NoError(t, err)

	var elements []json.RawMessage
	require.NoError(t, json.Unmarshal(data, &elements))
	assert.Len(t, elements, 1150)
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(DatasetConfig{Size: 100, Seed: 7})
	require.NoError(t, err)
	b, err := Generate(DatasetConfig{Size: 100, Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRunSuiteSmall(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping benchmark suite in short mode")
	}

	report, err := RunSuite(context.Background(), SuiteConfig{
		DatasetSize: 500,
		Iterations:  1,
		Seed:        1,
	}, nil)
	require.NoError(t, err)

	require.Len(t, report.Results, len(Scenarios()))
	assert.Equal(t, BaselineScenario, report.Results[0].ScenarioName)
	for _, r := range report.Results {
		assert.Equal(t, 500, r.DatasetSize)
		assert.Greater(t, r.Throughput, 0.0)
	}
	// one comparison per non-baseline scenario
	assert.Len(t, report.Comparisons, len(Scenarios())-1)
}

func TestCompareDeltas(t *testing.T) {
	results := []models.BenchmarkResult{
		{ScenarioName: BaselineScenario, Duration: 2 * time.Second, PeakMemory: 1000, Throughput: 100},
		{ScenarioName: "full-optimization", Duration: time.Second, PeakMemory: 1200, Throughput: 200},
	}

	comparisons := compare(results)
	require.Len(t, comparisons, 1)
	c := comparisons[0]
	assert.InDelta(t, -50, c.DurationPct, 1e-9)
	assert.InDelta(t, 20, c.MemoryPct, 1e-9)
	assert.InDelta(t, 100, c.ThroughputPct, 1e-9)
}

func TestCompareWithoutBaseline(t *testing.T) {
	assert.Nil(t, compare([]models.BenchmarkResult{{ScenarioName: "x"}}))
}
