package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSpansWorkWithoutInit(t *testing.T) {
	ctx, span := StartRunSpan(context.Background(), "run-1", "input/day1.json")
	span.End()

	_, chunkSpan := StartChunkSpan(ctx, 3, 5000)
	chunkSpan.End()
}
