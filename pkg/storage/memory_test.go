package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/errors"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
)

func TestMemoryObjectStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryObjectStore()

	require.NoError(t, s.Write(ctx, "input/day1.json", []byte("payload")))

	data, err := s.Read(ctx, "input/day1.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	_, err = s.Read(ctx, "missing")
	assert.Error(t, err)
	assert.Equal(t, 1, s.Len())
}

func errorRec(id string) models.ErrorRecord {
	now := time.Now().UTC()
	return models.ErrorRecord{
		ID:           id,
		Payload:      []byte(`{"icao24":"abc"}`),
		Kind:         errors.KindDataQuality,
		AttemptCount: 1,
		FirstSeenAt:  now,
		LastSeenAt:   now,
	}
}

func TestMemoryDeadLetterLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDeadLetterStore()

	require.NoError(t, s.Enqueue(ctx, errorRec("a")))
	require.NoError(t, s.Enqueue(ctx, errorRec("b")))
	require.NoError(t, s.Enqueue(ctx, errorRec("c")))

	// dequeue does not remove
	got, err := s.Dequeue(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, 3, s.Len())

	// update in place
	rec := got[0]
	rec.AttemptCount = 5
	require.NoError(t, s.Update(ctx, rec))
	got, err = s.Dequeue(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, got[0].AttemptCount)

	// delete removes and preserves order of the rest
	require.NoError(t, s.Delete(ctx, "a"))
	got, err = s.Dequeue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)

	assert.Error(t, s.Update(ctx, errorRec("gone")))
}
