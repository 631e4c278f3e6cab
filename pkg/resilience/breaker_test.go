package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/errors"
)

func failing(context.Context) error {
	return errors.New(errors.KindTransient, "downstream unavailable")
}

func succeeding(context.Context) error { return nil }

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("convert", 5, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := cb.Execute(ctx, failing)
		require.Error(t, err)
		assert.False(t, IsCircuitOpen(err))
	}
	assert.Equal(t, StateOpen, cb.State())

	// the 6th call is rejected without invoking the operation
	invoked := false
	err := cb.Execute(ctx, func(context.Context) error {
		invoked = true
		return nil
	})
	require.Error(t, err)
	assert.True(t, IsCircuitOpen(err))
	assert.False(t, invoked)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("convert", 3, time.Minute, nil)
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, failing))
	require.Error(t, cb.Execute(ctx, failing))
	require.NoError(t, cb.Execute(ctx, succeeding))
	require.Error(t, cb.Execute(ctx, failing))
	require.Error(t, cb.Execute(ctx, failing))

	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerHalfOpenTrialCloses(t *testing.T) {
	cb := NewCircuitBreaker("io", 2, time.Minute, nil)
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, failing))
	require.Error(t, cb.Execute(ctx, failing))
	require.Equal(t, StateOpen, cb.State())

	// advance past the cooldown
	cb.mu.Lock()
	cb.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	cb.mu.Unlock()

	require.NoError(t, cb.Execute(ctx, succeeding))
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerHalfOpenTrialFailureExtendsCooldown(t *testing.T) {
	cb := NewCircuitBreaker("io", 2, time.Minute, nil)
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, failing))
	require.Error(t, cb.Execute(ctx, failing))

	base := time.Now()
	cb.mu.Lock()
	cb.now = func() time.Time { return base.Add(2 * time.Minute) }
	cb.mu.Unlock()

	// trial call fails, circuit reopens with doubled cooldown
	require.Error(t, cb.Execute(ctx, failing))
	require.Equal(t, StateOpen, cb.State())

	// the original cooldown is no longer enough
	cb.mu.Lock()
	cb.now = func() time.Time { return base.Add(3*time.Minute + 30*time.Second) }
	cb.mu.Unlock()

	err := cb.Execute(ctx, succeeding)
	require.Error(t, err)
	assert.True(t, IsCircuitOpen(err))
}

func TestBreakerHalfOpenPermitsExactlyOneTrial(t *testing.T) {
	cb := NewCircuitBreaker("io", 1, time.Minute, nil)
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, failing))

	cb.mu.Lock()
	cb.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	cb.mu.Unlock()

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = cb.Execute(ctx, func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	// while the trial is in flight, a second call is rejected
	err := cb.Execute(ctx, succeeding)
	assert.True(t, IsCircuitOpen(err))
	close(release)
}
