package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/errors"
)

func fastPolicies(maxRetries int) PolicySet {
	return NewPolicySet(maxRetries, time.Millisecond, 10*time.Millisecond)
}

func TestTransientRetriedUpToBudget(t *testing.T) {
	attempts := 0
	err := ExecuteWithPolicy(context.Background(), fastPolicies(3), func(context.Context) error {
		attempts++
		return errors.New(errors.KindTransient, "connection reset")
	})

	require.Error(t, err)
	// max_retries = 3 means at most 4 attempts total
	assert.Equal(t, 4, attempts)
}

func TestTransientSucceedsMidway(t *testing.T) {
	attempts := 0
	err := ExecuteWithPolicy(context.Background(), fastPolicies(3), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New(errors.KindTransient, "flaky")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestPermanentNeverRetried(t *testing.T) {
	attempts := 0
	err := ExecuteWithPolicy(context.Background(), fastPolicies(3), func(context.Context) error {
		attempts++
		return errors.New(errors.KindPermanent, "invalid argument")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDataQualityRetriedOnce(t *testing.T) {
	attempts := 0
	err := ExecuteWithPolicy(context.Background(), fastPolicies(3), func(context.Context) error {
		attempts++
		return errors.New(errors.KindDataQuality, "malformed record")
	})

	require.Error(t, err)
	assert.Equal(t, 2, attempts)
}

func TestResourceLinearBackoff(t *testing.T) {
	attempts := 0
	err := ExecuteWithPolicy(context.Background(), fastPolicies(2), func(context.Context) error {
		attempts++
		return errors.New(errors.KindResource, "pool exhausted")
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestBackoffDelaysNonDecreasing(t *testing.T) {
	ps := PolicySet{
		Transient: RetryPolicy{
			MaxAttempts:  4,
			InitialDelay: 5 * time.Millisecond,
			MaxDelay:     time.Second,
			Multiplier:   2.0,
			// no jitter so the timing assertion is deterministic
		},
		Permanent: RetryPolicy{MaxAttempts: 1},
	}

	var stamps []time.Time
	_ = ExecuteWithPolicy(context.Background(), ps, func(context.Context) error {
		stamps = append(stamps, time.Now())
		return errors.New(errors.KindTransient, "always failing")
	})

	require.Len(t, stamps, 4)
	var prev time.Duration
	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		assert.GreaterOrEqual(t, gap, prev)
		prev = gap
	}
}

func TestRetryWaitHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ps := PolicySet{
		Transient: RetryPolicy{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 2},
		Permanent: RetryPolicy{MaxAttempts: 1},
	}

	done := make(chan error, 1)
	go func() {
		done <- ExecuteWithPolicy(ctx, ps, func(context.Context) error {
			return errors.New(errors.KindTransient, "down")
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("retry wait ignored cancellation")
	}
}
