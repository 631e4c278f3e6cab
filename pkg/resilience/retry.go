// Package resilience provides the retry policies, circuit breaker and
// dead-letter handling that wrap every conversion, transform and external
// I/O call in the pipeline.
package resilience

import (
	"context"
	"math/rand"
	"time"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/errors"
)

// RetryPolicy defines how an operation class is retried.
type RetryPolicy struct {
	// MaxAttempts is the total attempt count including the first call.
	MaxAttempts int
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration
	// Multiplier grows the delay between attempts; 1 gives linear backoff.
	Multiplier float64
	// RandomizeFactor adds +/- jitter as a fraction of the delay.
	RandomizeFactor float64
}

// PolicySet maps each error kind to its retry policy:
// Transient and Throttling retry with exponential backoff and jitter,
// Resource with linear backoff, DataQuality once, Permanent and Conversion
// never.
type PolicySet struct {
	Transient   RetryPolicy
	Throttling  RetryPolicy
	Resource    RetryPolicy
	DataQuality RetryPolicy
	Permanent   RetryPolicy
}

// NewPolicySet builds the per-kind policies from the configured retry budget.
func NewPolicySet(maxRetries int, baseDelay, maxDelay time.Duration) PolicySet {
	if baseDelay <= 0 {
		baseDelay = 200 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}
	exponential := RetryPolicy{
		MaxAttempts:     maxRetries + 1,
		InitialDelay:    baseDelay,
		MaxDelay:        maxDelay,
		Multiplier:      2.0,
		RandomizeFactor: 0.1,
	}
	return PolicySet{
		Transient:  exponential,
		Throttling: exponential,
		Resource: RetryPolicy{
			MaxAttempts:  maxRetries + 1,
			InitialDelay: baseDelay,
			MaxDelay:     maxDelay,
			Multiplier:   1.0,
		},
		DataQuality: RetryPolicy{
			MaxAttempts:  2,
			InitialDelay: baseDelay,
			MaxDelay:     maxDelay,
			Multiplier:   1.0,
		},
		Permanent: RetryPolicy{MaxAttempts: 1},
	}
}

// For returns the policy for an error kind.
func (ps PolicySet) For(kind errors.Kind) RetryPolicy {
	switch kind {
	case errors.KindTransient:
		return ps.Transient
	case errors.KindThrottling:
		return ps.Throttling
	case errors.KindResource:
		return ps.Resource
	case errors.KindDataQuality:
		return ps.DataQuality
	default:
		return ps.Permanent
	}
}

// ExecuteWithPolicy runs operation, retrying per the policy chosen for each
// failure's kind. The first failure's kind selects the policy for the whole
// call, so one operation never mixes budgets. Delays are non-decreasing
// before jitter and honor context cancellation.
func ExecuteWithPolicy(ctx context.Context, ps PolicySet, operation func(ctx context.Context) error) error {
	var lastErr error
	policy := ps.Permanent
	delay := time.Duration(0)

	for attempt := 1; ; attempt++ {
		lastErr = operation(ctx)
		if lastErr == nil {
			return nil
		}
		if !errors.IsRetryable(lastErr) {
			return lastErr
		}

		if attempt == 1 {
			policy = ps.For(errors.KindOf(lastErr))
			delay = policy.InitialDelay
		}
		if attempt >= policy.MaxAttempts {
			return lastErr
		}

		wait := jitter(delay, policy.RandomizeFactor)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Wrap(ctx.Err(), errors.KindTransient, "retry wait canceled")
		case <-timer.C:
		}

		next := time.Duration(float64(delay) * policy.Multiplier)
		if policy.Multiplier <= 1 {
			next = delay + policy.InitialDelay
		}
		if next > policy.MaxDelay {
			next = policy.MaxDelay
		}
		delay = next
	}
}

func jitter(d time.Duration, factor float64) time.Duration {
	if factor <= 0 || d <= 0 {
		return d
	}
	delta := float64(d) * factor
	return time.Duration(float64(d) - delta + rand.Float64()*2*delta)
}
