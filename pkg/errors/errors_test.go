package errors

import (
	"context"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesKindChain(t *testing.T) {
	base := New(KindDataQuality, "missing icao24")
	wrapped := Wrap(base, KindDataQuality, "record rejected")

	require.NotNil(t, wrapped)
	assert.Equal(t, KindDataQuality, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, base.Stack, wrapped.Stack)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, KindTransient, "no-op"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"deadline", context.DeadlineExceeded, KindTransient},
		{"canceled", context.Canceled, KindTransient},
		{"conn refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), KindTransient},
		{"oom", fmt.Errorf("alloc: %w", syscall.ENOMEM), KindResource},
		{"tagged throttle", New(KindThrottling, "slow down"), KindThrottling},
		{"unknown", fmt.Errorf("something else"), KindPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(KindTransient, "timeout")))
	assert.True(t, IsRetryable(New(KindThrottling, "rate limited")))
	assert.True(t, IsRetryable(New(KindResource, "pool exhausted")))
	assert.True(t, IsRetryable(New(KindDataQuality, "bad record")))
	assert.False(t, IsRetryable(New(KindPermanent, "access denied")))
	assert.False(t, IsRetryable(New(KindConversion, "truncated input")))
}

func TestWithDetail(t *testing.T) {
	err := New(KindDataQuality, "bad altitude").WithDetail("icao24", "abc123")
	assert.Equal(t, "abc123", err.Details["icao24"])
}
