package performance

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyInitializesExactlyOnce(t *testing.T) {
	var inits int64
	l := NewLazy(func() (string, error) {
		atomic.AddInt64(&inits, 1)
		return "handle", nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := l.Get()
			assert.NoError(t, err)
			assert.Equal(t, "handle", v)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&inits))
	assert.True(t, l.Initialized())
}

func TestLazyRetriesAfterFailure(t *testing.T) {
	attempts := 0
	l := NewLazy(func() (int, error) {
		attempts++
		if attempts == 1 {
			return 0, fmt.Errorf("not ready")
		}
		return 42, nil
	})

	_, err := l.Get()
	require.Error(t, err)
	assert.False(t, l.Initialized())

	v, err := l.Get()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}
