package performance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheHitBypassesComputation(t *testing.T) {
	c := NewCache(4, time.Minute)
	key := CacheKey("schema_infer", "chunk", 1)

	calls := 0
	compute := func() (interface{}, error) {
		calls++
		return "schema-v1", nil
	}

	v, err := c.GetOrCompute(key, compute)
	require.NoError(t, err)
	assert.Equal(t, "schema-v1", v)

	v, err = c.GetOrCompute(key, compute)
	require.NoError(t, err)
	assert.Equal(t, "schema-v1", v)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0.5, c.HitRate())
}

func TestCacheLRUEviction(t *testing.T) {
	c := NewCache(2, time.Minute)
	c.Put(1, "a")
	c.Put(2, "b")

	_, ok := c.Get(1) // 1 becomes most recent
	require.True(t, ok)

	c.Put(3, "c") // evicts 2

	_, ok = c.Get(2)
	assert.False(t, ok)
	_, ok = c.Get(1)
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCacheTTLExpiry(t *testing.T) {
	c := NewCache(4, 10*time.Millisecond)
	c.Put(1, "a")

	_, ok := c.Get(1)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get(1)
	assert.False(t, ok)
}

func TestCacheKeyDistinguishesParams(t *testing.T) {
	assert.NotEqual(t, CacheKey("op", 1), CacheKey("op", 2))
	assert.NotEqual(t, CacheKey("op-a"), CacheKey("op-b"))
	assert.Equal(t, CacheKey("op", "x", 1), CacheKey("op", "x", 1))
}
