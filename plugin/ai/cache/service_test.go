package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingCache_GetSet(t *testing.T) {
	c := NewEmbeddingCache(DefaultServiceConfig())
	defer c.Close()

	_, ok := c.Get("bge-m3", "what is 3*3?")
	assert.False(t, ok)

	vector := []float32{0.1, 0.2}
	c.Set("bge-m3", "what is 3*3?", vector)

	// Mutating the caller's slice must not leak into the cache.
	vector[0] = 9

	got, ok := c.Get("bge-m3", "what is 3*3?")
	require.True(t, ok)
	assert.Equal(t, []float32{0.1, 0.2}, got)

	_, ok = c.Get("other-model", "what is 3*3?")
	assert.False(t, ok, "entries are keyed by model")
}

func TestEmbeddingCache_InvalidateModel(t *testing.T) {
	c := NewEmbeddingCache(DefaultServiceConfig())
	defer c.Close()

	c.Set("a", "x", []float32{1})
	c.Set("a", "y", []float32{2})
	c.Set("b", "x", []float32{3})

	assert.Equal(t, 2, c.InvalidateModel("a"))
	assert.Equal(t, 1, c.Size())
}

func TestEmbeddingCache_Expiry(t *testing.T) {
	c := NewEmbeddingCache(ServiceConfig{
		Capacity:   10,
		DefaultTTL: 10 * time.Millisecond,
	})
	defer c.Close()

	c.Set("m", "q", []float32{1})
	assert.Eventually(t, func() bool {
		_, ok := c.Get("m", "q")
		return !ok
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return c.Size() == 0 }, time.Second, 5*time.Millisecond)
}

func TestEmbeddingCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewEmbeddingCache(ServiceConfig{Capacity: 2, DefaultTTL: time.Minute})
	defer c.Close()

	c.Set("m", "a", []float32{1})
	c.Set("m", "b", []float32{2})
	_, ok := c.Get("m", "a")
	require.True(t, ok)

	c.Set("m", "c", []float32{3})
	assert.Equal(t, 2, c.Size())
	_, ok = c.Get("m", "b")
	assert.False(t, ok, "b was least recently used")
	_, ok = c.Get("m", "a")
	assert.True(t, ok)
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("m", "q"), Key("m", "q"))
	assert.NotEqual(t, Key("m", "q"), Key("m", "q2"))
	assert.Contains(t, Key("BAAI/bge-m3", "q"), "BAAI/bge-m3:")
}
