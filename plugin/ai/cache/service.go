package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ServiceConfig configures the embedding cache.
type ServiceConfig struct {
	Capacity   int           // Maximum number of entries (default: 1000)
	DefaultTTL time.Duration // TTL for entries (default: 30 minutes)
}

// DefaultServiceConfig returns default embedding cache configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Capacity:   1000,
		DefaultTTL: 30 * time.Minute,
	}
}

// EmbeddingCache caches query embeddings keyed by model and text.
// Entries are evicted least recently used first and expire after the TTL.
type EmbeddingCache struct {
	lru *expirable.LRU[string, []float32]
}

// NewEmbeddingCache creates a new embedding cache.
func NewEmbeddingCache(cfg ServiceConfig) *EmbeddingCache {
	defaults := DefaultServiceConfig()
	if cfg.Capacity <= 0 {
		cfg.Capacity = defaults.Capacity
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = defaults.DefaultTTL
	}
	return &EmbeddingCache{
		lru: expirable.NewLRU[string, []float32](cfg.Capacity, nil, cfg.DefaultTTL),
	}
}

// Key returns the cache key of text embedded with model.
func Key(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return model + ":" + hex.EncodeToString(sum[:])
}

// Get returns a copy of the cached embedding.
func (c *EmbeddingCache) Get(model, text string) ([]float32, bool) {
	vector, ok := c.lru.Get(Key(model, text))
	if !ok {
		return nil, false
	}
	return append([]float32(nil), vector...), true
}

func (c *EmbeddingCache) Set(model, text string, vector []float32) {
	c.lru.Add(Key(model, text), append([]float32(nil), vector...))
}

// InvalidateModel drops every embedding produced by model.
func (c *EmbeddingCache) InvalidateModel(model string) int {
	prefix := model + ":"
	removed := 0
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) && c.lru.Remove(key) {
			removed++
		}
	}
	return removed
}

func (c *EmbeddingCache) Size() int {
	return c.lru.Len()
}

// Close drops every entry.
func (c *EmbeddingCache) Close() {
	c.lru.Purge()
}
