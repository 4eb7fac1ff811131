package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kekzl/mailcow-ai-filter/internal/core"
)

// CachedEmbeddingClient wraps an EmbeddingClient with a persistent vector
// cache. Only texts missing from the cache hit the provider, and fresh
// vectors are written back with the configured TTL.
type CachedEmbeddingClient struct {
	inner  core.EmbeddingClient
	cache  core.EmbeddingCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedEmbeddingClient creates a caching wrapper around an embedding client
func NewCachedEmbeddingClient(inner core.EmbeddingClient, cache core.EmbeddingCache, ttl time.Duration, logger *zap.Logger) *CachedEmbeddingClient {
	return &CachedEmbeddingClient{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// Embed returns cached vectors where available and embeds only the misses.
// Cache failures degrade to provider calls, never to errors.
func (c *CachedEmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missIndices []int
	var missTexts []string

	for i, text := range texts {
		vector, err := c.cache.Get(ctx, CacheKey(c.inner.ModelName(), text))
		if err != nil {
			if !errors.Is(err, core.ErrCacheMiss) {
				c.logger.Warn("Embedding cache read failed", zap.Error(err))
			}
			missIndices = append(missIndices, i)
			missTexts = append(missTexts, text)
			continue
		}
		vectors[i] = vector
	}

	c.logger.Debug("Embedding cache lookup",
		zap.Int("total", len(texts)),
		zap.Int("hits", len(texts)-len(missTexts)),
		zap.Int("misses", len(missTexts)))

	if len(missTexts) == 0 {
		return vectors, nil
	}

	fresh, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("provider returned %d vectors for %d texts", len(fresh), len(missTexts))
	}

	for pos, i := range missIndices {
		vectors[i] = fresh[pos]
		key := CacheKey(c.inner.ModelName(), missTexts[pos])
		if err := c.cache.Set(ctx, key, fresh[pos], c.ttl); err != nil {
			c.logger.Warn("Embedding cache write failed", zap.Error(err))
		}
	}
	return vectors, nil
}

// ModelName returns the name of the wrapped embedding model
func (c *CachedEmbeddingClient) ModelName() string {
	return c.inner.ModelName()
}

// Ping verifies the wrapped embedding service is reachable
func (c *CachedEmbeddingClient) Ping(ctx context.Context) error {
	return c.inner.Ping(ctx)
}
