// Package cache decorates a tagger with a Redis-backed result cache so that
// repeated builds over the same corpus skip slow remote or LLM tagging.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/tagger"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "tag:"

// Store is the subset of pkg/redis.Client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type TagCache struct {
	inner     tagger.Tagger
	store     Store
	namespace string
	ttl       time.Duration
	group     singleflight.Group
	metrics   *metrics.Metrics
	logger    *slog.Logger
	hits      atomic.Int64
	misses    atomic.Int64
}

// New wraps inner. namespace separates entries of different tagger kinds so
// switching taggers never serves stale tags.
func New(inner tagger.Tagger, store Store, namespace string, ttl time.Duration, m *metrics.Metrics) *TagCache {
	return &TagCache{
		inner:     inner,
		store:     store,
		namespace: namespace,
		ttl:       ttl,
		metrics:   m,
		logger:    slog.Default().With("component", "tag-cache", "namespace", namespace),
	}
}

func (c *TagCache) Tag(ctx context.Context, caption string) ([]tagger.Token, error) {
	if tokens, ok := c.get(ctx, caption); ok {
		return tokens, nil
	}
	key := c.buildKey(caption)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		tokens, err := c.inner.Tag(ctx, caption)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, tokens)
		return tokens, nil
	})
	if err != nil {
		return nil, err
	}
	return val.([]tagger.Token), nil
}

func (c *TagCache) get(ctx context.Context, caption string) ([]tagger.Token, bool) {
	key := c.buildKey(caption)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.recordMiss()
		return nil, false
	}
	var tokens []tagger.Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.TagCacheHitsTotal.Inc()
	}
	return tokens, true
}

func (c *TagCache) set(ctx context.Context, key string, tokens []tagger.Token) {
	data, err := json.Marshal(tokens)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

func (c *TagCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.TagCacheMissesTotal.Inc()
	}
}

// Invalidate drops every cached entry of this namespace.
func (c *TagCache) Invalidate(ctx context.Context) error {
	pattern := keyPrefix + c.namespace + ":*"
	deleted, err := c.store.FlushByPattern(ctx, pattern)
	if err != nil {
		return fmt.Errorf("invalidating tag cache: %w", err)
	}
	c.logger.Info("tag cache invalidated", "keys_deleted", deleted)
	return nil
}

// PurgeAll drops the cached tags of every namespace.
func PurgeAll(ctx context.Context, store Store) (int64, error) {
	deleted, err := store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("purging tag cache: %w", err)
	}
	return deleted, nil
}

func (c *TagCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *TagCache) buildKey(caption string) string {
	hash := sha256.Sum256([]byte(caption))
	return fmt.Sprintf("%s%s:%x", keyPrefix, c.namespace, hash[:16])
}
