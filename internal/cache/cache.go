// Package cache memoizes read responses in Redis as JSON.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/storefront/internal/logging"
)

const keyPrefix = "cache:"

type Cache struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// New returns a cache; a nil client or a non-positive ttl disables it.
func New(rdb redis.UniversalClient, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.rdb != nil && c.ttl > 0
}

// Remember returns the cached value for key or stores the result of load.
// Redis failures are logged and never fail the read.
func Remember[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	if !c.enabled() {
		return load(ctx)
	}
	l := logging.FromContext(ctx).With("component", "cache", "key", key)

	raw, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	switch {
	case err == nil:
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		l.Warn("cache_decode_failed", "error", err)
	case !errors.Is(err, redis.Nil):
		l.Warn("cache_get_failed", "error", err)
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		l.Warn("cache_encode_failed", "error", err)
		return v, nil
	}
	if err := c.rdb.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		l.Warn("cache_set_failed", "error", err)
	}
	return v, nil
}

// Invalidate drops every entry whose key starts with one of the prefixes.
func (c *Cache) Invalidate(ctx context.Context, prefixes ...string) {
	if !c.enabled() {
		return
	}
	l := logging.FromContext(ctx).With("component", "cache")

	for _, p := range prefixes {
		iter := c.rdb.Scan(ctx, 0, keyPrefix+p+"*", 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			l.Warn("cache_scan_failed", "prefix", p, "error", err)
			continue
		}
		if len(keys) == 0 {
			continue
		}
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			l.Warn("cache_invalidate_failed", "prefix", p, "error", err)
		}
	}
}
