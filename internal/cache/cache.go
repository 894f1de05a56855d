// Package cache memoizes upstream results under explicit (source, query)
// keys with a TTL.
package cache

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/web3-frozen/near-dashboard/internal/metrics"
)

const prefix = "near-dashboard"

// Cache stores JSON-serializable values. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get decodes the value stored under key into dst and reports whether
	// it was found.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}

// Key builds the cache key for a query against a source.
func Key(source, queryID string) string {
	return prefix + ":" + source + ":" + queryID
}

// Degradable is implemented by results that can be partial. Degraded
// results are returned to the caller but never cached.
type Degradable interface {
	Degraded() bool
}

// Incomplete is implemented by results that are worth serving but are
// missing some parts. They are cached for a quarter of the normal TTL.
type Incomplete interface {
	Incomplete() bool
}

// Load returns the cached value for key or computes it with fn. Cache
// errors are logged and treated as a miss; they never fail the call.
func Load[T any](ctx context.Context, c Cache, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	source := sourceOf(key)

	var v T
	found, err := c.Get(ctx, key, &v)
	switch {
	case err != nil:
		slog.Warn("cache get failed", "key", key, "error", err)
		metrics.CacheLookupsTotal.WithLabelValues(source, "error").Inc()
	case found:
		metrics.CacheLookupsTotal.WithLabelValues(source, "hit").Inc()
		return v, nil
	default:
		metrics.CacheLookupsTotal.WithLabelValues(source, "miss").Inc()
	}

	v, err = fn(ctx)
	if err != nil {
		return v, err
	}
	if d, ok := any(v).(Degradable); ok && d.Degraded() {
		return v, nil
	}
	if p, ok := any(v).(Incomplete); ok && p.Incomplete() && ttl > 0 {
		ttl /= 4
	}
	if err := c.Set(ctx, key, v, ttl); err != nil {
		slog.Warn("cache set failed", "key", key, "error", err)
	}
	return v, nil
}

// sourceOf extracts the source segment of a key built by Key.
func sourceOf(key string) string {
	source, _, _ := strings.Cut(strings.TrimPrefix(key, prefix+":"), ":")
	return source
}
