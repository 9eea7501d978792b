// Package cache keeps hot governance reads (historical stats, policy
// lookups) off the warehouse. All backends store values JSON-encoded so
// a value written through one layer reads identically through another.
package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Service is the read-through surface the repositories consume. A miss
// is reported as ErrCacheMiss; any other error means the cache is
// degraded and callers fall back to the primary store.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
}

// GenerateKey builds a namespaced key, e.g.
// GenerateKey("history:stats", "payment_reminder").
func GenerateKey(prefix, id string) string {
	return prefix + ":" + id
}
