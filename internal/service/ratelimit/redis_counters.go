package ratelimit

import (
	"context"
	"fmt"
	"time"

	"LoanGate/internal/domain/models"

	"github.com/redis/go-redis/v9"
)

// RedisCounters enforces the admission caps across replicas with Redis
// INCR. Keys carry the window identity, so expiry only has to be long
// enough to outlive the window.
type RedisCounters struct {
	client    *redis.Client
	keyPrefix string
}

// RedisCountersOption configures RedisCounters.
type RedisCountersOption func(*RedisCounters)

// WithKeyPrefix sets custom key prefix.
func WithKeyPrefix(prefix string) RedisCountersOption {
	return func(c *RedisCounters) {
		c.keyPrefix = prefix
	}
}

// NewRedisCounters creates Redis-backed admission counters.
func NewRedisCounters(client *redis.Client, opts ...RedisCountersOption) *RedisCounters {
	c := &RedisCounters{
		client:    client,
		keyPrefix: "loangate:admission",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reserve consumes one slot in the hour and day windows containing now.
// On a limit breach the increment is rolled back so the slot stays free.
func (c *RedisCounters) Reserve(ctx context.Context, now time.Time, limits models.TimeRestrictions) error {
	if limits.MaxActionsPerHour > 0 {
		key := fmt.Sprintf("%s:hour:%s", c.keyPrefix, hourKey(now))
		if err := c.reserveWindow(ctx, key, limits.MaxActionsPerHour, 2*time.Hour); err != nil {
			return err
		}
	}
	if limits.MaxActionsPerDay > 0 {
		key := fmt.Sprintf("%s:day:%s", c.keyPrefix, dayKey(now))
		if err := c.reserveWindow(ctx, key, limits.MaxActionsPerDay, 48*time.Hour); err != nil {
			if limits.MaxActionsPerHour > 0 {
				hourly := fmt.Sprintf("%s:hour:%s", c.keyPrefix, hourKey(now))
				c.client.Decr(ctx, hourly)
			}
			return err
		}
	}
	return nil
}

func (c *RedisCounters) reserveWindow(ctx context.Context, key string, max int, ttl time.Duration) error {
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("admission incr: %w", err)
	}
	if n == 1 {
		c.client.Expire(ctx, key, ttl)
	}
	if n > int64(max) {
		c.client.Decr(ctx, key)
		limit := "per_hour"
		if ttl > 2*time.Hour {
			limit = "per_day"
		}
		return &models.ResourceExhaustedError{Limit: limit, Max: max}
	}
	return nil
}
