package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"waitlist/internal/ratelimit/models"
)

const redisKeyPrefix = "waitlist:rl:"

// Redis is a fixed-window counter store backed by shared Redis counters.
// This is the implementation for multi-instance deployments: INCR is atomic
// server-side, so concurrent attempts across instances cannot both observe
// count < limit.
type Redis struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed counter store.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Allow increments the window counter for key and compares against limit.
// The expiry is set only when the increment created the window, so the
// window boundary stays fixed for its whole duration.
func (r *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	fullKey := redisKeyPrefix + key

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, window)
	ttl := pipe.TTL(ctx, fullKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis rate limit check: %w", err)
	}

	count := int(incr.Val())
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	now := time.Now()
	resetAt := now.Add(window)
	if d := ttl.Val(); d > 0 {
		resetAt = now.Add(d)
	}

	if count > limit {
		return denied(limit, resetAt, now), nil
	}
	return &models.Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
