// Package store provides fixed-window counter stores backing the rate
// limiter. Counters are keyed by identity string; increment-and-compare is
// atomic per key so two concurrent attempts cannot both slip under the limit.
package store

import (
	"context"
	"time"

	"waitlist/internal/ratelimit/models"
)

// CounterStore is the atomic key-value increment-with-expiry primitive the
// rate limiter is defined over. The in-memory implementation serves a single
// process; the Redis implementation shares counters across instances.
type CounterStore interface {
	// Allow checks whether an attempt under key is within limit for the
	// current fixed window, recording the attempt when it is allowed or when
	// it establishes a new window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}
