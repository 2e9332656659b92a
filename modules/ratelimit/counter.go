package ratelimit

import (
	"context"
	"time"
)

// CounterStore is the storage abstraction ratelimit uses. The demo's
// distributed counter lives at modules/db/redis/counter, so every
// replica of examples/petstore enforces the same sliding window
// instead of each process counting its own requests.
type CounterStore interface {
	// Incr increments a counter at key and returns the new value.
	// TTL tells the store how long to keep the key alive (at least).
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Get returns the current value of a counter, or 0 if missing.
	Get(ctx context.Context, key string) (int64, error)
}
