package shared

import (
	"context"
	"time"
)

// IdempotencyStore tracks keys that have already been processed so repeated
// deliveries of the same external event (webhook retries, a buyer refreshing
// a success page) can be detected atomically.
type IdempotencyStore interface {
	// MarkProcessed atomically marks a key as processed with a TTL.
	// Returns true if the key was newly marked, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether the key has already been processed.
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release removes a key, allowing the operation to be attempted again.
	Release(ctx context.Context, key string) error

	// Close releases underlying resources.
	Close() error
}
