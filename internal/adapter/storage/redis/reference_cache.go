package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ReferenceCache implements ports.ReferenceCache using Redis. It is a
// best-effort fast path for already-applied idempotency references; the
// database check inside the ledger transaction stays authoritative.
type ReferenceCache struct {
	client *goredis.Client
	prefix string
}

// NewReferenceCache creates a new Redis-backed reference cache.
func NewReferenceCache(client *goredis.Client) *ReferenceCache {
	return &ReferenceCache{
		client: client,
		prefix: "ledger:ref:",
	}
}

// Seen reports whether the reference has been marked as applied.
func (c *ReferenceCache) Seen(ctx context.Context, reference string) (bool, error) {
	n, err := c.client.Exists(ctx, c.prefix+reference).Result()
	if err != nil {
		return false, fmt.Errorf("redis reference exists: %w", err)
	}
	return n > 0, nil
}

// Mark records the reference as applied with a TTL.
func (c *ReferenceCache) Mark(ctx context.Context, reference string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+reference, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis reference mark: %w", err)
	}
	return nil
}
