package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ReferenceCache implements ports.ReferenceCache using Redis.
type ReferenceCache struct {
	client *goredis.Client
	prefix string
}

// NewReferenceCache creates a new Redis-backed reference cache.
func NewReferenceCache(client *goredis.Client) *ReferenceCache {
	return &ReferenceCache{
		client: client,
		prefix: "reference:",
	}
}

// Get retrieves a cached transaction by reference number.
// Returns nil, nil if the key does not exist.
func (c *ReferenceCache) Get(ctx context.Context, referenceNumber string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+referenceNumber).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis reference get: %w", err)
	}
	return val, nil
}

// Set stores a completed transaction in the reference cache with TTL.
func (c *ReferenceCache) Set(ctx context.Context, referenceNumber string, value []byte, ttl time.Duration) error {
	err := c.client.Set(ctx, c.prefix+referenceNumber, value, ttl).Err()
	if err != nil {
		return fmt.Errorf("redis reference set: %w", err)
	}
	return nil
}
