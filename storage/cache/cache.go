package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("key does not exist")

// CacheInterface is the contract for the ephemeral key-value store used for
// session lookups and processed-message bookkeeping.
type CacheInterface interface {
	Disconnect() error
	// Set stores a JSON-encoded value under key with the cache's TTL.
	Set(ctx context.Context, key string, value interface{}) error
	// Get decodes the value stored under key into dest. Returns
	// ErrCacheMiss when absent.
	Get(ctx context.Context, key string, dest interface{}) error
	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// NewCache creates a CacheInterface with a Redis backend. Entries expire
// after ttl.
func NewCache(url string, ttl time.Duration) (CacheInterface, error) {
	c := NewRedisCache(ttl)
	if err := c.Connect(url); err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	return c, nil
}
