// Package cache defines the byte store behind the distance matrix cache.
package cache

import (
	"context"
	"time"
)

// Store is a remote key/value tier. *redisstore.Client satisfies it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
