// Package cache provides the key value stores used to keep
// the responses of cacheable batch parts
package cache

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("value not found in the cache")

// Cache stores raw values by key. An expiration of -1 keeps the value indefinitely.
type Cache interface {
	Set(ctx context.Context, key string, data []byte, expiration time.Duration) error
	// Get returns ErrNotFound for missing or expired keys
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Healthcheck(ctx context.Context) error
}
