package cache

import (
	"context"
	"sync"
	"time"
)

// InMemoryCache is a Cache kept in process memory,
// used when no redis is configured and in tests
type InMemoryCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex
	now   func() time.Time
}

var _ Cache = (*InMemoryCache)(nil)

type cacheItem struct {
	data []byte
	// zero for items that never expire
	expiration time.Time
}

func (i cacheItem) expired(now time.Time) bool {
	return !i.expiration.IsZero() && now.After(i.expiration)
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		data: make(map[string]cacheItem),
		now:  time.Now,
	}
}

func (c *InMemoryCache) Set(ctx context.Context, key string, data []byte, expiration time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	item := cacheItem{
		data: append([]byte(nil), data...),
	}
	if expiration != -1 {
		item.expiration = c.now().Add(expiration)
	}
	c.data[key] = item

	return nil
}

func (c *InMemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mutex.RLock()
	item, ok := c.data[key]
	c.mutex.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	if item.expired(c.now()) {
		_ = c.Delete(ctx, key)
		return nil, ErrNotFound
	}

	return item.data, nil
}

func (c *InMemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

func (c *InMemoryCache) Healthcheck(ctx context.Context) error {
	return ctx.Err()
}
