package cachemdw

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/seesharpsoft/multipart-batch-service/clients/cache"
	"github.com/seesharpsoft/multipart-batch-service/logging"
)

// hop-by-hop and per response headers are never cached
var uncachedHeaders = []string{
	"Connection",
	"Content-Length",
	"Date",
	"Keep-Alive",
	"Set-Cookie",
	"Transfer-Encoding",
	CacheHeaderKey,
}

// ServiceCache is responsible for caching part responses and provides corresponding middleware
// ServiceCache can work with any underlying storage which implements simple cache.Cache interface
type ServiceCache struct {
	cacheClient cache.Cache
	// cachePrefix is used as prefix for any key in the cache
	cachePrefix  string
	cacheEnabled bool
	// cacheTTL should be either greater than zero or equal to -1, -1 means cache indefinitely
	cacheTTL time.Duration

	*logging.ServiceLogger
}

func NewServiceCache(
	cacheClient cache.Cache,
	cachePrefix string,
	cacheEnabled bool,
	cacheTTL time.Duration,
	logger *logging.ServiceLogger,
) *ServiceCache {
	return &ServiceCache{
		cacheClient:   cacheClient,
		cachePrefix:   cachePrefix,
		cacheEnabled:  cacheEnabled,
		cacheTTL:      cacheTTL,
		ServiceLogger: logger,
	}
}

// IsCacheable checks if the part request is cacheable.
// GET requests are, unless the client asked to bypass caches.
func IsCacheable(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}

	cacheControl := strings.ToLower(r.Header.Get("Cache-Control"))
	if strings.Contains(cacheControl, "no-cache") || strings.Contains(cacheControl, "no-store") {
		return false
	}

	return true
}

// GetCachedResponse calculates cache key for request and then tries to get it from cache.
func (c *ServiceCache) GetCachedResponse(ctx context.Context, r *http.Request) (*CachedResponse, error) {
	// if request isn't cacheable - there is no point to try to get it from cache so exit early with an error
	if !IsCacheable(r) {
		return nil, ErrRequestIsNotCacheable
	}

	key := GetPartResponseKey(c.cachePrefix, r.Method, r.URL.String())

	responseInJSON, err := c.cacheClient.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	return UnmarshalCachedResponse(responseInJSON)
}

// CacheResponse calculates cache key for request and then saves response to the cache.
func (c *ServiceCache) CacheResponse(ctx context.Context, r *http.Request, response *CachedResponse) error {
	// don't cache uncacheable requests
	if !IsCacheable(r) {
		return ErrRequestIsNotCacheable
	}
	// don't cache uncacheable responses
	if !response.IsCacheable() {
		return ErrResponseIsNotCacheable
	}

	toCache := &CachedResponse{
		Status: response.Status,
		Header: response.Header.Clone(),
		Body:   response.Body,
	}
	for _, name := range uncachedHeaders {
		toCache.Header.Del(name)
	}

	responseInJSON, err := toCache.Marshal()
	if err != nil {
		return fmt.Errorf("can't marshal part response: %w", err)
	}

	key := GetPartResponseKey(c.cachePrefix, r.Method, r.URL.String())

	return c.cacheClient.Set(ctx, key, responseInJSON, c.cacheTTL)
}

func (c *ServiceCache) Healthcheck(ctx context.Context) error {
	return c.cacheClient.Healthcheck(ctx)
}

func (c *ServiceCache) IsCacheEnabled() bool {
	return c.cacheEnabled
}
