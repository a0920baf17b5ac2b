package cachemdw

import (
	"context"
	"errors"
	"net/http"

	"github.com/seesharpsoft/multipart-batch-service/clients/cache"
)

type contextKey string

const (
	CachedContextKey         contextKey = "X-BATCH-CACHED"
	CachedResponseContextKey contextKey = "X-BATCH-CACHED-RESPONSE"
	ResponseContextKey       contextKey = "X-BATCH-RESPONSE"

	CacheHeaderKey          = "X-Batch-Cache-Status"
	CacheHitHeaderValue     = "HIT"
	CacheMissHeaderValue    = "MISS"
	CachePartialHeaderValue = "PARTIAL"
)

// IsCachedMiddleware returns middleware which works in the following way:
// - tries to get the response of the part from the cache
//   - if present sets cached response in context, marks as cached in context and forwards to next middleware
//   - if not present marks as uncached in context and forwards to next middleware
//
// - next middleware should check whether request was cached and act accordingly
func (c *ServiceCache) IsCachedMiddleware(
	next http.Handler,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// if cache is not enabled - do nothing and forward to next middleware
		if !c.cacheEnabled {
			next.ServeHTTP(w, r)
			return
		}

		uncachedContext := context.WithValue(r.Context(), CachedContextKey, false)

		if !IsCacheable(r) {
			next.ServeHTTP(w, r.WithContext(uncachedContext))
			return
		}

		// Check if the request is cached:
		// 1. if not cached or we encounter an error then mark as uncached and forward to next middleware
		// 2. if cached then mark as cached, set cached response in context and forward to next middleware
		cachedResponse, err := c.GetCachedResponse(r.Context(), r)
		if err != nil {
			if !errors.Is(err, cache.ErrNotFound) {
				c.Logger.Error().
					Str("method", r.Method).
					Str("url", r.URL.String()).
					Err(err).
					Msg("error during getting response from cache")
			}

			next.ServeHTTP(w, r.WithContext(uncachedContext))
			return
		}

		cachedContext := context.WithValue(r.Context(), CachedContextKey, true)
		responseContext := context.WithValue(cachedContext, CachedResponseContextKey, cachedResponse)

		next.ServeHTTP(w, r.WithContext(responseContext))
	}
}

// IsRequestCached returns whether request was cached
// if returns true it means:
// - middleware marked that request was cached
// - value of cached response should be available in context via CachedResponseContextKey
func IsRequestCached(ctx context.Context) bool {
	cached, ok := ctx.Value(CachedContextKey).(bool)
	return ok && cached
}

// GetCachedResponseFromContext returns the cached response put in the context by IsCachedMiddleware
func GetCachedResponseFromContext(ctx context.Context) (*CachedResponse, bool) {
	response, ok := ctx.Value(CachedResponseContextKey).(*CachedResponse)
	return response, ok
}
