package cachemdw

import (
	"net/http"
)

// CachingMiddleware returns middleware which works in the following way:
// - checks few conditions:
//   - if request isn't already cached
//   - if request is cacheable
//   - if response is present in context
//
// - if all above is true - caches the response
// - calls next middleware
func (c *ServiceCache) CachingMiddleware(
	next http.Handler,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// if cache is not enabled - do nothing and forward to next middleware
		if !c.cacheEnabled {
			c.Logger.Trace().
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Msg("cache is disabled skipping caching-middleware")

			next.ServeHTTP(w, r)
			return
		}

		response, ok := r.Context().Value(ResponseContextKey).(*CachedResponse)

		// if request isn't already cached, request is cacheable and response is present in context - cache the response
		if !IsRequestCached(r.Context()) && IsCacheable(r) && ok && response.IsCacheable() {
			if err := c.CacheResponse(r.Context(), r, response); err != nil {
				c.Logger.Error().
					Str("url", r.URL.String()).
					Err(err).
					Msg("can't cache part response")
			}
		}

		next.ServeHTTP(w, r)
	}
}
