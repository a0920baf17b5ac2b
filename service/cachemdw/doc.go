// Package cachemdw is responsible for caching the responses of batch parts.
//
// Only GET parts are cacheable, and only 200 responses are stored. A part
// carrying `Cache-Control: no-cache` or `no-store` bypasses the cache.
//
// IsCachedMiddleware looks the part up and marks the request context as cached
// or uncached. The handler in between serves cached responses from the
// context and proxies uncached ones, putting the captured response in the
// context. CachingMiddleware stores that response.
//
// The cache status of a part is reported in the CacheHeaderKey header as
// `HIT` or `MISS`. Parts that are not cacheable carry no cache status header.
package cachemdw
