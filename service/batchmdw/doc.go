// Package batchmdw is responsible for the middleware used to handle multipart/mixed batch requests.
//
// The primary export is CreateBatchProcessingMiddleware which separates each individual request
// in the batch and serves it with the next handler as if it were a single request.
// The responses are then framed into a single multipart/mixed body, in request order,
// before being sent to the client.
//
// Parts are served one after the other, or concurrently bounded by the configured
// thread pool size. A part whose handler panics is answered with a 500 part
// instead of failing the whole batch.
//
// The cache status header set by cachemdw is aggregated over _all_ parts:
//   - `HIT` when all parts are cache hits
//   - `MISS` when no part is a cache hit
//   - `PARTIAL` when there is a mix of cache hits and misses
package batchmdw
