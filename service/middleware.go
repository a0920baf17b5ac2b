package service

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/urfave/negroni"

	"github.com/seesharpsoft/multipart-batch-service/logging"
	"github.com/seesharpsoft/multipart-batch-service/service/batchmdw"
	"github.com/seesharpsoft/multipart-batch-service/service/cachemdw"
)

// bodySaverResponseWriter implements the interface for http.ResponseWriter
// and stores the status code and header and body for retrieval
// after the response has been read
type bodySaverResponseWriter struct {
	negroni.ResponseWriter
	body *bytes.Buffer
}

// Write writes the response from the backend server to the response
// and copies the response for later use by the batch service
func (w bodySaverResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)

	if !w.Written() {
		// The status will be StatusOK if WriteHeader has not been called yet
		w.WriteHeader(http.StatusOK)
	}
	size, err := w.ResponseWriter.Write(b)

	return size, err
}

// createRequestLoggingMiddleware returns a handler that logs every request
// received by the service along with its status and latency
func createRequestLoggingMiddleware(h http.Handler, serviceLogger *logging.ServiceLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		receivedAt := time.Now()
		lrw := negroni.NewResponseWriter(w)

		h.ServeHTTP(lrw, r)

		serviceLogger.Debug().
			Str("method", r.Method).
			Str("url", r.URL.String()).
			Str("remote_addr", r.RemoteAddr).
			Int("status", lrw.Status()).
			Int("size", lrw.Size()).
			Dur("latency", time.Since(receivedAt)).
			Msg("request served")
	}
}

// createProxyRequestMiddleware creates the handler serving a single part of a batch.
// Parts found in the cache are answered from it, all others are forwarded to the
// backend. The backend response is put in the context for the caching middleware in next.
func createProxyRequestMiddleware(
	next http.Handler,
	proxy *httputil.ReverseProxy,
	serviceCache *cachemdw.ServiceCache,
	serviceLogger *logging.ServiceLogger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batchID, _ := batchmdw.BatchIDFromContext(r.Context())
		partIndex, _ := batchmdw.PartIndexFromContext(r.Context())

		if cachemdw.IsRequestCached(r.Context()) {
			if cachedResponse, ok := cachemdw.GetCachedResponseFromContext(r.Context()); ok {
				serviceLogger.Trace().
					Str("batch_id", batchID).
					Int("part", partIndex).
					Str("url", r.URL.String()).
					Msg("serving part from cache")

				if err := cachedResponse.WriteTo(w); err != nil {
					serviceLogger.Error().Str("batch_id", batchID).Err(err).Msg("error writing cached part response")
				}

				next.ServeHTTP(w, r)
				return
			}
		}

		if serviceCache.IsCacheEnabled() && cachemdw.IsCacheable(r) {
			w.Header().Set(cachemdw.CacheHeaderKey, cachemdw.CacheMissHeaderValue)
		}

		proxyRequestAt := time.Now()

		// set up response writer for copying the response from the backend server
		// for use out of band of the request-response cycle
		lrw := &bodySaverResponseWriter{ResponseWriter: negroni.NewResponseWriter(w), body: bytes.NewBufferString("")}

		// proxy the request to the backend origin server
		proxy.ServeHTTP(lrw, r)

		serviceLogger.Trace().
			Str("batch_id", batchID).
			Int("part", partIndex).
			Str("method", r.Method).
			Str("url", r.URL.String()).
			Int("status", lrw.Status()).
			Dur("latency", time.Since(proxyRequestAt)).
			Msg("proxied part request")

		response := &cachemdw.CachedResponse{
			Status: lrw.Status(),
			Header: lrw.Header().Clone(),
			Body:   lrw.body.Bytes(),
		}
		responseContext := context.WithValue(r.Context(), cachemdw.ResponseContextKey, response)

		next.ServeHTTP(lrw, r.WithContext(responseContext))
	}
}
