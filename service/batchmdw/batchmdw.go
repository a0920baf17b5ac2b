package batchmdw

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/seesharpsoft/multipart-batch-service/clients/database"
	"github.com/seesharpsoft/multipart-batch-service/logging"
	"github.com/seesharpsoft/multipart-batch-service/metrics"
	"github.com/seesharpsoft/multipart-batch-service/multipart"
)

type contextKey string

const (
	BatchIDContextKey   contextKey = "X-BATCH-ID"
	PartIndexContextKey contextKey = "X-BATCH-PART-INDEX"
)

// headers describing the batch body, never forwarded to the parts
var batchOnlyHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Content-Encoding",
	"Transfer-Encoding",
}

type BatchMiddlewareConfig struct {
	ServiceLogger *logging.ServiceLogger

	// ParallelProcessing serves the parts of a batch concurrently,
	// at most ThreadPoolSize at a time
	ParallelProcessing bool
	ThreadPoolSize     int
	// IncludeOriginalHeaders copies the headers of the batch request to every part
	IncludeOriginalHeaders bool
	// MaxParts is the maximum number of parts of a batch, zero means unlimited
	MaxParts int
	// MaxBodyBytes is the maximum size of a batch body, zero means unlimited
	MaxBodyBytes int64

	// MetricsDatabase stores a metric per part when set
	MetricsDatabase database.MetricsDatabase
}

// CreateBatchProcessingMiddleware returns a handler that splits a multipart/mixed batch request
// into its parts, serves every part with next and answers with the framed part responses
func CreateBatchProcessingMiddleware(next http.Handler, config *BatchMiddlewareConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		receivedAt := time.Now()
		logger := config.ServiceLogger

		reject := func(status int, err error) {
			logger.Debug().
				Str("url", r.URL.String()).
				Int("status", status).
				Err(err).
				Msg("rejecting batch request")

			metrics.RecordBatch(metrics.ResultRejected, time.Since(receivedAt).Seconds())
			http.Error(w, err.Error(), status)
		}

		boundary, err := multipart.BoundaryFromContentType(r.Header.Get("Content-Type"))
		if err != nil {
			if errors.Is(err, multipart.ErrNotMultipart) {
				reject(http.StatusUnsupportedMediaType, err)
				return
			}
			reject(http.StatusBadRequest, err)
			return
		}

		body, err := readBody(w, r, config.MaxBodyBytes)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				reject(http.StatusRequestEntityTooLarge, fmt.Errorf("batch body exceeds %d bytes", maxBytesErr.Limit))
				return
			}
			reject(http.StatusBadRequest, err)
			return
		}

		parts, err := multipart.ParseRequest(body, boundary)
		if err != nil {
			reject(http.StatusBadRequest, err)
			return
		}

		if config.MaxParts > 0 && len(parts) > config.MaxParts {
			reject(http.StatusRequestEntityTooLarge, fmt.Errorf("batch has %d parts, at most %d are allowed", len(parts), config.MaxParts))
			return
		}

		batchID := uuid.NewString()

		requests := make([]*http.Request, 0, len(parts))
		for i, part := range parts {
			partContext := context.WithValue(r.Context(), BatchIDContextKey, batchID)
			partContext = context.WithValue(partContext, PartIndexContextKey, i)

			req, err := newPartRequest(partContext, r, part, config.IncludeOriginalHeaders)
			if err != nil {
				reject(http.StatusBadRequest, &multipart.ParseError{Part: i, Err: err})
				return
			}
			requests = append(requests, req)
		}

		logger.Debug().
			Str("batch_id", batchID).
			Int("parts", len(requests)).
			Bool("parallel", config.ParallelProcessing).
			Msg("processing batch request")

		brw := newBatchResponseWriter(w, boundary, len(requests))
		if err := NewBatchProcessor(next, batchID, requests, config).RequestAndServe(brw); err != nil {
			logger.Error().Str("batch_id", batchID).Err(err).Msg("error writing batch response")
		}

		metrics.RecordBatch(metrics.ResultSuccess, time.Since(receivedAt).Seconds())
	}
}

func readBody(w http.ResponseWriter, r *http.Request, maxBodyBytes int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}

	body := r.Body
	if maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	}

	return io.ReadAll(body)
}

// newPartRequest builds the request of a single part.
// Relative part urls are resolved against the url of the batch request.
func newPartRequest(ctx context.Context, batch *http.Request, part multipart.InboundPart, includeOriginalHeaders bool) (*http.Request, error) {
	target, err := batch.URL.Parse(part.URL)
	if err != nil {
		return nil, err
	}

	if target.Host == "" {
		target.Host = batch.Host
	}
	if target.Scheme == "" {
		target.Scheme = "http"
		if batch.TLS != nil {
			target.Scheme = "https"
		}
	}

	req, err := http.NewRequestWithContext(ctx, part.Method, target.String(), bytes.NewReader(part.Body))
	if err != nil {
		return nil, err
	}

	if includeOriginalHeaders {
		req.Header = batch.Header.Clone()
		for _, name := range batchOnlyHeaders {
			req.Header.Del(name)
		}
	}

	for name, values := range part.Header {
		req.Header.Del(name)
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	// the Host header of a request is carried by req.Host
	if host := req.Header.Get("Host"); host != "" {
		req.Host = host
	}
	req.Header.Del("Host")

	req.RemoteAddr = batch.RemoteAddr

	return req, nil
}

// BatchIDFromContext returns the id of the batch a part request belongs to
func BatchIDFromContext(ctx context.Context) (string, bool) {
	batchID, ok := ctx.Value(BatchIDContextKey).(string)
	return batchID, ok
}

// PartIndexFromContext returns the zero based index of a part request in its batch
func PartIndexFromContext(ctx context.Context) (int, bool) {
	index, ok := ctx.Value(PartIndexContextKey).(int)
	return index, ok
}
