package batchmdw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seesharpsoft/multipart-batch-service/clients/database"
	"github.com/seesharpsoft/multipart-batch-service/metrics"
	"github.com/seesharpsoft/multipart-batch-service/multipart"
	"github.com/seesharpsoft/multipart-batch-service/service/cachemdw"
)

// BatchProcessor serves the part requests of a single batch
type BatchProcessor struct {
	handler   http.Handler
	batchID   string
	requests  []*http.Request
	responses []multipart.ResponsePart
	config    *BatchMiddlewareConfig
}

func NewBatchProcessor(handler http.Handler, batchID string, reqs []*http.Request, config *BatchMiddlewareConfig) *BatchProcessor {
	return &BatchProcessor{
		handler:   handler,
		batchID:   batchID,
		requests:  reqs,
		responses: make([]multipart.ResponsePart, len(reqs)),
		config:    config,
	}
}

// RequestAndServe serves every part request and writes the
// collected responses, in part order, with w
func (bp *BatchProcessor) RequestAndServe(w *batchResponseWriter) error {
	if bp.config.ParallelProcessing && len(bp.requests) > 1 {
		var group errgroup.Group
		group.SetLimit(bp.threadPoolSize())

		for i, r := range bp.requests {
			group.Go(func() error {
				// each goroutine owns its own slot of responses
				bp.responses[i] = bp.serve(i, r)
				return nil
			})
		}

		// serve never fails, panics included
		_ = group.Wait()
	} else {
		for i, r := range bp.requests {
			bp.responses[i] = bp.serve(i, r)
		}
	}

	for _, response := range bp.responses {
		w.add(response)
	}

	return w.FlushResponses()
}

func (bp *BatchProcessor) threadPoolSize() int {
	if bp.config.ThreadPoolSize < 1 {
		return 1
	}
	return bp.config.ThreadPoolSize
}

// serve serves a single part request, recovering from handler panics
func (bp *BatchProcessor) serve(idx int, req *http.Request) (part multipart.ResponsePart) {
	logger := bp.config.ServiceLogger

	logger.Debug().
		Str("batch_id", bp.batchID).
		Int("part", idx).
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Msg("handling individual request from batch")

	frw := newFakeResponseWriter(new(bytes.Buffer))
	startedAt := time.Now()
	metrics.RecordPartStart()

	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error().
				Str("batch_id", bp.batchID).
				Int("part", idx).
				Str("url", req.URL.String()).
				Msg(fmt.Sprintf("panic handling part: %v", recovered))

			part = errorPart(recovered)
		}

		latency := time.Since(startedAt)
		metrics.RecordPartFinish(req.Method, part.Status)
		bp.saveMetric(idx, req, part, startedAt, latency)

		logger.Trace().
			Str("batch_id", bp.batchID).
			Int("part", idx).
			Int("status", part.Status).
			Dur("latency", latency).
			Msg("part response")
	}()

	bp.handler.ServeHTTP(frw, req)

	return frw.responsePart()
}

// saveMetric stores the metric of a part out of band of the request-response cycle
func (bp *BatchProcessor) saveMetric(idx int, req *http.Request, part multipart.ResponsePart, startedAt time.Time, latency time.Duration) {
	db := bp.config.MetricsDatabase
	if db == nil {
		return
	}

	metric := &database.PartMetric{
		BatchID:                     bp.batchID,
		PartIndex:                   idx,
		Method:                      req.Method,
		URL:                         req.URL.String(),
		Status:                      part.Status,
		ResponseLatencyMilliseconds: latency.Milliseconds(),
		CacheHit:                    cachemdw.IsCacheHitHeaders(part.Header),
		RequestTime:                 startedAt,
	}

	go func() {
		if err := db.SavePartMetric(context.Background(), metric); err != nil {
			bp.config.ServiceLogger.Error().
				Str("batch_id", bp.batchID).
				Int("part", idx).
				Err(err).
				Msg("error saving part metric")
		}
	}()
}

// errorPart is the response of a part whose handler panicked,
// its body is JSON like every other part body of a batch
func errorPart(recovered any) multipart.ResponsePart {
	// marshaling a map of strings can not fail
	body, _ := json.Marshal(map[string]string{
		"error": fmt.Sprintf("Error processing request: %v", recovered),
	})

	return multipart.ResponsePart{
		Status: http.StatusInternalServerError,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   body,
	}
}
