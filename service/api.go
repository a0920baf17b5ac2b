package service

import (
	"time"

	"github.com/seesharpsoft/multipart-batch-service/clients/database"
)

// PartMetric is the json representation of a stored part metric
type PartMetric struct {
	ID                          int64     `json:"id"`
	BatchID                     string    `json:"batch_id"`
	PartIndex                   int       `json:"part_index"`
	Method                      string    `json:"method"`
	URL                         string    `json:"url"`
	Status                      int       `json:"status"`
	ResponseLatencyMilliseconds int64     `json:"response_latency_ms"`
	CacheHit                    bool      `json:"cache_hit"`
	RequestTime                 time.Time `json:"request_time"`
}

// PartMetricsResponse wraps values
// returned by calls to /status/part-metrics
type PartMetricsResponse struct {
	PartMetrics []PartMetric `json:"part_metrics"`
	NextCursor  int64        `json:"next_cursor"` // id to pass as cursor for the next page, 0 if there is none
}

func newPartMetricsResponse(metrics []*database.PartMetric, nextCursor int64) PartMetricsResponse {
	response := PartMetricsResponse{
		PartMetrics: make([]PartMetric, 0, len(metrics)),
		NextCursor:  nextCursor,
	}

	for _, metric := range metrics {
		response.PartMetrics = append(response.PartMetrics, PartMetric{
			ID:                          metric.ID,
			BatchID:                     metric.BatchID,
			PartIndex:                   metric.PartIndex,
			Method:                      metric.Method,
			URL:                         metric.URL,
			Status:                      metric.Status,
			ResponseLatencyMilliseconds: metric.ResponseLatencyMilliseconds,
			CacheHit:                    metric.CacheHit,
			RequestTime:                 metric.RequestTime,
		})
	}

	return response
}
