// Package database defines the storage of per part metrics
// recorded while dispatching batch requests
package database

import (
	"context"
	"time"
)

// MetricsDatabase stores and prunes PartMetrics
type MetricsDatabase interface {
	SavePartMetric(ctx context.Context, metric *PartMetric) error
	ListPartMetricsWithPagination(ctx context.Context, cursor int64, limit int) ([]*PartMetric, int64, error)
	DeletePartMetricsOlderThanNDays(ctx context.Context, n int64) error
	HealthCheck() error
}

// PartMetric contains request metrics for
// a single part of a batch request
type PartMetric struct {
	ID int64
	// BatchID groups the parts of the same batch request
	BatchID                     string
	PartIndex                   int
	Method                      string
	URL                         string
	Status                      int
	ResponseLatencyMilliseconds int64
	CacheHit                    bool
	RequestTime                 time.Time
}
