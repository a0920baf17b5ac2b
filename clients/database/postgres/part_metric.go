package postgres

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/seesharpsoft/multipart-batch-service/clients/database"
)

const (
	PartMetricsTableName = "batch_part_metrics"
)

// PartMetric is the row stored for
// a single part of a batch request
type PartMetric struct {
	bun.BaseModel `bun:"table:batch_part_metrics,alias:bpm"`

	ID                          int64 `bun:",pk,autoincrement"`
	BatchID                     string
	PartIndex                   int
	Method                      string
	URL                         string `bun:"url"`
	Status                      int
	ResponseLatencyMilliseconds int64
	CacheHit                    bool
	RequestTime                 time.Time
}

func (pm *PartMetric) toPartMetric() *database.PartMetric {
	return &database.PartMetric{
		ID:                          pm.ID,
		BatchID:                     pm.BatchID,
		PartIndex:                   pm.PartIndex,
		Method:                      pm.Method,
		URL:                         pm.URL,
		Status:                      pm.Status,
		ResponseLatencyMilliseconds: pm.ResponseLatencyMilliseconds,
		CacheHit:                    pm.CacheHit,
		RequestTime:                 pm.RequestTime,
	}
}

func convertPartMetric(metric *database.PartMetric) *PartMetric {
	return &PartMetric{
		ID:                          metric.ID,
		BatchID:                     metric.BatchID,
		PartIndex:                   metric.PartIndex,
		Method:                      metric.Method,
		URL:                         metric.URL,
		Status:                      metric.Status,
		ResponseLatencyMilliseconds: metric.ResponseLatencyMilliseconds,
		CacheHit:                    metric.CacheHit,
		RequestTime:                 metric.RequestTime,
	}
}

// SavePartMetric saves the metric to
// the database, returning error (if any).
func (c *Client) SavePartMetric(ctx context.Context, metric *database.PartMetric) error {
	if c.db == nil {
		return database.ErrNoDatabase
	}

	row := convertPartMetric(metric)
	_, err := c.db.NewInsert().Model(row).Exec(ctx)
	if err != nil {
		return err
	}

	metric.ID = row.ID

	return nil
}

// ListPartMetricsWithPagination returns a page of max
// `limit` PartMetrics from the offset specified by `cursor`
// error (if any) along with a cursor to use to fetch the next page
// if the cursor is 0 no more pages exists.
func (c *Client) ListPartMetricsWithPagination(ctx context.Context, cursor int64, limit int) ([]*database.PartMetric, int64, error) {
	if c.db == nil {
		return nil, 0, database.ErrNoDatabase
	}

	var rows []PartMetric
	var nextCursor int64

	err := c.db.NewSelect().Model(&rows).Where("id > ?", cursor).Order("id ASC").Limit(limit).Scan(ctx)
	if err != nil {
		return nil, 0, err
	}

	// a full page might be followed by another one
	if limit > 0 && len(rows) == limit {
		nextCursor = rows[len(rows)-1].ID
	}

	metrics := make([]*database.PartMetric, 0, len(rows))
	for i := range rows {
		metrics = append(metrics, rows[i].toPartMetric())
	}

	// otherwise leave nextCursor as 0 to signal no more rows
	return metrics, nextCursor, nil
}

// DeletePartMetricsOlderThanNDays deletes
// all part metrics older than the specified
// days, returning error (if any).
// Used during pruning process.
func (c *Client) DeletePartMetricsOlderThanNDays(ctx context.Context, n int64) error {
	if c.db == nil {
		return database.ErrNoDatabase
	}

	_, err := c.db.NewDelete().
		Model((*PartMetric)(nil)).
		Where("request_time < ?", time.Now().AddDate(0, 0, -int(n))).
		Exec(ctx)

	return err
}
