package noop

import (
	"context"

	"github.com/seesharpsoft/multipart-batch-service/clients/database"
)

// Noop is a database client that does nothing,
// used when metric collection is disabled
type Noop struct{}

var _ database.MetricsDatabase = (*Noop)(nil)

func New() *Noop {
	return &Noop{}
}

func (e *Noop) SavePartMetric(ctx context.Context, metric *database.PartMetric) error {
	return nil
}

func (e *Noop) ListPartMetricsWithPagination(ctx context.Context, cursor int64, limit int) ([]*database.PartMetric, int64, error) {
	return []*database.PartMetric{}, 0, nil
}

func (e *Noop) DeletePartMetricsOlderThanNDays(ctx context.Context, n int64) error {
	return nil
}

func (e *Noop) HealthCheck() error {
	return nil
}
