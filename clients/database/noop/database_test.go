package noop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seesharpsoft/multipart-batch-service/clients/database"
)

func TestUnitTestNoop(t *testing.T) {
	db := New()

	require.NoError(t, db.SavePartMetric(context.Background(), &database.PartMetric{}))

	metrics, cursor, err := db.ListPartMetricsWithPagination(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Empty(t, metrics)
	require.Zero(t, cursor)

	require.NoError(t, db.DeletePartMetricsOlderThanNDays(context.Background(), 1))
	require.NoError(t, db.HealthCheck())
}
