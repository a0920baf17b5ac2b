package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/migrate"

	"github.com/seesharpsoft/multipart-batch-service/logging"
)

func TestUnitTestMigrateNoDatabase(t *testing.T) {
	logger := logging.Nop()

	migrations, err := Migrate(context.Background(), nil, migrate.NewMigrations(), &logger)
	require.ErrorIs(t, err, ErrNoDatabase)
	require.Empty(t, *migrations)
}
