package postgres

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/migrate"

	"github.com/seesharpsoft/multipart-batch-service/clients/database"
	"github.com/seesharpsoft/multipart-batch-service/logging"
)

// DatabaseConfig contains values for creating a
// new connection to a postgres database
type DatabaseConfig struct {
	DatabaseName                     string
	DatabaseEndpointURL              string
	DatabaseUsername                 string
	DatabasePassword                 string
	ReadTimeoutSeconds               int64
	WriteTimeoutSeconds              int64
	DatabaseMaxIdleConnections       int64
	DatabaseConnectionMaxIdleSeconds int64
	DatabaseMaxOpenConnections       int64
	SSLEnabled                       bool
	QueryLoggingEnabled              bool
	Logger                           *logging.ServiceLogger
}

// Client wraps a connection to a postgres database
type Client struct {
	db     *bun.DB
	logger *logging.ServiceLogger
}

var _ database.MetricsDatabase = (*Client)(nil)

// NewClient returns a new connection to the specified
// postgres data and error (if any)
func NewClient(config DatabaseConfig) (*Client, error) {
	if config.DatabaseEndpointURL == "" || config.DatabaseName == "" {
		return nil, errors.New("database endpoint url and name are required")
	}

	logger := config.Logger
	if logger == nil {
		nop := logging.Nop()
		logger = &nop
	}

	// configure postgres database connection options
	options := []pgdriver.Option{
		pgdriver.WithAddr(config.DatabaseEndpointURL),
		pgdriver.WithUser(config.DatabaseUsername),
		pgdriver.WithPassword(config.DatabasePassword),
		pgdriver.WithDatabase(config.DatabaseName),
		pgdriver.WithReadTimeout(time.Second * time.Duration(config.ReadTimeoutSeconds)),
		pgdriver.WithWriteTimeout(time.Second * time.Duration(config.WriteTimeoutSeconds)),
	}

	if config.SSLEnabled {
		options = append(options, pgdriver.WithTLSConfig(&tls.Config{InsecureSkipVerify: false}))
	} else {
		options = append(options, pgdriver.WithInsecure(true))
	}

	pgOptions := pgdriver.NewConnector(options...)

	logger.Debug().
		Str("addr", config.DatabaseEndpointURL).
		Str("database", config.DatabaseName).
		Bool("ssl", config.SSLEnabled).
		Msg("creating database client")

	// connect to the database
	sqldb := sql.OpenDB(pgOptions)

	// configure connection limits
	// https://go.dev/doc/database/manage-connections#connection_pool_properties
	sqldb.SetMaxIdleConns(int(config.DatabaseMaxIdleConnections))
	sqldb.SetConnMaxIdleTime(time.Second * time.Duration(config.DatabaseConnectionMaxIdleSeconds))
	sqldb.SetMaxOpenConns(int(config.DatabaseMaxOpenConnections))

	db := bun.NewDB(sqldb, pgdialect.New())

	// set up logging on database if requested
	if config.QueryLoggingEnabled {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	return &Client{
		db:     db,
		logger: logger,
	}, nil
}

// HealthCheck returns an error if the database can not
// be connected to and queried, nil otherwise
func (c *Client) HealthCheck() error {
	if c.db == nil {
		return database.ErrNoDatabase
	}

	_, err := c.db.Exec(`SELECT 1;`)
	if err != nil {
		return fmt.Errorf("database healthcheck: %w", err)
	}

	return nil
}

// Migrate runs the pending migrations against the database
func (c *Client) Migrate(ctx context.Context, migrations *migrate.Migrations, logger *logging.ServiceLogger) (*migrate.MigrationSlice, error) {
	return database.Migrate(ctx, c.db, migrations, logger)
}

// Close closes the connections to the database
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
