// package service provides functions and methods
// for creating and running the api of the batch service
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seesharpsoft/multipart-batch-service/clients/cache"
	"github.com/seesharpsoft/multipart-batch-service/clients/database"
	"github.com/seesharpsoft/multipart-batch-service/clients/database/noop"
	"github.com/seesharpsoft/multipart-batch-service/clients/database/postgres"
	"github.com/seesharpsoft/multipart-batch-service/clients/database/postgres/migrations"
	"github.com/seesharpsoft/multipart-batch-service/config"
	"github.com/seesharpsoft/multipart-batch-service/logging"
	"github.com/seesharpsoft/multipart-batch-service/routines"
	"github.com/seesharpsoft/multipart-batch-service/service/batchmdw"
	"github.com/seesharpsoft/multipart-batch-service/service/cachemdw"
)

const (
	BatchPath        = "/batch"
	HealthcheckPath  = "/healthcheck"
	ServicecheckPath = "/servicecheck"
	MetricsPath      = "/metrics"

	databaseConnectRetries  = 30
	databaseConnectInterval = time.Second
)

// BatchService represents an instance of the batch service API
type BatchService struct {
	Database database.MetricsDatabase
	Cache    *cachemdw.ServiceCache

	httpServer *http.Server
	// closers release the connections of the service on shutdown
	closers []io.Closer
	// stopRoutines stops the background routines of the service
	stopRoutines context.CancelFunc
	*logging.ServiceLogger
}

// New returns a new BatchService with the specified config and error (if any)
func New(ctx context.Context, serviceConfig config.Config, serviceLogger *logging.ServiceLogger) (BatchService, error) {
	service := BatchService{
		ServiceLogger: serviceLogger,
	}

	backendURL, err := config.ParseBackendURL(serviceConfig.BatchBackendURLRaw)
	if err != nil {
		return BatchService{}, err
	}

	serviceCache, err := service.createServiceCache(serviceConfig)
	if err != nil {
		return BatchService{}, err
	}
	service.Cache = serviceCache

	db, err := service.createDatabase(ctx, serviceConfig)
	if err != nil {
		service.close()
		return BatchService{}, err
	}
	service.Database = db

	routinesCtx, stopRoutines := context.WithCancel(context.Background())
	service.stopRoutines = stopRoutines

	if serviceConfig.MetricDatabaseEnabled && serviceConfig.MetricPruningEnabled {
		if err := service.startMetricPruning(routinesCtx, serviceConfig); err != nil {
			service.close()
			return BatchService{}, err
		}
	}

	// every part of a batch is served by
	// is cached -> cached or proxied response -> caching
	terminal := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	cachingMiddleware := serviceCache.CachingMiddleware(terminal)
	proxyMiddleware := createProxyRequestMiddleware(cachingMiddleware, newBackendProxy(backendURL, serviceLogger), serviceCache, serviceLogger)
	partHandler := serviceCache.IsCachedMiddleware(proxyMiddleware)

	batchMiddleware := batchmdw.CreateBatchProcessingMiddleware(partHandler, &batchmdw.BatchMiddlewareConfig{
		ServiceLogger:          serviceLogger,
		ParallelProcessing:     serviceConfig.ParallelProcessing,
		ThreadPoolSize:         serviceConfig.ThreadPoolSize,
		IncludeOriginalHeaders: serviceConfig.IncludeOriginalHeaders,
		MaxParts:               serviceConfig.MaxParts,
		MaxBodyBytes:           serviceConfig.MaxBodyBytes,
		MetricsDatabase:        db,
	})

	// create an http router for registering handlers for a given route
	mux := http.NewServeMux()

	mux.Handle("POST "+BatchPath, batchMiddleware)
	mux.HandleFunc("GET "+HealthcheckPath, createHealthcheckHandler(&service))
	mux.HandleFunc("GET "+ServicecheckPath, createServicecheckHandler(&service))
	mux.HandleFunc("GET "+PartMetricsStatusPath, createPartMetricsStatusHandler(&service))
	mux.Handle("GET "+MetricsPath, promhttp.Handler())

	// create an http server for the caller to start at their own discretion
	service.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", serviceConfig.BatchServicePort),
		Handler:      createRequestLoggingMiddleware(mux, serviceLogger),
		ReadTimeout:  time.Duration(serviceConfig.HTTPReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(serviceConfig.HTTPWriteTimeoutSeconds) * time.Second,
	}

	return service, nil
}

// createServiceCache returns a cache backed by redis when caching is enabled,
// otherwise a disabled cache around an in memory store
func (s *BatchService) createServiceCache(config config.Config) (*cachemdw.ServiceCache, error) {
	if !config.CacheEnabled {
		return cachemdw.NewServiceCache(cache.NewInMemoryCache(), config.CachePrefix, false, config.CacheTTL, s.ServiceLogger), nil
	}

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Address:  config.RedisEndpointURL,
		Password: config.RedisPassword,
	}, s.ServiceLogger)
	if err != nil {
		return nil, fmt.Errorf("error creating redis cache: %w", err)
	}
	s.closers = append(s.closers, redisCache)

	return cachemdw.NewServiceCache(redisCache, config.CachePrefix, true, config.CacheTTL, s.ServiceLogger), nil
}

// createDatabase connects to the metrics database, waiting for it to become
// reachable and migrating it if configured to do so
func (s *BatchService) createDatabase(ctx context.Context, config config.Config) (database.MetricsDatabase, error) {
	if !config.MetricDatabaseEnabled {
		return noop.New(), nil
	}

	client, err := postgres.NewClient(postgres.DatabaseConfig{
		DatabaseName:                     config.DatabaseName,
		DatabaseEndpointURL:              config.DatabaseEndpointURL,
		DatabaseUsername:                 config.DatabaseUserName,
		DatabasePassword:                 config.DatabasePassword,
		ReadTimeoutSeconds:               config.DatabaseReadTimeoutSeconds,
		WriteTimeoutSeconds:              config.DatabaseWriteTimeoutSeconds,
		DatabaseMaxIdleConnections:       config.DatabaseMaxIdleConnections,
		DatabaseConnectionMaxIdleSeconds: config.DatabaseConnectionMaxIdleSeconds,
		DatabaseMaxOpenConnections:       config.DatabaseMaxOpenConnections,
		SSLEnabled:                       config.DatabaseSSLEnabled,
		QueryLoggingEnabled:              config.DatabaseQueryLoggingEnabled,
		Logger:                           s.ServiceLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating database client: %w", err)
	}
	s.closers = append(s.closers, client)

	retryPolicy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(databaseConnectInterval), databaseConnectRetries), ctx)
	err = backoff.RetryNotify(client.HealthCheck, retryPolicy, func(err error, next time.Duration) {
		s.Debug().Err(err).Dur("retry_in", next).Msg("waiting for database")
	})
	if err != nil {
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	if config.RunDatabaseMigrations {
		applied, err := client.Migrate(ctx, migrations.Migrations, s.ServiceLogger)
		if err != nil {
			return nil, fmt.Errorf("error running migrations: %w", err)
		}
		s.Info().Msg(fmt.Sprintf("applied migrations %s", applied))
	}

	return client, nil
}

// startMetricPruning starts the metric pruning routine, logging
// the errors it reports until ctx is done
func (s *BatchService) startMetricPruning(ctx context.Context, config config.Config) error {
	routine, err := routines.NewMetricPruningRoutine(routines.MetricPruningRoutineConfig{
		Interval:          config.MetricPruningRoutineInterval,
		StartDelay:        config.MetricPruningRoutineDelayFirstRun,
		MaxMetricsHistory: config.MetricPruningMaxRequestMetricsHistoryDays,
		Database:          s.Database,
		Logger:            *s.ServiceLogger,
	})
	if err != nil {
		return err
	}

	errs, err := routine.Run(ctx)
	if err != nil {
		return err
	}

	go func() {
		for err := range errs {
			s.Error().Err(err).Msg("metric pruning routine error")
		}
	}()

	return nil
}

// Run runs the batch service, returning error (if any) in the event
// the batch service stops
func (s *BatchService) Run() error {
	s.Info().Str("addr", s.httpServer.Addr).Msg("starting batch service")

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// RunUntil runs the batch service until ctx is done, then shuts it down,
// giving in flight batches at most shutdownTimeout to complete.
// It returns once the shutdown has finished.
func (s *BatchService) RunUntil(ctx context.Context, shutdownTimeout time.Duration) error {
	shutdownErr := make(chan error, 1)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		shutdownErr <- s.Shutdown(shutdownCtx)
	}()

	// Run returns as soon as Shutdown starts, not when it completes
	if err := s.Run(); err != nil {
		return err
	}

	return <-shutdownErr
}

// Shutdown gracefully stops the http server and
// releases the connections held by the service
func (s *BatchService) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)

	return errors.Join(err, s.close())
}

func (s *BatchService) close() error {
	if s.stopRoutines != nil {
		s.stopRoutines()
	}

	var err error
	for _, closer := range s.closers {
		err = errors.Join(err, closer.Close())
	}
	s.closers = nil

	return err
}
