// package config provides functions and values
// for reading and validating batch service configuration
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	LogLevel                                  string
	BatchServicePort                          string
	BatchBackendURLRaw                        string
	ParallelProcessing                        bool
	ThreadPoolSize                            int
	IncludeOriginalHeaders                    bool
	MaxParts                                  int
	MaxBodyBytes                              int64
	HTTPReadTimeoutSeconds                    int64
	HTTPWriteTimeoutSeconds                   int64
	CacheEnabled                              bool
	RedisEndpointURL                          string
	RedisPassword                             string
	CacheTTL                                  time.Duration
	CachePrefix                               string
	MetricDatabaseEnabled                     bool
	DatabaseName                              string
	DatabaseEndpointURL                       string
	DatabaseUserName                          string
	DatabasePassword                          string
	DatabaseSSLEnabled                        bool
	DatabaseQueryLoggingEnabled               bool
	RunDatabaseMigrations                     bool
	DatabaseReadTimeoutSeconds                int64
	DatabaseWriteTimeoutSeconds               int64
	DatabaseMaxIdleConnections                int64
	DatabaseConnectionMaxIdleSeconds          int64
	DatabaseMaxOpenConnections                int64
	MetricPruningEnabled                      bool
	MetricPruningRoutineInterval              time.Duration
	MetricPruningRoutineDelayFirstRun         time.Duration
	MetricPruningMaxRequestMetricsHistoryDays int
}

const (
	LOG_LEVEL_ENVIRONMENT_KEY                                       = "LOG_LEVEL"
	DEFAULT_LOG_LEVEL                                               = "INFO"
	BATCH_SERVICE_PORT_ENVIRONMENT_KEY                              = "BATCH_SERVICE_PORT"
	DEFAULT_BATCH_SERVICE_PORT                                      = "7777"
	BATCH_BACKEND_URL_ENVIRONMENT_KEY                               = "BATCH_BACKEND_URL"
	BATCH_PARALLEL_PROCESSING_ENVIRONMENT_KEY                       = "BATCH_PARALLEL_PROCESSING"
	DEFAULT_BATCH_PARALLEL_PROCESSING                               = true
	BATCH_THREAD_POOL_SIZE_ENVIRONMENT_KEY                          = "BATCH_THREAD_POOL_SIZE"
	DEFAULT_BATCH_THREAD_POOL_SIZE                                  = 10
	BATCH_INCLUDE_ORIGINAL_HEADERS_ENVIRONMENT_KEY                  = "BATCH_INCLUDE_ORIGINAL_HEADERS"
	DEFAULT_BATCH_INCLUDE_ORIGINAL_HEADERS                          = true
	BATCH_MAX_PARTS_ENVIRONMENT_KEY                                 = "BATCH_MAX_PARTS"
	DEFAULT_BATCH_MAX_PARTS                                         = 100
	BATCH_MAX_BODY_BYTES_ENVIRONMENT_KEY                            = "BATCH_MAX_BODY_BYTES"
	DEFAULT_BATCH_MAX_BODY_BYTES                                    = 10 << 20
	HTTP_READ_TIMEOUT_ENVIRONMENT_KEY                               = "HTTP_READ_TIMEOUT_SECONDS"
	DEFAULT_HTTP_READ_TIMEOUT                                       = 30
	HTTP_WRITE_TIMEOUT_ENVIRONMENT_KEY                              = "HTTP_WRITE_TIMEOUT_SECONDS"
	DEFAULT_HTTP_WRITE_TIMEOUT                                      = 60
	CACHE_ENABLED_ENVIRONMENT_KEY                                   = "CACHE_ENABLED"
	REDIS_ENDPOINT_URL_ENVIRONMENT_KEY                              = "REDIS_ENDPOINT_URL"
	REDIS_PASSWORD_ENVIRONMENT_KEY                                  = "REDIS_PASSWORD"
	CACHE_TTL_ENVIRONMENT_KEY                                       = "CACHE_TTL_SECONDS"
	DEFAULT_CACHE_TTL_SECONDS                                       = 60
	CACHE_PREFIX_ENVIRONMENT_KEY                                    = "CACHE_PREFIX"
	DEFAULT_CACHE_PREFIX                                            = "batch"
	METRIC_DATABASE_ENABLED_ENVIRONMENT_KEY                         = "METRIC_DATABASE_ENABLED"
	DATABASE_NAME_ENVIRONMENT_KEY                                   = "DATABASE_NAME"
	DATABASE_ENDPOINT_URL_ENVIRONMENT_KEY                           = "DATABASE_ENDPOINT_URL"
	DATABASE_USERNAME_ENVIRONMENT_KEY                               = "DATABASE_USERNAME"
	DATABASE_PASSWORD_ENVIRONMENT_KEY                               = "DATABASE_PASSWORD"
	DATABASE_SSL_ENABLED_ENVIRONMENT_KEY                            = "DATABASE_SSL_ENABLED"
	DATABASE_QUERY_LOGGING_ENABLED_ENVIRONMENT_KEY                  = "DATABASE_QUERY_LOGGING_ENABLED"
	RUN_DATABASE_MIGRATIONS_ENVIRONMENT_KEY                         = "RUN_DATABASE_MIGRATIONS"
	DATABASE_READ_TIMEOUT_SECONDS_KEY                               = "DATABASE_READ_TIMEOUT_SECONDS"
	DEFAULT_DATABASE_READ_TIMEOUT_SECONDS                           = 60
	DATABASE_WRITE_TIMEOUT_SECONDS_KEY                              = "DATABASE_WRITE_TIMEOUT_SECONDS"
	DEFAULT_DATABASE_WRITE_TIMEOUT_SECONDS                          = 10
	DATABASE_MAX_IDLE_CONNECTIONS_ENVIRONMENT_KEY                   = "DATABASE_MAX_IDLE_CONNECTIONS"
	DEFAULT_DATABASE_MAX_IDLE_CONNECTIONS                           = 5
	DATABASE_CONNECTION_MAX_IDLE_SECONDS_ENVIRONMENT_KEY            = "DATABASE_CONNECTION_MAX_IDLE_SECONDS"
	DEFAULT_DATABASE_CONNECTION_MAX_IDLE_SECONDS                    = 5
	DATABASE_MAX_OPEN_CONNECTIONS_ENVIRONMENT_KEY                   = "DATABASE_MAX_OPEN_CONNECTIONS"
	DEFAULT_DATABASE_MAX_OPEN_CONNECTIONS                           = 20
	METRIC_PRUNING_ENABLED_ENVIRONMENT_KEY                          = "METRIC_PRUNING_ENABLED"
	DEFAULT_METRIC_PRUNING_ENABLED                                  = true
	METRIC_PRUNING_ROUTINE_INTERVAL_SECONDS_ENVIRONMENT_KEY         = "METRIC_PRUNING_ROUTINE_INTERVAL_SECONDS"
	DEFAULT_METRIC_PRUNING_ROUTINE_INTERVAL_SECONDS                 = 10
	METRIC_PRUNING_ROUTINE_DELAY_FIRST_RUN_SECONDS_ENVIRONMENT_KEY  = "METRIC_PRUNING_ROUTINE_DELAY_FIRST_RUN_SECONDS"
	DEFAULT_METRIC_PRUNING_ROUTINE_DELAY_FIRST_RUN_SECONDS          = 10
	METRIC_PRUNING_MAX_REQUEST_METRICS_HISTORY_DAYS_ENVIRONMENT_KEY = "METRIC_PRUNING_MAX_REQUEST_METRICS_HISTORY_DAYS"
	DEFAULT_METRIC_PRUNING_MAX_REQUEST_METRICS_HISTORY_DAYS         = 45
)

// EnvOrDefault fetches an environment variable value, or if not set returns the fallback value
func EnvOrDefault(key string, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// EnvOrDefaultBool fetches a boolean environment variable value, or if not set
// or not a valid boolean returns the fallback value
func EnvOrDefaultBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			return fallback
		}
		return parsed
	}
	return fallback
}

// EnvOrDefaultInt fetches an integer environment variable value, or if not set
// or not a valid integer returns the fallback value
func EnvOrDefaultInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fallback
		}
		return parsed
	}
	return fallback
}

// EnvOrDefaultInt64 is EnvOrDefaultInt for 64 bit values
func EnvOrDefaultInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fallback
		}
		return parsed
	}
	return fallback
}

// ReadConfig attempts to parse service config from environment values
// the returned config may be invalid and should be validated via the `Validate`
// function of the Config package before use
func ReadConfig() Config {
	return Config{
		LogLevel:                                  EnvOrDefault(LOG_LEVEL_ENVIRONMENT_KEY, DEFAULT_LOG_LEVEL),
		BatchServicePort:                          EnvOrDefault(BATCH_SERVICE_PORT_ENVIRONMENT_KEY, DEFAULT_BATCH_SERVICE_PORT),
		BatchBackendURLRaw:                        os.Getenv(BATCH_BACKEND_URL_ENVIRONMENT_KEY),
		ParallelProcessing:                        EnvOrDefaultBool(BATCH_PARALLEL_PROCESSING_ENVIRONMENT_KEY, DEFAULT_BATCH_PARALLEL_PROCESSING),
		ThreadPoolSize:                            EnvOrDefaultInt(BATCH_THREAD_POOL_SIZE_ENVIRONMENT_KEY, DEFAULT_BATCH_THREAD_POOL_SIZE),
		IncludeOriginalHeaders:                    EnvOrDefaultBool(BATCH_INCLUDE_ORIGINAL_HEADERS_ENVIRONMENT_KEY, DEFAULT_BATCH_INCLUDE_ORIGINAL_HEADERS),
		MaxParts:                                  EnvOrDefaultInt(BATCH_MAX_PARTS_ENVIRONMENT_KEY, DEFAULT_BATCH_MAX_PARTS),
		MaxBodyBytes:                              EnvOrDefaultInt64(BATCH_MAX_BODY_BYTES_ENVIRONMENT_KEY, DEFAULT_BATCH_MAX_BODY_BYTES),
		HTTPReadTimeoutSeconds:                    EnvOrDefaultInt64(HTTP_READ_TIMEOUT_ENVIRONMENT_KEY, DEFAULT_HTTP_READ_TIMEOUT),
		HTTPWriteTimeoutSeconds:                   EnvOrDefaultInt64(HTTP_WRITE_TIMEOUT_ENVIRONMENT_KEY, DEFAULT_HTTP_WRITE_TIMEOUT),
		CacheEnabled:                              EnvOrDefaultBool(CACHE_ENABLED_ENVIRONMENT_KEY, false),
		RedisEndpointURL:                          os.Getenv(REDIS_ENDPOINT_URL_ENVIRONMENT_KEY),
		RedisPassword:                             os.Getenv(REDIS_PASSWORD_ENVIRONMENT_KEY),
		CacheTTL:                                  time.Duration(EnvOrDefaultInt(CACHE_TTL_ENVIRONMENT_KEY, DEFAULT_CACHE_TTL_SECONDS)) * time.Second,
		CachePrefix:                               EnvOrDefault(CACHE_PREFIX_ENVIRONMENT_KEY, DEFAULT_CACHE_PREFIX),
		MetricDatabaseEnabled:                     EnvOrDefaultBool(METRIC_DATABASE_ENABLED_ENVIRONMENT_KEY, false),
		DatabaseName:                              os.Getenv(DATABASE_NAME_ENVIRONMENT_KEY),
		DatabaseEndpointURL:                       os.Getenv(DATABASE_ENDPOINT_URL_ENVIRONMENT_KEY),
		DatabaseUserName:                          os.Getenv(DATABASE_USERNAME_ENVIRONMENT_KEY),
		DatabasePassword:                          os.Getenv(DATABASE_PASSWORD_ENVIRONMENT_KEY),
		DatabaseSSLEnabled:                        EnvOrDefaultBool(DATABASE_SSL_ENABLED_ENVIRONMENT_KEY, false),
		DatabaseQueryLoggingEnabled:               EnvOrDefaultBool(DATABASE_QUERY_LOGGING_ENABLED_ENVIRONMENT_KEY, false),
		RunDatabaseMigrations:                     EnvOrDefaultBool(RUN_DATABASE_MIGRATIONS_ENVIRONMENT_KEY, false),
		DatabaseReadTimeoutSeconds:                EnvOrDefaultInt64(DATABASE_READ_TIMEOUT_SECONDS_KEY, DEFAULT_DATABASE_READ_TIMEOUT_SECONDS),
		DatabaseWriteTimeoutSeconds:               EnvOrDefaultInt64(DATABASE_WRITE_TIMEOUT_SECONDS_KEY, DEFAULT_DATABASE_WRITE_TIMEOUT_SECONDS),
		DatabaseMaxIdleConnections:                EnvOrDefaultInt64(DATABASE_MAX_IDLE_CONNECTIONS_ENVIRONMENT_KEY, DEFAULT_DATABASE_MAX_IDLE_CONNECTIONS),
		DatabaseConnectionMaxIdleSeconds:          EnvOrDefaultInt64(DATABASE_CONNECTION_MAX_IDLE_SECONDS_ENVIRONMENT_KEY, DEFAULT_DATABASE_CONNECTION_MAX_IDLE_SECONDS),
		DatabaseMaxOpenConnections:                EnvOrDefaultInt64(DATABASE_MAX_OPEN_CONNECTIONS_ENVIRONMENT_KEY, DEFAULT_DATABASE_MAX_OPEN_CONNECTIONS),
		MetricPruningEnabled:                      EnvOrDefaultBool(METRIC_PRUNING_ENABLED_ENVIRONMENT_KEY, DEFAULT_METRIC_PRUNING_ENABLED),
		MetricPruningRoutineInterval:              time.Duration(EnvOrDefaultInt(METRIC_PRUNING_ROUTINE_INTERVAL_SECONDS_ENVIRONMENT_KEY, DEFAULT_METRIC_PRUNING_ROUTINE_INTERVAL_SECONDS)) * time.Second,
		MetricPruningRoutineDelayFirstRun:         time.Duration(EnvOrDefaultInt(METRIC_PRUNING_ROUTINE_DELAY_FIRST_RUN_SECONDS_ENVIRONMENT_KEY, DEFAULT_METRIC_PRUNING_ROUTINE_DELAY_FIRST_RUN_SECONDS)) * time.Second,
		MetricPruningMaxRequestMetricsHistoryDays: EnvOrDefaultInt(METRIC_PRUNING_MAX_REQUEST_METRICS_HISTORY_DAYS_ENVIRONMENT_KEY, DEFAULT_METRIC_PRUNING_MAX_REQUEST_METRICS_HISTORY_DAYS),
	}
}
