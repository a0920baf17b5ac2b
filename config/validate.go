package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var (
	ValidLogLevels = [5]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}
)

// Validate validates the provided config
// returning a list of errors that can be unwrapped with `errors.Unwrap`
// or nil if the config is valid
func Validate(config Config) error {
	var validLogLevel bool
	var allErrs error

	for _, validLevel := range ValidLogLevels {
		if config.LogLevel == validLevel {
			validLogLevel = true
			break
		}
	}

	if !validLogLevel {
		allErrs = fmt.Errorf("invalid %s specified %s, supported values are %v", LOG_LEVEL_ENVIRONMENT_KEY, config.LogLevel, ValidLogLevels)
	}

	_, err := strconv.Atoi(config.BatchServicePort)

	if err != nil {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s", BATCH_SERVICE_PORT_ENVIRONMENT_KEY, config.BatchServicePort))
	}

	_, err = ParseBackendURL(config.BatchBackendURLRaw)

	if err != nil {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s: %w", BATCH_BACKEND_URL_ENVIRONMENT_KEY, config.BatchBackendURLRaw, err))
	}

	if config.ThreadPoolSize < 1 {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %d, must be greater than zero", BATCH_THREAD_POOL_SIZE_ENVIRONMENT_KEY, config.ThreadPoolSize))
	}
	if config.MaxParts < 1 {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %d, must be greater than zero", BATCH_MAX_PARTS_ENVIRONMENT_KEY, config.MaxParts))
	}
	if config.MaxBodyBytes < 1 {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %d, must be greater than zero", BATCH_MAX_BODY_BYTES_ENVIRONMENT_KEY, config.MaxBodyBytes))
	}

	if config.CacheEnabled {
		if config.RedisEndpointURL == "" {
			allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s, must not be empty", REDIS_ENDPOINT_URL_ENVIRONMENT_KEY, config.RedisEndpointURL))
		}
		if config.CacheTTL <= 0 {
			allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s, must be greater than zero", CACHE_TTL_ENVIRONMENT_KEY, config.CacheTTL))
		}
		if strings.Contains(config.CachePrefix, ":") {
			allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s, must not contain colon symbol", CACHE_PREFIX_ENVIRONMENT_KEY, config.CachePrefix))
		}
		if config.CachePrefix == "" {
			allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s, must not be empty", CACHE_PREFIX_ENVIRONMENT_KEY, config.CachePrefix))
		}
	}

	if config.MetricDatabaseEnabled {
		if config.DatabaseEndpointURL == "" {
			allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s, must not be empty", DATABASE_ENDPOINT_URL_ENVIRONMENT_KEY, config.DatabaseEndpointURL))
		}
		if config.DatabaseName == "" {
			allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s, must not be empty", DATABASE_NAME_ENVIRONMENT_KEY, config.DatabaseName))
		}
		if config.MetricPruningEnabled && config.MetricPruningMaxRequestMetricsHistoryDays < 1 {
			allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %d, must be greater than zero", METRIC_PRUNING_MAX_REQUEST_METRICS_HISTORY_DAYS_ENVIRONMENT_KEY, config.MetricPruningMaxRequestMetricsHistoryDays))
		}
		if config.MetricPruningEnabled && config.MetricPruningRoutineInterval <= 0 {
			allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s, must be greater than zero", METRIC_PRUNING_ROUTINE_INTERVAL_SECONDS_ENVIRONMENT_KEY, config.MetricPruningRoutineInterval))
		}
	}

	return allErrs
}

// ErrEmptyBackendURL is returned when no backend url is configured
var ErrEmptyBackendURL = errors.New("backend url must not be empty")

// ParseBackendURL parses the url the batch parts are forwarded to,
// it must be absolute
func ParseBackendURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, ErrEmptyBackendURL
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("backend url %s must have a scheme and host", raw)
	}

	return parsed, nil
}
