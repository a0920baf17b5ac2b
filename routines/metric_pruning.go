// package routines provides configuration and logic
// for running background routines such as metric pruning
// of recorded batch part metrics
package routines

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/seesharpsoft/multipart-batch-service/clients/database"
	"github.com/seesharpsoft/multipart-batch-service/logging"
)

// MetricPruningRoutineConfig wraps values used
// for creating a new metric pruning routine
type MetricPruningRoutineConfig struct {
	Interval          time.Duration
	StartDelay        time.Duration
	MaxMetricsHistory int
	Database          database.MetricsDatabase
	Logger            logging.ServiceLogger
}

// MetricPruningRoutine can be used to
// run a background routine on a configurable interval
// to prune historical part metrics
type MetricPruningRoutine struct {
	id                string
	interval          time.Duration
	startDelay        time.Duration
	maxMetricsHistory int
	db                database.MetricsDatabase
	logging.ServiceLogger
}

// Run runs the metric pruning routine until ctx is done, returning error (if any)
// from starting the routine and an error channel which any errors
// encountered during running will be sent on.
// Errors are dropped when nobody is receiving from the channel.
func (mpr *MetricPruningRoutine) Run(ctx context.Context) (<-chan error, error) {
	if mpr.interval <= 0 {
		return nil, fmt.Errorf("invalid metric pruning interval %s", mpr.interval)
	}

	errorChannel := make(chan error)

	go func() {
		defer close(errorChannel)

		select {
		case <-ctx.Done():
			return
		case <-time.After(mpr.startDelay):
		}

		ticker := time.NewTicker(mpr.interval)
		defer ticker.Stop()

		for {
			mpr.Trace().Msg(fmt.Sprintf("%s pruning part metrics older than %d days", mpr.id, mpr.maxMetricsHistory))

			err := mpr.db.DeletePartMetricsOlderThanNDays(ctx, int64(mpr.maxMetricsHistory))
			if err != nil && !errors.Is(err, context.Canceled) {
				mpr.Error().Err(err).Str("routine", mpr.id).Msg("error pruning part metrics")

				select {
				case errorChannel <- err:
				default:
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return errorChannel, nil
}

// NewMetricPruningRoutine creates a new metric pruning routine
// using the provided config, returning the routine and error (if any)
func NewMetricPruningRoutine(config MetricPruningRoutineConfig) (*MetricPruningRoutine, error) {
	if config.Database == nil {
		return nil, errors.New("metric pruning routine requires a database")
	}

	return &MetricPruningRoutine{
		id:                uuid.New().String(),
		interval:          config.Interval,
		startDelay:        config.StartDelay,
		maxMetricsHistory: config.MaxMetricsHistory,
		db:                config.Database,
		ServiceLogger:     config.Logger,
	}, nil
}
