// package main reads & validates configuration for the batch service
// and if the config is valid starts and monitors an instance of the batch service
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/seesharpsoft/multipart-batch-service/config"
	"github.com/seesharpsoft/multipart-batch-service/logging"
	"github.com/seesharpsoft/multipart-batch-service/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// values already present in the environment take precedence over .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	serviceConfig := config.ReadConfig()

	err := config.Validate(serviceConfig)

	if err != nil {
		panic(err)
	}

	serviceLogger, err := logging.New(serviceConfig.LogLevel)

	if err != nil {
		panic(err)
	}

	serviceLogger.Debug().Msg(fmt.Sprintf("initial config: %+v", serviceConfig))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batchService, err := service.New(ctx, serviceConfig, &serviceLogger)

	if err != nil {
		serviceLogger.Panic().Err(err).Msg("error creating batch service")
	}

	if err := batchService.RunUntil(ctx, shutdownTimeout); err != nil {
		serviceLogger.Fatal().Err(err).Msg("batch service stopped")
	}
}
