package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/example/shopwise/internal/config"
	"github.com/example/shopwise/internal/infrastructure/kinesis"
	"github.com/example/shopwise/internal/infrastructure/store"
	"github.com/example/shopwise/internal/logging"
	"github.com/example/shopwise/internal/projection"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup("shopwise-lambda-projector", cfg.DevMode())

	// the connection is reused across warm invocations
	db, err := store.ConnectPostgres(context.Background(), cfg.Storage.PostgresURL)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}

	projector := projection.NewProjector(store.NewPostgresReadStore(db))
	lambda.Start(kinesis.NewBatchProcessor("lambda-projector", projector).Handle)
}
