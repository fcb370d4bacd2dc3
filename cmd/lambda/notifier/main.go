package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/example/shopwise/internal/config"
	"github.com/example/shopwise/internal/email"
	"github.com/example/shopwise/internal/infrastructure/kinesis"
	"github.com/example/shopwise/internal/infrastructure/store"
	"github.com/example/shopwise/internal/logging"
	"github.com/example/shopwise/internal/notification"
	"github.com/example/shopwise/internal/query"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup("shopwise-lambda-notifier", cfg.DevMode())

	db, err := store.ConnectPostgres(context.Background(), cfg.Storage.PostgresURL)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}

	mailer := email.NewService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender)
	handler := notification.NewHandler(mailer, query.NewHandler(store.NewPostgresReadStore(db)))
	lambda.Start(kinesis.NewBatchProcessor("lambda-notifier", handler).Handle)
}
