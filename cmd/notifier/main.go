package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/shopwise/internal/config"
	"github.com/example/shopwise/internal/email"
	"github.com/example/shopwise/internal/infrastructure/kafka"
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
	logger := logging.Setup("shopwise-notifier", cfg.DevMode())

	if err := run(cfg, logger); err != nil {
		logger.Error("notifier stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// customers and orders are read from the projected models
	db, err := store.ConnectPostgres(ctx, cfg.Storage.PostgresURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	mailer := email.NewService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender)
	handler := notification.NewHandler(mailer, query.NewHandler(store.NewPostgresReadStore(db)))

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.NotifierGroup)
	defer consumer.Close()

	logger.Info("notifier consuming",
		"topic", cfg.Kafka.Topic,
		"group", cfg.Kafka.NotifierGroup,
		"smtp_host", cfg.SMTP.Host,
		"smtp_port", cfg.SMTP.Port,
	)
	if err := consumer.Consume(ctx, handler.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutting down")
	return nil
}
