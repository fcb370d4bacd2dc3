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
	"github.com/example/shopwise/internal/infrastructure/kafka"
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
	logger := logging.Setup("shopwise-projector", cfg.DevMode())

	if err := run(cfg, logger); err != nil {
		logger.Error("projector stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.ConnectPostgres(ctx, cfg.Storage.PostgresURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()
	if err := store.EnsureSchema(ctx, db); err != nil {
		return err
	}

	projector := projection.NewProjector(store.NewPostgresReadStore(db))

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ProjectorGroup)
	defer consumer.Close()

	logger.Info("projector consuming",
		"brokers", cfg.Kafka.Brokers,
		"topic", cfg.Kafka.Topic,
		"group", cfg.Kafka.ProjectorGroup,
	)
	if err := consumer.Consume(ctx, projector.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutting down")
	return nil
}
