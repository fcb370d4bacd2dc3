package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/shopwise/internal/api"
	"github.com/example/shopwise/internal/auth"
	"github.com/example/shopwise/internal/command"
	"github.com/example/shopwise/internal/config"
	"github.com/example/shopwise/internal/domain/admin"
	"github.com/example/shopwise/internal/domain/cart"
	"github.com/example/shopwise/internal/domain/order"
	"github.com/example/shopwise/internal/domain/product"
	"github.com/example/shopwise/internal/domain/user"
	"github.com/example/shopwise/internal/email"
	"github.com/example/shopwise/internal/infrastructure/cache"
	"github.com/example/shopwise/internal/infrastructure/kafka"
	"github.com/example/shopwise/internal/infrastructure/store"
	"github.com/example/shopwise/internal/logging"
	"github.com/example/shopwise/internal/notification"
	"github.com/example/shopwise/internal/projection"
	"github.com/example/shopwise/internal/query"
	"github.com/google/uuid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup("shopwise-api", cfg.DevMode())

	if err := run(cfg, logger); err != nil {
		logger.Error("api stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	secret := cfg.JWT.Secret
	if secret == "" {
		// development only, Validate rejects this elsewhere
		secret = uuid.NewString() + uuid.NewString()
		logger.Warn("JWT_SECRET not set, using a generated secret; tokens will not survive a restart")
	}
	tokens := auth.NewTokenIssuer(secret, cfg.JWT.TTL)

	stores, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	var orderOpts []order.Option
	if cfg.Orders.StrictTransitions {
		orderOpts = append(orderOpts, order.WithTransitionPolicy(order.ForwardOnly))
	}

	var throttle command.LoginThrottle
	if cfg.Redis.URL != "" {
		client, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer client.Close()
		throttle = cache.NewLoginGuard(client, cache.Limits{
			MaxAttempts: cfg.LoginThrottle.MaxAttempts,
			Window:      cfg.LoginThrottle.Window,
			Lockout:     cfg.LoginThrottle.Lockout,
		})
		logger.Info("admin login throttle enabled", "max_attempts", cfg.LoginThrottle.MaxAttempts)
	}

	admins := admin.NewService(stores.events)
	queries := query.NewHandler(stores.reads)
	commands := command.NewHandler(command.Deps{
		Admins:    admins,
		Users:     user.NewService(stores.events),
		Products:  product.NewService(stores.events),
		Carts:     cart.NewService(stores.events),
		Orders:    order.NewService(stores.events, orderOpts...),
		Queries:   queries,
		Tokens:    tokens,
		Throttle:  throttle,
		Bootstrap: command.Bootstrap{Email: cfg.Bootstrap.Email, Secret: cfg.Bootstrap.Secret},
	})

	router := api.NewRouter(api.NewHandlers(commands, queries), api.RouterConfig{
		Tokens:  tokens,
		Admins:  admins,
		DevMode: cfg.DevMode(),
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening",
			"addr", cfg.Server.Addr,
			"storage", cfg.Storage.Backend,
			"kafka", cfg.Kafka.Enabled,
			"strict_transitions", cfg.Orders.StrictTransitions,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

type stores struct {
	events  store.EventStoreInterface
	reads   store.ReadStoreInterface
	closers []func() error
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

// openStores builds the event and read stores for the configured backend.
// Without Kafka, events are projected in process and the notifier follows
// the projector. With Kafka or DynamoDB streams, the projector and notifier
// run as separate consumers.
func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (*stores, error) {
	s := &stores{}

	if cfg.Storage.Backend == config.BackendMemory {
		reads := store.NewReadStore()
		s.reads = reads
		s.events = store.NewEventStore(inlinePublisher(cfg, reads))
		logger.Warn("using in-memory storage; all data is lost on restart")
		return s, nil
	}

	db, err := openPostgres(ctx, cfg.Storage.PostgresURL)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, db.Close)
	reads := store.NewPostgresReadStore(db)
	s.reads = reads

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		var publisher store.Publisher
		if cfg.Kafka.Enabled {
			producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
			s.closers = append(s.closers, producer.Close)
			publisher = producer
		} else {
			publisher = inlinePublisher(cfg, reads)
		}
		s.events = store.NewPostgresEventStore(db, publisher)

	case config.BackendDynamo:
		client, err := store.NewDynamoClient(ctx, cfg.Storage.Dynamo.Region)
		if err != nil {
			s.Close()
			return nil, err
		}
		// projection happens downstream of the table stream
		s.events = store.NewDynamoEventStore(client, cfg.Storage.Dynamo.EventsTable, cfg.Storage.Dynamo.SnapshotsTable)
	}
	return s, nil
}

func openPostgres(ctx context.Context, url string) (*sql.DB, error) {
	db, err := store.ConnectPostgres(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := store.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func inlinePublisher(cfg config.Config, reads store.ReadStoreInterface) *projection.InlinePublisher {
	mailer := email.NewService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender)
	notifier := notification.NewHandler(mailer, query.NewHandler(reads))
	return projection.NewInlinePublisher(projection.NewProjector(reads), notifier)
}
