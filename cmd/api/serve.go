package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/squareit/account-service/internal/api/http"
	"github.com/squareit/account-service/internal/api/http/handlers"
	"github.com/squareit/account-service/internal/auth"
	"github.com/squareit/account-service/internal/config"
	"github.com/squareit/account-service/internal/events"
	"github.com/squareit/account-service/internal/observability"
	"github.com/squareit/account-service/internal/persistence"
	"github.com/squareit/account-service/internal/repository"
	"github.com/squareit/account-service/internal/service"
	"github.com/squareit/account-service/internal/worker"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the notification worker",
		RunE:  runServe,
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("failed to connect postgres: %w", err)
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	redisClient := persistence.NewRedisClient(cfg.Redis, logger)
	defer redisClient.Close() //nolint:errcheck
	outbox := persistence.NewOutbox(redisClient, cfg.Notification.OutboxKey)

	var store repository.Store
	readiness := map[string]handlers.Pinger{"outbox": outbox}
	if pg.Enabled() {
		store = repository.NewPostgresStore(pg.PoolHandle())
		readiness["postgres"] = pg
	} else {
		store = repository.NewMemoryStore()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	dispatcher := events.NewInMemoryDispatcher(logger)
	notifications := service.NewNotificationService(dispatcher, outbox, logger, metrics, cfg.Notification)

	guard := service.NewSessionGuard(cfg.Auth, service.GuardDependencies{
		Store:    store,
		Notifier: notifications,
		Metrics:  metrics,
		Logger:   logger,
	})
	identity := service.NewIdentityService(cfg.Auth, service.IdentityDependencies{
		Store:      store,
		Hasher:     auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		Guard:      guard,
		Notifier:   notifications,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	records := service.NewRecordService(cfg.Records, store, guard)

	sender := worker.NewWebhookSender(
		cfg.Notification.WebhookURL,
		auth.NewWebhookSigner(cfg.Auth.WebhookSecret, cfg.Auth.WebhookTokenTTLMinutes),
		0,
		logger,
	)
	notificationWorker := worker.NewNotificationWorker(outbox, sender, logger, metrics, cfg.Notification)
	workerDone := worker.StartNotificationWorker(ctx, notifications, notificationWorker)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readiness),
		Users:    handlers.NewUsersHandler(identity),
		Email:    handlers.NewEmailHandler(guard),
		Records:  handlers.NewRecordsHandler(records),
		Gatherer: registry,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	cancel()
	<-workerDone
	return nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
