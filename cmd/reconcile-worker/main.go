package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/restaurant-storefront/internal/cron"
	"github.com/angelmondragon/restaurant-storefront/internal/events"
	"github.com/angelmondragon/restaurant-storefront/internal/orders"
	"github.com/angelmondragon/restaurant-storefront/internal/reconcile"
	"github.com/angelmondragon/restaurant-storefront/pkg/backend"
	"github.com/angelmondragon/restaurant-storefront/pkg/bigquery"
	"github.com/angelmondragon/restaurant-storefront/pkg/config"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
	"github.com/angelmondragon/restaurant-storefront/pkg/metrics"
	"github.com/angelmondragon/restaurant-storefront/pkg/pubsub"
	"github.com/angelmondragon/restaurant-storefront/pkg/redis"
)

const lockKeyFormat = "sf:reconcile-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "reconcile-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "reconcile-worker"

	logg = logger.New(logger.Options{
		ServiceName: "reconcile-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	emitter := events.Emitter(events.Nop{})
	if cfg.GCP.Enabled() {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer pubsubClient.Close()

		bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap bigquery", err)
			os.Exit(1)
		}
		defer bqClient.Close()

		gcpEmitter, err := events.NewGCPEmitter(pubsubClient, bqClient, events.Config{
			Topic: pubsubClient.CheckoutTopic(),
			Table: bqClient.CheckoutEventsTable(),
		}, logg)
		if err != nil {
			logg.Error(ctx, "failed to create event emitter", err)
			os.Exit(1)
		}
		emitter = gcpEmitter
	}

	backendClient, err := backend.NewClient(cfg.Backend.BaseURL,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithServiceToken(cfg.Backend.ServiceToken),
		backend.WithLogger(logg),
	)
	if err != nil {
		logg.Error(ctx, "failed to create backend client", err)
		os.Exit(1)
	}
	ordersClient, err := orders.NewClient(backendClient)
	if err != nil {
		logg.Error(ctx, "failed to create orders client", err)
		os.Exit(1)
	}
	queue, err := reconcile.NewQueue(redisClient)
	if err != nil {
		logg.Error(ctx, "failed to create reconcile queue", err)
		os.Exit(1)
	}

	reconcileJob, err := cron.NewOrderReconcileJob(cron.OrderReconcileJobParams{
		Logger:      logg,
		Queue:       queue,
		Orders:      ordersClient,
		Events:      emitter,
		Metrics:     metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
		Token:       cfg.Backend.ServiceToken,
		BatchSize:   cfg.Reconcile.BatchSize,
		MaxAttempts: cfg.Reconcile.MaxAttempts,
	})
	if err != nil {
		logg.Error(ctx, "failed to create order reconcile job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(ctx, "failed to create worker lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(reconcileJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Reconcile.Interval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create reconcile service", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting reconcile worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "reconcile worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "reconcile worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
