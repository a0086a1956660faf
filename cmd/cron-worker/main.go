package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/streetcart/groupbuy-backend/internal/cron"
	"github.com/streetcart/groupbuy-backend/internal/feed"
	"github.com/streetcart/groupbuy-backend/internal/grouporders"
	"github.com/streetcart/groupbuy-backend/internal/participation"
	"github.com/streetcart/groupbuy-backend/pkg/config"
	"github.com/streetcart/groupbuy-backend/pkg/db"
	"github.com/streetcart/groupbuy-backend/pkg/logger"
	"github.com/streetcart/groupbuy-backend/pkg/metrics"
	"github.com/streetcart/groupbuy-backend/pkg/migrate"
	"github.com/streetcart/groupbuy-backend/pkg/outbox"
	"github.com/streetcart/groupbuy-backend/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	only := flag.String("job", "", "comma separated job names to run (default: all)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	outboxRepo := outbox.NewRepository(dbClient.DB())

	// Sweeps run in a different process from the API, so subscribers only
	// hear about them through the shared channel.
	var notifier feed.Notifier = feed.NopNotifier{}
	if feed.UsesRedis(cfg.Feed) {
		notifier = feed.NewRedisNotifier(redisClient, cfg.Feed.Channel)
	}
	engine, err := participation.NewEngine(participation.Params{
		DB:             dbClient,
		Repo:           grouporders.NewRepository(dbClient.DB()),
		Outbox:         outbox.NewService(outboxRepo, logg),
		Notifier:       notifier,
		Listeners:      []participation.StatusListener{participation.LoggingListener{Logger: logg}},
		Metrics:        metrics.NewOrderMetrics(prometheus.DefaultRegisterer),
		Logger:         logg,
		SweepAttempts:  cfg.Orders.SweepMaxAttempts,
		SweepBaseDelay: cfg.Orders.SweepBaseDelay,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create participation engine", err)
		os.Exit(1)
	}

	registry, err := buildRegistry(cfg, logg, dbClient, engine, outboxRepo, cronMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}
	if names := splitNames(*only); len(names) > 0 {
		registry = registry.Only(names...)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker:"+envOrLocal(cfg.App.Env)), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	if *once {
		logg.Info(ctx, "running single cron cycle")
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildRegistry(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	engine *participation.Engine,
	outboxRepo *outbox.Repository,
	cronMetrics *metrics.CronJobMetrics,
) (*cron.Registry, error) {
	sweepParams := cron.SweepJobParams{Logger: logg, Engine: engine, Metrics: cronMetrics}
	stranded, err := cron.NewStrandedAcceptanceJob(sweepParams)
	if err != nil {
		return nil, err
	}
	expiry, err := cron.NewOrderExpiryJob(sweepParams)
	if err != nil {
		return nil, err
	}
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:      logg,
		DB:          dbClient,
		Repository:  outboxRepo,
		Retention:   cfg.Cron.OutboxRetention,
		MinAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}
	return cron.NewRegistry(stranded, expiry, retention), nil
}

func splitNames(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func envOrLocal(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
