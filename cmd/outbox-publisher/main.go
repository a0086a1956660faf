package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/streetcart/groupbuy-backend/pkg/config"
	"github.com/streetcart/groupbuy-backend/pkg/db"
	"github.com/streetcart/groupbuy-backend/pkg/kafka"
	"github.com/streetcart/groupbuy-backend/pkg/logger"
	"github.com/streetcart/groupbuy-backend/pkg/migrate"
	"github.com/streetcart/groupbuy-backend/pkg/outbox"
	"github.com/streetcart/groupbuy-backend/pkg/pubsub"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "outbox-publisher"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "outbox-publisher"

	logg = logger.New(logger.Options{
		ServiceName: "outbox-publisher",
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

	sink, broker, closeBroker, err := openSink(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap outbox sink", err)
		os.Exit(1)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logg.Error(context.Background(), "error closing outbox sink", err)
		}
		if err := closeBroker(); err != nil {
			logg.Error(context.Background(), "error closing broker client", err)
		}
	}()

	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Repository: outbox.NewRepository(dbClient.DB()),
		Sink:       sink,
		Broker:     broker,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox publisher", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"sink":        sink.Name(),
	})
	logg.Info(ctx, "starting outbox publisher")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "outbox publisher stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "outbox publisher shutting down gracefully")
}

// openSink builds the configured broker sink. The returned pinger is nil for
// brokers without a cheap readiness check.
func openSink(ctx context.Context, cfg *config.Config, logg *logger.Logger) (outbox.Sink, pinger, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(strings.TrimSpace(cfg.Outbox.Sink)) {
	case config.OutboxSinkKafka:
		sink, err := kafka.NewSink(cfg.Kafka)
		if err != nil {
			return nil, nil, noop, err
		}
		return sink, nil, noop, nil
	case config.OutboxSinkPubSub:
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, nil, noop, err
		}
		sink, err := pubsub.NewSink(client)
		if err != nil {
			_ = client.Close()
			return nil, nil, noop, err
		}
		return sink, client, client.Close, nil
	default:
		return nil, nil, noop, fmt.Errorf("unsupported outbox sink %q", cfg.Outbox.Sink)
	}
}
