package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/streetcart/groupbuy-backend/api/routes"
	"github.com/streetcart/groupbuy-backend/internal/auth"
	"github.com/streetcart/groupbuy-backend/internal/feed"
	"github.com/streetcart/groupbuy-backend/internal/grouporders"
	"github.com/streetcart/groupbuy-backend/internal/lifecycle"
	"github.com/streetcart/groupbuy-backend/internal/participation"
	"github.com/streetcart/groupbuy-backend/internal/users"
	"github.com/streetcart/groupbuy-backend/pkg/config"
	"github.com/streetcart/groupbuy-backend/pkg/db"
	"github.com/streetcart/groupbuy-backend/pkg/logger"
	"github.com/streetcart/groupbuy-backend/pkg/metrics"
	"github.com/streetcart/groupbuy-backend/pkg/migrate"
	"github.com/streetcart/groupbuy-backend/pkg/outbox"
	"github.com/streetcart/groupbuy-backend/pkg/redis"
	"github.com/streetcart/groupbuy-backend/pkg/routing"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	orderRepo := grouporders.NewRepository(dbClient.DB())
	emitter := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	orderFeed := feed.New(orderRepo, logg, cfg.Feed.ResyncInterval)

	var notifier feed.Notifier = feed.NewLocalNotifier(orderFeed)
	if feed.UsesRedis(cfg.Feed) {
		notifier = feed.NewRedisNotifier(redisClient, cfg.Feed.Channel)
	}

	engine, err := participation.NewEngine(participation.Params{
		DB:             dbClient,
		Repo:           orderRepo,
		Outbox:         emitter,
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

	ordersCtrl, err := lifecycle.NewController(orderRepo, dbClient, emitter, engine, cfg.Orders.DefaultDeliveryRate(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order controller", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})

	go func() {
		if err := orderFeed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "order feed stopped", err)
		}
	}()
	if feed.UsesRedis(cfg.Feed) {
		go func() {
			if err := feed.ListenRedis(ctx, redisClient, cfg.Feed.Channel, orderFeed, logg); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error(ctx, "order change listener stopped", err)
			}
		}()
	}

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			redisClient,
			authService,
			registerService,
			ordersCtrl,
			engine,
			orderFeed,
			routing.NewClient(cfg.Routing, logg),
			promhttp.Handler(),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}()

	logg.Info(ctx, "starting api server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
