package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	checkoutsvc "github.com/dice-gateway/bape/internal/checkout"
	"github.com/dice-gateway/bape/internal/intents"
	"github.com/dice-gateway/bape/internal/reconcile"
	"github.com/dice-gateway/bape/pkg/config"
	"github.com/dice-gateway/bape/pkg/db"
	"github.com/dice-gateway/bape/pkg/logger"
	"github.com/dice-gateway/bape/pkg/metrics"
	"github.com/dice-gateway/bape/pkg/migrate"
	"github.com/dice-gateway/bape/pkg/pixgo"
	"github.com/dice-gateway/bape/pkg/redis"
)

const lockName = "reconcile-sweep"

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

	logg = logger.New(logger.Options{
		ServiceName: "reconcile-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if !cfg.PixGo.Configured() {
		logg.Error(context.Background(), "pixgo api key is required for reconciliation", errors.New("missing BAPE_PIXGO_API_KEY"))
		os.Exit(1)
	}

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

	provider, err := pixgo.NewClient(context.Background(), cfg.PixGo, logg, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create pixgo client", err)
		os.Exit(1)
	}

	intentsService, err := intents.NewService(intents.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create intents service", err)
		os.Exit(1)
	}

	chargeRepo := checkoutsvc.NewChargeRepository(dbClient.DB())
	resolver, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Config:   cfg.Checkout,
		Intents:  intentsService,
		Charges:  chargeRepo,
		Provider: provider,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}
	defer resolver.Shutdown()

	lock, err := reconcile.NewRedisLock(redisClient, redisClient.LockKey(lockName), cfg.Reconcile.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep lock", err)
		os.Exit(1)
	}

	sweeper, err := reconcile.NewSweeper(reconcile.SweeperParams{
		Config:   cfg.Reconcile,
		Charges:  chargeRepo,
		Provider: provider,
		Resolver: resolver,
		Lock:     lock,
		Logger:   logg,
		Metrics:  metrics.NewReconcileMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sweeper", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "starting reconcile worker")

	if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "reconcile worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "reconcile worker shutting down gracefully")
}
