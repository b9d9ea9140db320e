package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dice-gateway/bape/api/routes"
	"github.com/dice-gateway/bape/internal/auth"
	checkoutsvc "github.com/dice-gateway/bape/internal/checkout"
	"github.com/dice-gateway/bape/internal/intents"
	"github.com/dice-gateway/bape/pkg/auth/session"
	"github.com/dice-gateway/bape/pkg/config"
	"github.com/dice-gateway/bape/pkg/db"
	"github.com/dice-gateway/bape/pkg/logger"
	"github.com/dice-gateway/bape/pkg/metrics"
	"github.com/dice-gateway/bape/pkg/migrate"
	"github.com/dice-gateway/bape/pkg/pixgo"
	"github.com/dice-gateway/bape/pkg/redis"
)

const shutdownGrace = 15 * time.Second

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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		AdminConfig:    cfg.Admin,
		JWTConfig:      cfg.JWT,
		SessionManager: sessionManager,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	intentsService, err := intents.NewService(intents.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create intents service", err)
		os.Exit(1)
	}

	var provider checkoutsvc.ProviderClient
	if cfg.PixGo.Configured() {
		client, err := pixgo.NewClient(context.Background(), cfg.PixGo, logg, nil)
		if err != nil {
			logg.Error(context.Background(), "failed to create pixgo client", err)
			os.Exit(1)
		}
		provider = client
	} else {
		logg.Warn(context.Background(), "pixgo api key missing, checkout submissions disabled")
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Config:   cfg.Checkout,
		Intents:  intentsService,
		Charges:  checkoutsvc.NewChargeRepository(dbClient.DB()),
		Provider: provider,
		Logger:   logg,
		Metrics:  metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}
	defer checkoutService.Shutdown()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Sessions: sessionManager,
			Auth:     authService,
			Intents:  intentsService,
			Checkout: checkoutService,
			Gatherer: prometheus.DefaultGatherer,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "error during server shutdown", err)
		}
	}

	logg.Info(ctx, "api server shutting down gracefully")
}
