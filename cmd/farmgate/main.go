package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/farmgate/farmgate-pos/internal/app"
	"github.com/farmgate/farmgate-pos/internal/billing"
	"github.com/farmgate/farmgate-pos/internal/customers"
	"github.com/farmgate/farmgate-pos/internal/ledger"
	"github.com/farmgate/farmgate-pos/internal/observability"
	"github.com/farmgate/farmgate-pos/internal/platform/cache"
	"github.com/farmgate/farmgate-pos/internal/platform/db"
	"github.com/farmgate/farmgate-pos/internal/shared"
	"github.com/farmgate/farmgate-pos/internal/trucks"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// Locks fall back to the database row locks; idempotency lives in postgres.
		logger.Warn("redis unavailable, continuing without distributed locks", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	locker := shared.Locker{R: redisClient}
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	ledgerRepo := ledger.NewRepository(dbpool)
	ledgerService := ledger.NewService(ledgerRepo, locker, metrics)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	billingRepo := billing.NewRepository(dbpool)
	billingService := billing.NewService(billingRepo, idempotencyStore, locker, metrics)
	billingHandler := billing.NewHandler(logger, billingService)

	customersRepo := customers.NewRepository(dbpool)
	customersService := customers.NewService(customersRepo)
	customersHandler := customers.NewHandler(logger, customersService)

	trucksRepo := trucks.NewRepository(dbpool)
	trucksService := trucks.NewService(trucksRepo)
	trucksHandler := trucks.NewHandler(logger, trucksService)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		BillingHandler:   billingHandler,
		LedgerHandler:    ledgerHandler,
		CustomersHandler: customersHandler,
		TrucksHandler:    trucksHandler,
		Pool:             dbpool,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
