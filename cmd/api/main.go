package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"go.uber.org/zap"

	"brrrr-analyzer/internal/config"
	"brrrr-analyzer/internal/observability"
	"brrrr-analyzer/internal/server"
)

func main() {

	ctx := context.Background()

	// Configuration
	if err := config.LoadDotEnv(""); err != nil {
		panic(err)
	}
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Logger
	if err := observability.InitLogger(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		panic(err)
	}
	defer observability.SyncLogger()

	// Tracing, metrics and log export
	shutdowns, err := initTelemetry(ctx, cfg.Telemetry)
	defer func() {
		for _, shutdown := range slices.Backward(shutdowns) {
			_ = shutdown(ctx)
		}
	}()
	if err != nil {
		observability.Logger.Fatal("initializing telemetry", zap.Error(err))
	}
	logger := observability.Logger

	if err := initMetrics(); err != nil {
		logger.Fatal("initializing metrics", zap.Error(err))
	}

	// Domain
	store, collectors, closeStore := initStore(ctx, cfg.Database)
	defer closeStore()

	resolver, closeRent := initRent(ctx, cfg)
	defer closeRent()

	registry, err := observability.NewRegistry(collectors...)
	if err != nil {
		logger.Fatal("creating metrics registry", zap.Error(err))
	}

	// Router
	router := server.NewRouter(server.Deps{
		Store:    store,
		Resolver: resolver,
		Registry: registry,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", zap.String("addr", cfg.Server.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	waitForShutdown(srv, cfg.Server.ShutdownTimeout)
}

func waitForShutdown(srv *http.Server, timeout time.Duration) {

	stop := make(chan os.Signal, 1)

	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	observability.Logger.Info("shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		observability.Logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
