package main

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"brrrr-analyzer/internal/calculator"
	"brrrr-analyzer/internal/config"
	"brrrr-analyzer/internal/observability"
	"brrrr-analyzer/internal/property"
	"brrrr-analyzer/internal/rent"
)

type shutdownFunc func(context.Context) error

// initTelemetry starts OTLP export of traces, metrics and logs when an
// endpoint is configured. The returned shutdowns run in reverse order.
func initTelemetry(ctx context.Context, cfg config.TelemetryConfig) ([]shutdownFunc, error) {
	observability.SetServiceName(cfg.ServiceName)
	if !cfg.Enabled() {
		observability.Logger.Info("telemetry export disabled")
		return nil, nil
	}

	var shutdowns []shutdownFunc
	for _, start := range []func(context.Context) (func(context.Context) error, error){
		observability.InitTracing,
		observability.InitMetrics,
		observability.InitLogging,
	} {
		shutdown, err := start(ctx)
		if err != nil {
			return shutdowns, err
		}
		shutdowns = append(shutdowns, shutdown)
	}
	return shutdowns, nil
}

// initMetrics creates the application-specific metric instruments. Add new
// domain InitMetrics calls here as the project grows.
func initMetrics() error {
	return errors.Join(
		calculator.InitMetrics(),
		property.InitMetrics(),
		rent.InitMetrics(),
	)
}

// initStore connects the property store. Without a usable database the
// store still exists and fails each request with 503.
func initStore(ctx context.Context, cfg config.DatabaseConfig) (*property.Store, []prometheus.Collector, func()) {
	logger := observability.Logger

	if cfg.AutoMigrate && cfg.URL != "" {
		if err := property.RunMigrations(cfg.URL); err != nil {
			logger.Error("schema migration failed", zap.Error(err))
		} else {
			logger.Info("schema migrations applied")
		}
	}

	pool, err := property.NewPool(ctx, property.PoolConfig{DatabaseURL: cfg.URL, MaxConns: cfg.MaxConns})
	if err != nil {
		logger.Warn("property store unavailable", zap.Error(err))
		return property.NewStore(property.UnavailableConnector(err)), nil, func() {}
	}

	collectors := []prometheus.Collector{property.NewPoolCollector(property.StatsFromPool(pool))}
	return property.NewStore(property.PoolConnector(pool)), collectors, pool.Close
}

// initRent loads the rent table and builds the geocoder chain. A table that
// fails to load leaves the resolver answering "data unavailable".
func initRent(ctx context.Context, cfg *config.Config) (*rent.Resolver, func()) {
	logger := observability.Logger

	index, err := rent.LoadIndex(cfg.Rent.IndexPath, cfg.Rent.Sheet)
	if err != nil {
		logger.Warn("rent data not loaded", zap.String("path", cfg.Rent.IndexPath), zap.Error(err))
	} else {
		logger.Info("rent data loaded", zap.String("path", cfg.Rent.IndexPath), zap.Int("zip_codes", index.Len()))
	}

	var geocoder rent.Geocoder = rent.NewNominatimGeocoder(rent.NominatimConfig{
		BaseURL:           cfg.Geocoder.URL,
		UserAgent:         cfg.Geocoder.UserAgent,
		Timeout:           cfg.Geocoder.Timeout,
		RequestsPerSecond: cfg.Geocoder.RequestsPerSecond,
	})

	cleanup := func() {}
	if cfg.Redis.Addr != "" {
		client, err := rent.NewRedisClient(ctx, rent.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Warn("geocode cache disabled", zap.Error(err))
		} else {
			geocoder = rent.NewCachedGeocoder(geocoder, client, cfg.Redis.CacheTTL)
			cleanup = func() { _ = client.Close() }
		}
	}

	return rent.NewResolver(index, geocoder), cleanup
}
