package observability

import (
	"context"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogging tees Logger into an OTLP log exporter. Call after InitLogger.
func InitLogging(ctx context.Context) (func(context.Context) error, error) {

	exporter, err := otlploghttp.New(ctx)
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx)
	if err != nil {
		return nil, err
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(
			sdklog.NewBatchProcessor(exporter),
		),
	)

	var otelCore zapcore.Core = otelzap.NewCore(ServiceName(), otelzap.WithLoggerProvider(provider))

	// OTLP export honours LOG_LEVEL like stdout does.
	if leveled, err := zapcore.NewIncreaseLevelCore(otelCore, Logger.Level()); err == nil {
		otelCore = leveled
	}

	Logger = zap.New(zapcore.NewTee(Logger.Core(), otelCore))
	zap.ReplaceGlobals(Logger)

	return provider.Shutdown, nil
}
