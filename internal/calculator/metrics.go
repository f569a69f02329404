package calculator

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metric instruments, initialized once via InitMetrics().
var (
	calcCounter   metric.Int64Counter
	calcHistogram metric.Float64Histogram
	errorCounter  metric.Int64Counter
	saveCounter   metric.Int64Counter
	cashFlowGauge metric.Float64Gauge
)

// InitMetrics registers custom OTel metric instruments for the BRRRR calculator.
// Call this once at startup (after observability.InitMetrics).
func InitMetrics() error {
	meter := otel.Meter("calculator")

	var err error

	calcCounter, err = meter.Int64Counter("brrrr.calculations.total",
		metric.WithDescription("Total number of BRRRR calculations performed"),
		metric.WithUnit("{calculation}"),
	)
	if err != nil {
		return fmt.Errorf("creating calculation counter: %w", err)
	}

	calcHistogram, err = meter.Float64Histogram("brrrr.calculation.duration",
		metric.WithDescription("Duration of BRRRR calculations in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10),
	)
	if err != nil {
		return fmt.Errorf("creating calculation histogram: %w", err)
	}

	errorCounter, err = meter.Int64Counter("brrrr.errors.total",
		metric.WithDescription("Total number of calculator errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}

	saveCounter, err = meter.Int64Counter("brrrr.saves.total",
		metric.WithDescription("Properties saved from the calculator, by outcome"),
		metric.WithUnit("{save}"),
	)
	if err != nil {
		return fmt.Errorf("creating save counter: %w", err)
	}

	cashFlowGauge, err = meter.Float64Gauge("brrrr.last_monthly_cash_flow",
		metric.WithDescription("Monthly cash flow of the last successful calculation"),
		metric.WithUnit("{USD}"),
	)
	if err != nil {
		return fmt.Errorf("creating cash flow gauge: %w", err)
	}

	return nil
}
