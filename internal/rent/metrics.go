package rent

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	lookupCounter    metric.Int64Counter
	geocodeHistogram metric.Float64Histogram
	errorCounter     metric.Int64Counter
)

// InitMetrics registers the rent lookup instruments. Call once at startup
// (after observability.InitMetrics).
func InitMetrics() error {
	meter := otel.Meter("rent")

	var err error

	lookupCounter, err = meter.Int64Counter("rent.lookups.total",
		metric.WithDescription("Rent lookups by outcome and ZIP source"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return fmt.Errorf("creating lookup counter: %w", err)
	}

	geocodeHistogram, err = meter.Float64Histogram("rent.geocode.duration",
		metric.WithDescription("Time spent resolving an address to a postcode"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(5, 25, 100, 250, 500, 1000, 2500, 5000),
	)
	if err != nil {
		return fmt.Errorf("creating geocode histogram: %w", err)
	}

	errorCounter, err = meter.Int64Counter("rent.errors.total",
		metric.WithDescription("Failed rent estimate requests"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}

	return nil
}
