package property

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	mutationCounter metric.Int64Counter
	errorCounter    metric.Int64Counter
)

// InitMetrics registers the store's OTel instruments. Call once at startup
// (after observability.InitMetrics).
func InitMetrics() error {
	meter := otel.Meter("property")

	var err error

	mutationCounter, err = meter.Int64Counter("property.mutations.total",
		metric.WithDescription("Committed property saves and deletes by outcome"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		return fmt.Errorf("creating mutation counter: %w", err)
	}

	errorCounter, err = meter.Int64Counter("property.errors.total",
		metric.WithDescription("Failed property store operations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}

	return nil
}
