package rent

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"brrrr-analyzer/internal/observability"
)

var tracer = otel.Tracer("rent")

var (
	// ErrDataUnavailable is returned when the rent table failed to load.
	ErrDataUnavailable = errors.New("rent data not loaded")
	// ErrZIPNotFound is returned when the table has no row, or no figure,
	// for the resolved ZIP.
	ErrZIPNotFound = errors.New("no rent data for ZIP code")
	// ErrInvalidBedrooms is returned for bedroom counts outside 0-4.
	ErrInvalidBedrooms = errors.New("invalid bedroom selection")
	// ErrInvalidLocation is returned when the input is neither a 5-digit ZIP
	// nor an address that geocodes to one.
	ErrInvalidLocation = errors.New("not a valid 5-digit ZIP code or address")
	// ErrNoPostcode is returned when the geocoder found no postcode.
	ErrNoPostcode = errors.New("no ZIP code found for address")
	// ErrGeocodeTimeout is returned when the geocoder did not answer in time.
	ErrGeocodeTimeout = errors.New("geocoding timed out")
	// ErrGeocodeService is returned for any other geocoder failure.
	ErrGeocodeService = errors.New("geocoding service error")
)

// ZIPNotFoundError names the ZIP that had no rent figure. It matches
// ErrZIPNotFound.
type ZIPNotFoundError struct {
	ZIP string
}

func (e *ZIPNotFoundError) Error() string { return ErrZIPNotFound.Error() + " " + e.ZIP }

func (e *ZIPNotFoundError) Unwrap() error { return ErrZIPNotFound }

// Estimate is a resolved rent figure.
type Estimate struct {
	ZIP      string          `json:"zip"`
	Bedrooms int             `json:"bedrooms"`
	Column   string          `json:"column"`
	Rent     decimal.Decimal `json:"rent"`
	Geocoded bool            `json:"geocoded"`
}

// Resolver answers rent lookups against an index snapshot. A nil index
// makes every lookup fail with ErrDataUnavailable.
type Resolver struct {
	index    *Index
	geocoder Geocoder
}

func NewResolver(index *Index, geocoder Geocoder) *Resolver {
	return &Resolver{index: index, geocoder: geocoder}
}

// Loaded reports whether the resolver has rent data.
func (r *Resolver) Loaded() bool {
	return r.index != nil
}

// Resolve turns a ZIP code or free-text address plus a bedroom count into
// a rent figure. Five-digit input is used as the ZIP directly; anything else
// is geocoded.
func (r *Resolver) Resolve(ctx context.Context, addressOrZip string, bedrooms int) (Estimate, error) {
	ctx, span := tracer.Start(ctx, "rent.resolve")
	defer span.End()

	est, err := r.resolve(ctx, strings.TrimSpace(addressOrZip), bedrooms)

	outcome := "found"
	if err != nil {
		outcome = outcomeFor(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.String("rent.zip", est.ZIP))
		span.SetStatus(codes.Ok, "")
	}
	lookupCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.Bool("geocoded", est.Geocoded),
	))
	return est, err
}

func (r *Resolver) resolve(ctx context.Context, input string, bedrooms int) (Estimate, error) {
	est := Estimate{Bedrooms: bedrooms}

	if r.index == nil {
		return est, ErrDataUnavailable
	}
	if bedrooms < 0 || bedrooms > MaxBedrooms {
		return est, fmt.Errorf("%w: %d", ErrInvalidBedrooms, bedrooms)
	}
	if input == "" {
		return est, ErrInvalidLocation
	}

	zip := input
	if !isZIP(input) {
		postcode, err := r.geocode(ctx, input)
		if err != nil {
			return est, err
		}
		est.Geocoded = true

		zip, _, _ = strings.Cut(strings.TrimSpace(postcode), "-")
		if !isZIP(zip) {
			return est, fmt.Errorf("%w: geocoder returned postcode %q", ErrInvalidLocation, postcode)
		}
	}
	est.ZIP = zip

	key, _ := strconv.Atoi(zip)
	rents, ok := r.index.Lookup(key)
	if !ok || !rents[bedrooms].Valid {
		return est, &ZIPNotFoundError{ZIP: zip}
	}

	est.Column = BedroomColumns[bedrooms]
	est.Rent = rents[bedrooms].Decimal
	return est, nil
}

func (r *Resolver) geocode(ctx context.Context, address string) (string, error) {
	if r.geocoder == nil {
		return "", fmt.Errorf("%w: no geocoder configured", ErrGeocodeService)
	}

	start := time.Now()
	postcode, err := r.geocoder.Postcode(ctx, address)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	geocodeHistogram.Record(ctx, elapsed, metric.WithAttributes(attribute.Bool("success", err == nil)))
	if err != nil {
		observability.LoggerWithTrace(ctx).Warn("geocoding failed",
			zap.String("address", address),
			zap.Float64("duration_ms", elapsed),
			zap.Error(err),
		)
	}
	return postcode, err
}

func isZIP(s string) bool {
	if len(s) != 5 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrDataUnavailable):
		return "unavailable"
	case errors.Is(err, ErrZIPNotFound):
		return "not_found"
	case errors.Is(err, ErrGeocodeTimeout), errors.Is(err, ErrGeocodeService):
		return "geocode_failed"
	default:
		return "invalid"
	}
}
