package rent

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"brrrr-analyzer/internal/handlers"
	"brrrr-analyzer/internal/observability"
)

// Handler serves rent estimates.
type Handler struct {
	resolver *Resolver
}

func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// BedroomOption is one selectable bedroom count.
type BedroomOption struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// OptionsResponse describes the lookup form.
type OptionsResponse struct {
	Bedrooms   []BedroomOption `json:"bedrooms"`
	DataLoaded bool            `json:"data_loaded"`
}

// EstimateRequest is the JSON form of an estimate request. Bedrooms may be
// a number or a string.
type EstimateRequest struct {
	AddressOrZip string      `json:"address_or_zip"`
	Bedrooms     json.Number `json:"bedrooms"`
}

// Options lists the bedroom choices and whether rent data is loaded.
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	opts := make([]BedroomOption, 0, len(BedroomColumns))
	for i, label := range BedroomColumns {
		opts = append(opts, BedroomOption{Value: i, Label: label})
	}
	handlers.WriteJSON(w, http.StatusOK, OptionsResponse{Bedrooms: opts, DataLoaded: h.resolver.Loaded()})
}

// Estimate resolves address_or_zip and bedrooms to a rent figure.
func (h *Handler) Estimate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)

	ctx, span := tracer.Start(ctx, "rent.estimate")
	defer span.End()

	req, err := decodeRequest(r)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "estimate", "invalid request body", err, http.StatusBadRequest, w)
		return
	}

	bedrooms, err := strconv.Atoi(strings.TrimSpace(req.Bedrooms.String()))
	if err != nil {
		err = fmt.Errorf("%w: %q", ErrInvalidBedrooms, req.Bedrooms.String())
		observability.RecordError(ctx, span, logger, errorCounter, "estimate", MessageFor(err), err, http.StatusBadRequest, w)
		return
	}

	est, err := h.resolver.Resolve(ctx, req.AddressOrZip, bedrooms)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "estimate", MessageFor(err), err, StatusFor(err), w)
		return
	}

	span.SetAttributes(
		attribute.String("rent.zip", est.ZIP),
		attribute.Int("rent.bedrooms", est.Bedrooms),
	)
	span.SetStatus(codes.Ok, "")

	logger.Info("rent estimate resolved",
		zap.String("zip", est.ZIP),
		zap.Int("bedrooms", est.Bedrooms),
		zap.Bool("geocoded", est.Geocoded),
		zap.String("rent", est.Rent.String()),
	)

	handlers.WriteJSON(w, http.StatusOK, est)
}

func decodeRequest(r *http.Request) (EstimateRequest, error) {
	var req EstimateRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}

	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.AddressOrZip = r.PostForm.Get("address_or_zip")
	req.Bedrooms = json.Number(r.PostForm.Get("bedrooms"))
	return req, nil
}

// StatusFor maps a resolver error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidBedrooms),
		errors.Is(err, ErrInvalidLocation),
		errors.Is(err, ErrNoPostcode):
		return http.StatusBadRequest
	case errors.Is(err, ErrZIPNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDataUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrGeocodeTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrGeocodeService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// MessageFor returns the user-facing message for a resolver error.
func MessageFor(err error) string {
	switch {
	case errors.Is(err, ErrInvalidBedrooms):
		return "Invalid bedroom selection. Please try again."
	case errors.Is(err, ErrInvalidLocation):
		return "Please enter a valid 5-digit ZIP code or a complete address."
	case errors.Is(err, ErrNoPostcode):
		return "Could not find a ZIP code for the provided address."
	case errors.Is(err, ErrZIPNotFound):
		var nf *ZIPNotFoundError
		if errors.As(err, &nf) {
			return fmt.Sprintf("No data found for ZIP code %s. Please try a different ZIP or address.", nf.ZIP)
		}
		return "No data found for that ZIP code. Please try a different ZIP or address."
	case errors.Is(err, ErrDataUnavailable):
		return "Rent data not loaded. Please try again later."
	case errors.Is(err, ErrGeocodeTimeout), errors.Is(err, ErrGeocodeService):
		return fmt.Sprintf("Geocoding service error: %v. Please try again or enter a ZIP code directly.", err)
	default:
		return fmt.Sprintf("An unexpected error occurred: %v", err)
	}
}
