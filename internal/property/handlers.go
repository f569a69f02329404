package property

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"brrrr-analyzer/internal/handlers"
	"brrrr-analyzer/internal/observability"
)

// Handler serves the saved-properties pages.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// ListResponse is the body of GET /properties.
type ListResponse struct {
	Properties []Summary `json:"properties"`
	Count      int       `json:"count"`
}

// DeleteResponse is the body of a delete request.
type DeleteResponse struct {
	Result  DeleteResult `json:"result"`
	Message string       `json:"message"`
}

// StatusFor maps store errors onto HTTP statuses.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrMissingAddress):
		return http.StatusBadRequest
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// List handles GET /properties.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	span := trace.SpanFromContext(ctx)

	sess := h.store.Session()
	defer sess.Close()

	summaries, err := sess.List(ctx)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "list", "could not load saved properties", err, StatusFor(err), w)
		return
	}
	if summaries == nil {
		summaries = []Summary{}
	}

	handlers.WriteJSON(w, http.StatusOK, ListResponse{Properties: summaries, Count: len(summaries)})
}

// Get handles GET /properties/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	span := trace.SpanFromContext(ctx)

	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "get", "invalid property id", err, http.StatusBadRequest, w)
		return
	}

	sess := h.store.Session()
	defer sess.Close()

	rec, err := sess.FindByID(ctx, id)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "get", messageFor(err, "could not load property"), err, StatusFor(err), w)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, rec)
}

// Lookup handles GET /properties/lookup?address=...
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	span := trace.SpanFromContext(ctx)

	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		observability.RecordError(ctx, span, logger, errorCounter, "lookup", "address is required", ErrMissingAddress, http.StatusBadRequest, w)
		return
	}

	sess := h.store.Session()
	defer sess.Close()

	rec, err := sess.FindByAddress(ctx, address)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "lookup", messageFor(err, "could not load property"), err, StatusFor(err), w)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, rec)
}

// Delete handles DELETE /properties/{id}. An unknown id is reported in the
// message, not as an error status.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	span := trace.SpanFromContext(ctx)

	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "delete", "invalid property id", err, http.StatusBadRequest, w)
		return
	}

	sess := h.store.Session()
	defer sess.Close()

	res, err := sess.DeleteByID(ctx, id)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "delete", "Database error while deleting: "+err.Error(), err, StatusFor(err), w)
		return
	}

	msg := "Property not found."
	if res.Deleted {
		msg = fmt.Sprintf("Property '%s' deleted successfully!", res.Address)
	}

	span.SetAttributes(attribute.Bool("property.deleted", res.Deleted))
	logger.Info("property delete handled",
		zap.Int64("id", id),
		zap.Bool("deleted", res.Deleted),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)

	handlers.WriteJSON(w, http.StatusOK, DeleteResponse{Result: res, Message: msg})
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func messageFor(err error, fallback string) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "Property not found."
	case errors.Is(err, ErrStoreUnavailable):
		return "property store unavailable"
	default:
		return fallback
	}
}
