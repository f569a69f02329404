package calculator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"time"

	"brrrr-analyzer/internal/brrrr"
	"brrrr-analyzer/internal/handlers"
	"brrrr-analyzer/internal/observability"
	"brrrr-analyzer/internal/property"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// tracer is the calculator's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("calculator")

// Handler serves the BRRRR calculator page.
type Handler struct {
	store *property.Store
}

func NewHandler(store *property.Store) *Handler {
	return &Handler{store: store}
}

// ---------------------------------------------------------------------------
// GET /calculator/brrrr: blank or pre-filled form
// ---------------------------------------------------------------------------

// Page returns the calculator form. With ?property_id=N the form is filled
// from the saved property.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)

	ctx, span := tracer.Start(ctx, "calculator.page")
	defer span.End()

	rawID := r.URL.Query().Get("property_id")
	if rawID == "" {
		handlers.WriteJSON(w, http.StatusOK, PageResponse{Form: brrrr.EmptyForm()})
		return
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "load", "invalid property id", err, http.StatusBadRequest, w)
		return
	}
	span.SetAttributes(attribute.Int64("property.id", id))

	sess := h.store.Session()
	defer sess.Close()

	rec, err := sess.FindByID(ctx, id)
	if err != nil {
		msg := "Property not found."
		if !errors.Is(err, property.ErrNotFound) {
			msg = "Database error while loading: " + err.Error()
		}
		writeFailure(ctx, span, logger, "load", property.StatusFor(err), msg, err, w, PageResponse{Form: brrrr.EmptyForm(), Error: msg})
		return
	}

	handlers.WriteJSON(w, http.StatusOK, PageResponse{
		Form:       rec.Inputs.Form(),
		PropertyID: rec.ID,
		Message:    fmt.Sprintf("Property '%s' loaded successfully! Click 'Calculate BRRRR' to view results.", rec.Inputs.Address),
	})
}

// ---------------------------------------------------------------------------
// POST /calculator/brrrr: calculate, optionally save
// ---------------------------------------------------------------------------

// Calculate runs the BRRRR formulas over the submitted form. When the form's
// action is "save" and the calculation succeeds, the inputs are upserted.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)

	// --- 1. Custom child span ---
	ctx, span := tracer.Start(ctx, "calculator.brrrr",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	// --- 2. Decode the submission ---
	form, err := decodeForm(r)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "calculate", "invalid request body", err, http.StatusBadRequest, w)
		return
	}
	action := form["action"]
	delete(form, "action")

	resp := CalculateResponse{Form: echoForm(form)}

	// --- 3. Validate and compute (timed for histogram) ---
	start := time.Now()
	in, out, err := brrrr.Calculate(form)
	if err != nil {
		msg := "Please ensure all inputs are valid numbers and all required fields are filled. Error: " + err.Error()
		if errors.Is(err, brrrr.ErrArithmetic) {
			msg = "Calculation failed for these inputs. Error: " + err.Error()
		}
		resp.Error = msg
		writeFailure(ctx, span, logger, "calculate", http.StatusBadRequest, msg, err, w, resp)
		return
	}

	elapsed := float64(time.Since(start).Microseconds()) / 1000.0 // ms
	resp.Results = out

	// --- 4. Record metrics, span and log ---
	attrs := metric.WithAttributes(attribute.Bool("uncapped_return", out.UncappedReturn()))
	calcCounter.Add(ctx, 1, attrs)
	calcHistogram.Record(ctx, elapsed, attrs)
	cashFlowGauge.Record(ctx, out.MonthlyCashFlow)

	span.SetAttributes(
		attribute.String("property.address", in.Address),
		attribute.Float64("brrrr.cash_left_in_deal", out.CashLeftInDeal),
		attribute.Float64("brrrr.monthly_cash_flow", out.MonthlyCashFlow),
		attribute.Bool("brrrr.uncapped_return", out.UncappedReturn()),
	)
	span.AddEvent("computation.complete", trace.WithAttributes(
		attribute.Float64("duration_ms", elapsed),
	))

	logger.Info("brrrr calculation completed",
		zap.String("address", in.Address),
		zap.Float64("cash_left_in_deal", out.CashLeftInDeal),
		zap.Float64("annual_cash_flow", out.AnnualCashFlow),
		zap.Bool("uncapped_return", out.UncappedReturn()),
		zap.String("action", action),
		zap.String("request_id", requestID),
		zap.Float64("duration_ms", elapsed),
	)

	if action != ActionSave {
		span.SetStatus(codes.Ok, "")
		handlers.WriteJSON(w, http.StatusOK, resp)
		return
	}

	// --- 5. Persist the validated inputs ---
	sess := h.store.Session()
	defer sess.Close()

	saved, err := sess.Upsert(ctx, in)
	if err != nil {
		saveCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failed")))
		msg := "Database error while saving: " + err.Error()
		resp.Error = msg
		writeFailure(ctx, span, logger, "save", property.StatusFor(err), msg, err, w, resp)
		return
	}

	outcome, verb := "updated", "updated"
	if saved.Created {
		outcome, verb = "created", "saved"
	}
	saveCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))

	resp.Saved = &saved
	resp.Message = fmt.Sprintf("Property '%s' %s successfully!", saved.Address, verb)

	span.SetAttributes(attribute.Int64("property.id", saved.ID))
	span.SetStatus(codes.Ok, "")
	handlers.WriteJSON(w, http.StatusOK, resp)
}

// writeFailure mirrors observability.RecordError but keeps the page body (form and
// zeroed or computed results) alongside the error message.
func writeFailure(ctx context.Context, span trace.Span, logger *zap.Logger, opName string, status int, msg string, err error, w http.ResponseWriter, body any) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)

	errorCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", opName)))

	logger.Warn("calculator request failed",
		zap.String("operation", opName),
		zap.Int("status", status),
		zap.Error(err),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)

	handlers.WriteJSON(w, status, body)
}

// decodeForm accepts form-encoded bodies and JSON objects whose values are
// strings or numbers. JSON null counts as an absent field.
func decodeForm(r *http.Request) (brrrr.Form, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType != "application/json" {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return brrrr.FormFromValues(r.PostForm), nil
	}

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	form := make(brrrr.Form, len(raw))
	for key, v := range raw {
		switch v := v.(type) {
		case nil:
		case string:
			form[key] = v
		case json.Number:
			form[key] = v.String()
		default:
			return nil, fmt.Errorf("field %q must be a string or number", key)
		}
	}
	return form, nil
}

// echoForm returns every known field, blank when it was not submitted.
func echoForm(form brrrr.Form) brrrr.Form {
	echo := brrrr.EmptyForm()
	for _, name := range brrrr.Fields {
		if v, ok := form[name]; ok {
			echo[name] = v
		}
	}
	return echo
}
