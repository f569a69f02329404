package property

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"brrrr-analyzer/internal/brrrr"
	"brrrr-analyzer/internal/observability"
)

var tracer = otel.Tracer("property")

var (
	selectByAddressSQL = "SELECT " + recordColumns + " FROM properties WHERE property_address = $1"
	selectByIDSQL      = "SELECT " + recordColumns + " FROM properties WHERE id = $1"
	listSQL            = "SELECT id, property_address, saved_at FROM properties ORDER BY saved_at DESC, id DESC"

	lockByAddressSQL = "SELECT id FROM properties WHERE property_address = $1 FOR UPDATE"
	lockByIDSQL      = "SELECT property_address FROM properties WHERE id = $1 FOR UPDATE"
	deleteSQL        = "DELETE FROM properties WHERE id = $1"

	insertSQL = "INSERT INTO properties (" + insertColumns + ") VALUES (" + placeholders(1, len(numericColumns)+1) + ") RETURNING id, saved_at"
	updateSQL = "UPDATE properties SET " + assignments(2, numericColumns) + ", saved_at = CURRENT_TIMESTAMP WHERE property_address = $1 RETURNING id, saved_at"
)

func placeholders(from, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(parts, ", ")
}

func assignments(from int, columns []string) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%s = $%d", col, from+i)
	}
	return strings.Join(parts, ", ")
}

func startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "property."+op, trace.WithAttributes(
		append(attrs, attribute.String("property.operation", op))...,
	))
}

func finishSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// FindByAddress returns the record saved under address (exact match).
func (s *Session) FindByAddress(ctx context.Context, address string) (rec *Record, err error) {
	ctx, span := startSpan(ctx, "find_by_address", attribute.String("property.address", address))
	defer func() { finishSpan(span, err) }()

	return s.findOne(ctx, "find_by_address", selectByAddressSQL, address)
}

// FindByID returns the record with the given id.
func (s *Session) FindByID(ctx context.Context, id int64) (rec *Record, err error) {
	ctx, span := startSpan(ctx, "find_by_id", attribute.Int64("property.id", id))
	defer func() { finishSpan(span, err) }()

	return s.findOne(ctx, "find_by_id", selectByIDSQL, id)
}

func (s *Session) findOne(ctx context.Context, op, query string, arg any) (*Record, error) {
	var rec Record
	err := s.run(ctx, op, func(conn DBTX) error {
		return conn.QueryRow(ctx, query, arg).Scan(rec.scanTargets()...)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &rec, nil
}

// List returns every saved property, most recently saved first.
func (s *Session) List(ctx context.Context) (summaries []Summary, err error) {
	ctx, span := startSpan(ctx, "list")
	defer func() { finishSpan(span, err) }()

	err = s.run(ctx, "list", func(conn DBTX) error {
		rows, err := conn.Query(ctx, listSQL)
		if err != nil {
			return err
		}

		summaries, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Summary, error) {
			var sum Summary
			err := row.Scan(&sum.ID, &sum.Address, &sum.SavedAt)
			return sum, err
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	span.SetAttributes(attribute.Int("property.count", len(summaries)))
	return summaries, nil
}

// Upsert saves in under its address. An existing record has every field
// overwritten and its saved_at refreshed; otherwise a new record is inserted.
// Either the whole row is written or nothing is.
func (s *Session) Upsert(ctx context.Context, in brrrr.Inputs) (res SaveResult, err error) {
	in.Address = strings.TrimSpace(in.Address)

	ctx, span := startSpan(ctx, "upsert", attribute.String("property.address", in.Address))
	defer func() { finishSpan(span, err) }()

	if in.Address == "" {
		return SaveResult{}, ErrMissingAddress
	}

	logger := observability.LoggerWithTrace(ctx)
	args := recordArgs(in)

	err = s.run(ctx, "upsert", func(conn DBTX) error {
		res = SaveResult{Address: in.Address}

		return inTx(ctx, conn, func(tx pgx.Tx) error {
			var existingID int64
			err := tx.QueryRow(ctx, lockByAddressSQL, in.Address).Scan(&existingID)
			switch {
			case errors.Is(err, pgx.ErrNoRows):
				res.Created = true
				return tx.QueryRow(ctx, insertSQL, args...).Scan(&res.ID, &res.SavedAt)
			case err != nil:
				return err
			default:
				return tx.QueryRow(ctx, updateSQL, args...).Scan(&res.ID, &res.SavedAt)
			}
		})
	})
	if err != nil {
		recordMutationError(ctx, "upsert")
		logger.Error("property save rolled back",
			zap.String("address", in.Address),
			zap.Error(err),
		)
		return SaveResult{}, fmt.Errorf("upsert %q: %w", in.Address, err)
	}

	outcome := "updated"
	if res.Created {
		outcome = "created"
	}
	recordMutation(ctx, "upsert", outcome)
	span.SetAttributes(
		attribute.Int64("property.id", res.ID),
		attribute.String("property.outcome", outcome),
	)
	logger.Debug("property saved",
		zap.Int64("id", res.ID),
		zap.String("address", res.Address),
		zap.String("outcome", outcome),
	)

	return res, nil
}

// DeleteByID removes the record with id. A missing id is not an error; the
// result reports Deleted false.
func (s *Session) DeleteByID(ctx context.Context, id int64) (res DeleteResult, err error) {
	ctx, span := startSpan(ctx, "delete", attribute.Int64("property.id", id))
	defer func() { finishSpan(span, err) }()

	logger := observability.LoggerWithTrace(ctx)

	err = s.run(ctx, "delete", func(conn DBTX) error {
		res = DeleteResult{ID: id}

		return inTx(ctx, conn, func(tx pgx.Tx) error {
			err := tx.QueryRow(ctx, lockByIDSQL, id).Scan(&res.Address)
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			if err != nil {
				return err
			}

			if _, err := tx.Exec(ctx, deleteSQL, id); err != nil {
				return err
			}
			res.Deleted = true
			return nil
		})
	})
	if err != nil {
		recordMutationError(ctx, "delete")
		logger.Error("property delete rolled back", zap.Int64("id", id), zap.Error(err))
		return DeleteResult{}, fmt.Errorf("delete %d: %w", id, err)
	}

	outcome := "deleted"
	if !res.Deleted {
		outcome = "not_found"
	}
	recordMutation(ctx, "delete", outcome)
	span.SetAttributes(attribute.String("property.outcome", outcome))

	return res, nil
}

func recordMutation(ctx context.Context, op, outcome string) {
	mutationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	))
}

func recordMutationError(ctx context.Context, op string) {
	errorCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}
