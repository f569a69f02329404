package property

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"brrrr-analyzer/internal/observability"
)

// DBTX is the slice of a database connection the store needs. Both
// *pgxpool.Conn and *pgx.Conn satisfy it.
type DBTX interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Connector hands out a connection and the function that gives it back.
type Connector func(ctx context.Context) (DBTX, func(), error)

// Store opens request-scoped sessions against the properties table.
type Store struct {
	connect Connector
}

func NewStore(connect Connector) *Store {
	return &Store{connect: connect}
}

// Session returns a session that acquires its connection on first use. The
// caller must Close it.
func (s *Store) Session() *Session {
	return &Session{connect: s.connect}
}

// Ping checks connectivity on a short-lived session.
func (s *Store) Ping(ctx context.Context) error {
	sess := s.Session()
	defer sess.Close()
	return sess.Ping(ctx)
}

// Session owns at most one connection for the lifetime of a request. It is
// not safe for concurrent use.
type Session struct {
	connect Connector
	conn    DBTX
	release func()
}

// Close releases the connection, if one was acquired. It is safe to call
// more than once.
func (s *Session) Close() {
	if s.release != nil {
		s.release()
	}
	s.conn, s.release = nil, nil
}

func (s *Session) acquire(ctx context.Context) (DBTX, error) {
	if s.conn != nil {
		return s.conn, nil
	}

	conn, release, err := s.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	s.conn, s.release = conn, release
	return conn, nil
}

// run executes fn on the session connection. A connection-level failure drops
// the connection and retries once on a fresh one.
func (s *Session) run(ctx context.Context, op string, fn func(DBTX) error) error {
	err := s.attempt(ctx, fn)
	if err == nil || !isConnError(err) || ctx.Err() != nil {
		return err
	}

	observability.LoggerWithTrace(ctx).Warn("store connection failed, reconnecting",
		zap.String("operation", op),
		zap.Error(err),
	)
	s.Close()

	err = s.attempt(ctx, fn)
	if err != nil && isConnError(err) && !errors.Is(err, ErrStoreUnavailable) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}

func (s *Session) attempt(ctx context.Context, fn func(DBTX) error) error {
	conn, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	return fn(conn)
}

// Ping checks that the store is reachable.
func (s *Session) Ping(ctx context.Context) error {
	return s.run(ctx, "ping", func(conn DBTX) error {
		return conn.Ping(ctx)
	})
}

// inTx commits when fn succeeds and rolls back otherwise.
func inTx(ctx context.Context, conn DBTX, fn func(pgx.Tx) error) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isConnError(err error) bool {
	if errors.Is(err, ErrStoreUnavailable) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	return pgconn.SafeToRetry(err) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
