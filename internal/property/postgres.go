package property

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig sizes the connection pool.
type PoolConfig struct {
	DatabaseURL string
	MaxConns    int
}

// NewPool parses the configuration and creates a pool. Connections are opened
// lazily, so an unreachable database is not an error here.
func NewPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("database url is not set")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns) // #nosec G115 - bounded by config validation
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	return pool, nil
}

// PoolConnector acquires pooled connections. Released connections that were
// closed by a network failure are destroyed by the pool.
func PoolConnector(pool *pgxpool.Pool) Connector {
	return func(ctx context.Context) (DBTX, func(), error) {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("acquire connection: %w", err)
		}
		return conn, conn.Release, nil
	}
}

// UnavailableConnector always fails with reason. It stands in for the pool
// when no database is configured, so requests fail instead of the process.
func UnavailableConnector(reason error) Connector {
	return func(context.Context) (DBTX, func(), error) {
		return nil, nil, reason
	}
}
