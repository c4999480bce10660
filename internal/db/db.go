// Package db provides a pgxpool-based connection pool with prepared statement
// registration, schema migration, and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/sideline/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Ensure the schema and register prepared statements on every new
	// connection. Prepare fails against a missing table, so the idempotent
	// migration runs first.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if err := Migrate(ctx, conn); err != nil {
			return err
		}
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// Migrate creates the document table if it does not exist.
func Migrate(ctx context.Context, conn *pgx.Conn) error {
	_, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+config.DocumentsTable+` (
			kind       TEXT        NOT NULL,
			key        TEXT        NOT NULL,
			body       JSONB       NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (kind, key)
		)`)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", config.DocumentsTable, err)
	}
	return nil
}

// registerPreparedStatements registers every statement the document store
// uses. Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Documents
		"doc_get": "SELECT body FROM " + config.DocumentsTable + " WHERE kind = $1 AND key = $2",
		"doc_put": "INSERT INTO " + config.DocumentsTable + " (kind, key, body) VALUES ($1, $2, $3) " +
			"ON CONFLICT (kind, key) DO UPDATE SET body = EXCLUDED.body, updated_at = now()",
		"doc_list": "SELECT key, body FROM " + config.DocumentsTable + " WHERE kind = $1 ORDER BY key",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
