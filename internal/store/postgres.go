package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a Documents backend on the documents table. Statement names
// refer to the prepared statements registered by internal/db.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps a connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Get(ctx context.Context, kind, key string) ([]byte, error) {
	var body []byte
	err := p.pool.QueryRow(ctx, "doc_get", kind, key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (p *Postgres) Put(ctx context.Context, kind, key string, body []byte) error {
	_, err := p.pool.Exec(ctx, "doc_put", kind, key, body)
	return err
}

func (p *Postgres) List(ctx context.Context, kind string) (map[string][]byte, error) {
	rows, err := p.pool.Query(ctx, "doc_list", kind)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var key string
		var body []byte
		if err := rows.Scan(&key, &body); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out[key] = body
	}
	return out, rows.Err()
}
