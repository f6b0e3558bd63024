package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

// PoolAdapter exposes a *pgxpool.Pool as an ingest.DBConnection.
type PoolAdapter struct {
	pool *pgxpool.Pool
}

// NewPoolAdapter panics if pool is nil.
func NewPoolAdapter(pool *pgxpool.Pool) *PoolAdapter {
	if pool == nil {
		panic("pool cannot be nil")
	}
	return &PoolAdapter{pool: pool}
}

func (a *PoolAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return a.pool.Exec(ctx, sql, args...)
}

func (a *PoolAdapter) QueryRow(ctx context.Context, sql string, args ...any) ingest.Row {
	return a.pool.QueryRow(ctx, sql, args...)
}

func (a *PoolAdapter) Begin(ctx context.Context) (pgx.Tx, error) {
	return a.pool.Begin(ctx)
}

func (a *PoolAdapter) CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	return a.pool.CopyFrom(ctx, table, columns, src)
}

// Pool returns the wrapped pool.
func (a *PoolAdapter) Pool() *pgxpool.Pool {
	return a.pool
}

var _ ingest.DBConnection = (*PoolAdapter)(nil)
