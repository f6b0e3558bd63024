package ingest

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBConnection abstracts the database operations the PostgreSQL sink and the
// database manager need. It keeps pgxpool out of their signatures so tests
// can substitute fakes.
//
// Thread-Safety: follows the underlying pool, which is safe for concurrent use.
type DBConnection interface {
	// Exec executes a statement without returning rows.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// QueryRow executes a query that is expected to return at most one row.
	// Errors are deferred until Row's Scan method is called.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// Begin starts a transaction.
	Begin(ctx context.Context) (pgx.Tx, error)

	// CopyFrom bulk-loads rows using the COPY protocol.
	// The copy is a single statement, so it either loads every row or none.
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// Row represents a single row returned by QueryRow.
type Row interface {
	// Scan reads the values from the row into dest values.
	Scan(dest ...any) error
}
