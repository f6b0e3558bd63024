// Package postgres implements the PostgreSQL sink. Tables are created with
// replace semantics and chunks are bulk-loaded with COPY, one statement per
// chunk, so a failed chunk leaves no rows behind.
package postgres

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/schema"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/sink"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

// Sink writes chunks to PostgreSQL through a DBConnection.
// The connection stays owned by the caller.
type Sink struct {
	conn   ingest.DBConnection
	logger ingest.Logger
}

// New creates a Sink. Panics if conn or logger is nil.
func New(conn ingest.DBConnection, logger ingest.Logger) *Sink {
	if conn == nil {
		panic("conn cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Sink{conn: conn, logger: logger}
}

// CreateTable drops tableName if it exists and recreates it from sch with
// zero rows, in one transaction.
func (s *Sink) CreateTable(ctx context.Context, tableName string, sch *arrow.Schema) error {
	ident, err := schema.ParseTableName(tableName)
	if err != nil {
		return err
	}
	ddl, err := schema.CreateTableSQL(ident, sch)
	if err != nil {
		return err
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, schema.DropTableSQL(ident)); err != nil {
		return fmt.Errorf("failed to drop %s: %w", ident.Sanitize(), err)
	}
	if _, err := tx.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create %s: %w", ident.Sanitize(), err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit table creation: %w", err)
	}

	s.logger.Verbose("Created table %s with %d columns", ident.Sanitize(), sch.NumFields())
	return nil
}

// Append copies chunk into tableName using the chunk's column names.
func (s *Sink) Append(ctx context.Context, tableName string, chunk arrow.Table) error {
	ident, err := schema.ParseTableName(tableName)
	if err != nil {
		return err
	}

	rows := sink.NewRows(sink.Postgres, chunk)
	defer rows.Release()

	copied, err := s.conn.CopyFrom(ctx, ident, schema.ColumnNames(chunk.Schema()), rows)
	if err != nil {
		return fmt.Errorf("copy into %s: %w", ident.Sanitize(), err)
	}
	if copied != chunk.NumRows() {
		return fmt.Errorf("copy into %s wrote %d of %d rows", ident.Sanitize(), copied, chunk.NumRows())
	}
	return nil
}

var _ ingest.TableSink = (*Sink)(nil)
