package ingest

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
)

// Sink receives chunks of rows for a destination table.
//
// Append must have append semantics: it adds rows and never truncates or
// replaces what the table already holds. Columns arrive in the chunk's schema
// order. The sink is owned by the caller; loaders never open or close it.
type Sink interface {
	Append(ctx context.Context, tableName string, chunk arrow.Table) error
}

// TableSink is a Sink that can also prepare its destination table.
type TableSink interface {
	Sink

	// CreateTable creates tableName from schema with zero rows, replacing any
	// existing table of the same name.
	CreateTable(ctx context.Context, tableName string, schema *arrow.Schema) error
}

// SinkCloser is implemented by sinks that own a connection.
type SinkCloser interface {
	TableSink
	Close() error
}
