// Package memory provides an in-process sink that keeps appended chunks.
// It backs --dry-run and stands in for a database in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

type table struct {
	schema *arrow.Schema
	chunks []arrow.Table
}

// Sink retains every appended chunk per table name.
// Safe for concurrent use.
type Sink struct {
	mu     sync.Mutex
	tables map[string]*table
}

// New creates an empty Sink.
func New() *Sink {
	return &Sink{tables: make(map[string]*table)}
}

// CreateTable replaces tableName with an empty table of the given schema.
func (s *Sink) CreateTable(_ context.Context, tableName string, schema *arrow.Schema) error {
	if schema == nil {
		return fmt.Errorf("schema is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.tables[tableName]; ok {
		releaseAll(old.chunks)
	}
	s.tables[tableName] = &table{schema: schema}
	return nil
}

// Append keeps a reference to chunk. Appending to a table that was never
// created creates it from the chunk's schema.
func (s *Sink) Append(ctx context.Context, tableName string, chunk arrow.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[tableName]
	if !ok {
		t = &table{schema: chunk.Schema()}
		s.tables[tableName] = t
	}
	if !t.schema.Equal(chunk.Schema()) {
		return fmt.Errorf("schema mismatch for table %q", tableName)
	}

	chunk.Retain()
	t.chunks = append(t.chunks, chunk)
	return nil
}

// Chunks returns the chunks appended to tableName in order.
// The tables remain owned by the sink.
func (s *Sink) Chunks(tableName string) []arrow.Table {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[tableName]
	if !ok {
		return nil
	}
	return append([]arrow.Table(nil), t.chunks...)
}

// Rows returns the total number of rows appended to tableName.
func (s *Sink) Rows(tableName string) int64 {
	var n int64
	for _, c := range s.Chunks(tableName) {
		n += c.NumRows()
	}
	return n
}

// Schema returns the schema of tableName, or nil if it does not exist.
func (s *Sink) Schema(tableName string) *arrow.Schema {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tables[tableName]; ok {
		return t.schema
	}
	return nil
}

// Close releases every retained chunk.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, t := range s.tables {
		releaseAll(t.chunks)
		delete(s.tables, name)
	}
	return nil
}

func releaseAll(chunks []arrow.Table) {
	for _, c := range chunks {
		c.Release()
	}
}

var _ ingest.SinkCloser = (*Sink)(nil)
