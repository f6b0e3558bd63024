package ingest

import "context"

// Ingester runs one complete ingestion: fetch, parse, create table and
// chunked load.
type Ingester interface {
	// Ingest returns the load report when the chunked load ran, even if some
	// chunks failed. A non-nil error means a stage before or around the load
	// was fatal; the report may then be nil.
	Ingest(ctx context.Context, config IngestConfig) (*LoadReport, error)
}
