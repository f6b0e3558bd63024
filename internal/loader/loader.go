package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/google/uuid"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

// ChunkedLoader appends a table to a sink chunk by chunk.
type ChunkedLoader struct {
	logger ingest.Logger
	runID  uuid.UUID
	now    func() time.Time
}

// Option configures a ChunkedLoader.
type Option func(*ChunkedLoader)

// WithRunID stamps reports with id instead of a freshly generated one.
func WithRunID(id uuid.UUID) Option {
	return func(l *ChunkedLoader) {
		l.runID = id
	}
}

// New creates a ChunkedLoader. Panics if logger is nil.
func New(logger ingest.Logger, opts ...Option) *ChunkedLoader {
	if logger == nil {
		panic("logger cannot be nil")
	}
	l := &ChunkedLoader{
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.runID == uuid.Nil {
		l.runID = uuid.New()
	}
	return l
}

// Load appends tbl to sink in chunks of chunkSize rows.
//
// The only error returned is for invalid arguments, detected before any
// chunk is attempted. Append failures are logged, recorded in the report and
// never abort the load. If ctx is done before a chunk starts, that chunk and
// all remaining ones are recorded as failed with the context error and the
// sink is not called again.
func (l *ChunkedLoader) Load(ctx context.Context, tbl arrow.Table, sink ingest.Sink, chunkSize int64, tableName string) (*ingest.LoadReport, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("got %d: %w", chunkSize, ingest.ErrInvalidChunkSize)
	}
	if tbl == nil {
		return nil, fmt.Errorf("table is nil: %w", ingest.ErrInvalidConfig)
	}
	if sink == nil {
		return nil, fmt.Errorf("sink is nil: %w", ingest.ErrInvalidConfig)
	}
	if tableName == "" {
		return nil, fmt.Errorf("table name is empty: %w", ingest.ErrInvalidConfig)
	}

	ranges := Partition(tbl.NumRows(), chunkSize)
	total := len(ranges)

	report := &ingest.LoadReport{
		RunID:     l.runID,
		TableName: tableName,
		ChunkSize: chunkSize,
		TotalRows: tbl.NumRows(),
		Chunks:    make([]ingest.ChunkResult, 0, total),
		StartedAt: l.now(),
	}

	l.logger.Info("Loading data into %s in chunks", tableName)
	l.logger.Verbose("%d rows, %d chunk(s) of up to %d rows", tbl.NumRows(), total, chunkSize)

	for i, r := range ranges {
		if err := ctx.Err(); err != nil {
			l.logger.Error("Load of %s stopped before chunk %d/%d: %v", tableName, r.Index+1, total, err)
			for _, rest := range ranges[i:] {
				report.Chunks = append(report.Chunks, ingest.ChunkResult{
					Ordinal: rest.Index + 1,
					Total:   total,
					Offset:  rest.Offset,
					Rows:    rest.Length,
					Err:     err,
				})
			}
			break
		}

		result := l.loadChunk(ctx, tbl, sink, tableName, r, total)
		if result.OK() {
			l.logger.Info("Chunk %d/%d loaded in %.2f seconds.", result.Ordinal, total, result.Duration.Seconds())
		} else {
			l.logger.Error("Error loading chunk %d: %v", result.Ordinal, result.Err)
		}
		report.Chunks = append(report.Chunks, result)
	}

	report.Finished = l.now()
	l.logger.Info("Loaded %d rows into %s: %d/%d chunks succeeded, %d failed in %.2f seconds.",
		report.RowsLoaded(), tableName, report.Succeeded(), total, report.Failed(), report.Elapsed().Seconds())

	return report, nil
}

// loadChunk slices r out of tbl and appends it. The slice shares buffers with
// tbl and is released once the sink returns. A panicking sink fails only this
// chunk.
func (l *ChunkedLoader) loadChunk(ctx context.Context, tbl arrow.Table, sink ingest.Sink, tableName string, r ingest.ChunkRange, total int) (result ingest.ChunkResult) {
	result = ingest.ChunkResult{
		Ordinal: r.Index + 1,
		Total:   total,
		Offset:  r.Offset,
		Rows:    r.Length,
	}

	chunk := SliceTable(tbl, r.Offset, r.End())
	defer chunk.Release()

	defer func() {
		if p := recover(); p != nil {
			result.Duration = 0
			result.Err = fmt.Errorf("sink panicked: %v", p)
		}
	}()

	start := l.now()
	if err := sink.Append(ctx, tableName, chunk); err != nil {
		result.Err = err
		return result
	}
	result.Duration = l.now().Sub(start)
	return result
}
