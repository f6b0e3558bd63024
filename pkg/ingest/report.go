package ingest

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// ChunkRange is one contiguous slice of a table's rows.
type ChunkRange struct {
	Index  int   // zero-based position in load order
	Offset int64 // first row
	Length int64 // number of rows, at most the chunk size
}

// End returns the exclusive upper row bound.
func (r ChunkRange) End() int64 {
	return r.Offset + r.Length
}

// ChunkResult is the outcome of appending one chunk.
type ChunkResult struct {
	Ordinal  int // 1-based, as logged
	Total    int
	Offset   int64
	Rows     int64
	Duration time.Duration // zero for failed chunks
	Err      error
}

// OK reports whether the chunk was written.
func (r ChunkResult) OK() bool {
	return r.Err == nil
}

// LoadReport describes a finished chunked load, including chunks that failed.
type LoadReport struct {
	RunID     uuid.UUID
	TableName string
	ChunkSize int64
	TotalRows int64
	Chunks    []ChunkResult
	StartedAt time.Time
	Finished  time.Time
}

// Durations returns the write time of each successful chunk in load order.
// Failed chunks contribute no entry, so the slice may be shorter than Chunks.
func (r *LoadReport) Durations() []time.Duration {
	out := make([]time.Duration, 0, len(r.Chunks))
	for _, c := range r.Chunks {
		if c.OK() {
			out = append(out, c.Duration)
		}
	}
	return out
}

// Seconds is Durations expressed in seconds.
func (r *LoadReport) Seconds() []float64 {
	durations := r.Durations()
	out := make([]float64, len(durations))
	for i, d := range durations {
		out[i] = d.Seconds()
	}
	return out
}

// Succeeded returns the number of chunks written.
func (r *LoadReport) Succeeded() int {
	n := 0
	for _, c := range r.Chunks {
		if c.OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of chunks not written.
func (r *LoadReport) Failed() int {
	return len(r.Chunks) - r.Succeeded()
}

// RowsLoaded sums the rows of successful chunks.
func (r *LoadReport) RowsLoaded() int64 {
	var n int64
	for _, c := range r.Chunks {
		if c.OK() {
			n += c.Rows
		}
	}
	return n
}

// Elapsed is the wall time of the whole load.
func (r *LoadReport) Elapsed() time.Duration {
	return r.Finished.Sub(r.StartedAt)
}

// Err aggregates every chunk failure, or returns nil when all chunks succeeded.
func (r *LoadReport) Err() error {
	var result *multierror.Error
	for _, c := range r.Chunks {
		if !c.OK() {
			result = multierror.Append(result, fmt.Errorf("chunk %d/%d: %w", c.Ordinal, c.Total, c.Err))
		}
	}
	return result.ErrorOrNil()
}
