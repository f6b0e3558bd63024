// Package loader writes an in-memory Arrow table to a sink in bounded,
// sequential chunks.
//
// The table is partitioned into ceil(rows/chunkSize) contiguous ranges. Each
// range is appended to the sink on its own and timed; a chunk whose append
// fails is logged and skipped, and loading continues with the next chunk.
// Nothing is retried or rolled back, so a run that reports failed chunks
// leaves a partially populated table behind.
//
// # Example Usage
//
//	l := loader.New(logger)
//	report, err := l.Load(ctx, table, sink, 100000, "yellow_taxi_data")
//	if err != nil {
//	    // invalid arguments; no chunk was attempted
//	}
//	fmt.Println(report.Seconds())
//
// # Thread Safety
//
// A ChunkedLoader holds no per-load state and may be reused, but each Load
// writes chunks strictly one after another.
package loader
