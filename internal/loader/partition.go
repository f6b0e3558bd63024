package loader

import "github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"

// Partition splits rows into consecutive ranges of at most chunkSize rows.
// Only the last range may be shorter. Returns nil for an empty table or a
// non-positive chunk size.
func Partition(rows, chunkSize int64) []ingest.ChunkRange {
	if rows <= 0 || chunkSize <= 0 {
		return nil
	}

	n := (rows + chunkSize - 1) / chunkSize
	ranges := make([]ingest.ChunkRange, 0, n)
	for i := int64(0); i < n; i++ {
		offset := i * chunkSize
		ranges = append(ranges, ingest.ChunkRange{
			Index:  int(i),
			Offset: offset,
			Length: min(chunkSize, rows-offset),
		})
	}
	return ranges
}
