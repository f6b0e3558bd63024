package ingest

import (
	"context"
	"time"
)

// Fetcher retrieves a remote source file into a local path.
type Fetcher interface {
	// Fetch writes the object at url to destPath. A failed fetch leaves no
	// partially written file at destPath.
	Fetch(ctx context.Context, url, destPath string) (*FetchResult, error)
}

// FetchResult describes a completed download.
type FetchResult struct {
	Path        string
	Bytes       int64
	ContentType string
	Elapsed     time.Duration
}
