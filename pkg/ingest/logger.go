package ingest

// Logger provides a pluggable logging interface for ingestion runs.
// Implementations must be safe for concurrent use by multiple goroutines.
type Logger interface {
	// Verbose logs detailed diagnostic information.
	// Only logged when verbose mode is enabled.
	Verbose(format string, args ...interface{})

	// Info logs progress messages such as per-chunk timings.
	Info(format string, args ...interface{})

	// Error logs failures, including chunks that could not be written.
	Error(format string, args ...interface{})
}
