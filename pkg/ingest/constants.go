package ingest

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess          = 0  // Run completed (failed chunks are logged, not fatal)
	ExitGeneralError     = 1  // Unknown or unclassified error
	ExitUsageError       = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic            = 3  // Internal panic (unexpected crash)
	ExitConfigError      = 10 // Invalid configuration or parameters
	ExitConnectionError  = 11 // Failed to connect to database
	ExitExecutionFailed  = 13 // Destination table could not be created
	ExitDownloadFailed   = 15 // Source file could not be fetched or verified
	ExitSourceParseError = 16 // Source file could not be decoded
	ExitPartialLoad      = 17 // One or more chunks failed (only with --fail-on-chunk-error)
)

const (
	// DefaultChunkSize is the number of rows written per append.
	DefaultChunkSize int64 = 100000

	// DefaultTableName is the destination table used when none is configured.
	DefaultTableName = "yellow_taxi_data"

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	// Retries apply to establishing connections only, never to chunk writes.
	DefaultRetryMaxAttempts = 3

	// DefaultManagementDB is the database used for CREATE DATABASE.
	DefaultManagementDB = "postgres"

	// DefaultClickHousePort is the native protocol port of ClickHouse.
	DefaultClickHousePort = 9000
)
