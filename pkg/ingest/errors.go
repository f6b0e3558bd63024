package ingest

import (
	"errors"
	"strings"
)

// Sentinel errors for the stages of an ingestion run.
// Callers distinguish them with errors.Is().
//
// Example usage:
//
//	report, err := ingester.Ingest(ctx, cfg)
//	if errors.Is(err, ingest.ErrDownloadFailed) {
//	    // the source file never reached disk
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidChunkSize indicates a chunk size that is zero or negative.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrConnectionFailed indicates the destination database could not be reached.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrDownloadFailed indicates the source file could not be fetched.
	ErrDownloadFailed = errors.New("download failed")

	// ErrChecksumMismatch indicates the downloaded file does not match the expected SHA-256.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrSourceParse indicates the downloaded file could not be decoded into a table.
	ErrSourceParse = errors.New("source parse failed")

	// ErrSchemaCreation indicates the destination table could not be created.
	ErrSchemaCreation = errors.New("schema creation failed")

	// ErrPartialLoad indicates at least one chunk failed to load.
	// Only surfaced when the caller asks for chunk failures to be fatal.
	ErrPartialLoad = errors.New("partial load")
)

// usageErrorPatterns are message fragments cobra produces for command-line misuse.
var usageErrorPatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"required flag",
	"invalid argument",
	"flag needs an argument",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrInvalidChunkSize),
		errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrSchemaCreation):
		return ExitExecutionFailed
	case errors.Is(err, ErrDownloadFailed), errors.Is(err, ErrChecksumMismatch):
		return ExitDownloadFailed
	case errors.Is(err, ErrSourceParse):
		return ExitSourceParseError
	case errors.Is(err, ErrPartialLoad):
		return ExitPartialLoad
	}

	errStr := err.Error()
	for _, pattern := range usageErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return ExitUsageError
		}
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
