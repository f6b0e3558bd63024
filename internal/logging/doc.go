// Package logging provides the ingest.Logger implementations.
//
//   - ConsoleLogger: zerolog output as human-readable text or JSON lines
//   - NullLogger: discards all messages (useful for testing)
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
