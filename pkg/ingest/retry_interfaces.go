package ingest

import "time"

// ErrorClassifier decides whether a failed attempt is worth repeating.
type ErrorClassifier interface {
	// IsTransient reports whether err is temporary.
	IsTransient(err error) bool
}

// BackoffStrategy computes waits between attempts.
type BackoffStrategy interface {
	// NextDelay returns the wait before retry number attempt (zero-based).
	NextDelay(attempt int) time.Duration

	// MaxAttempts is the retry budget: 0 disables retries, negative means unlimited.
	MaxAttempts() int
}
