package retry

import (
	"context"
	"time"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

// Executor runs an operation until it succeeds, fails permanently or runs out
// of attempts. It is safe for concurrent use.
type Executor struct {
	classifier ingest.ErrorClassifier
	strategy   ingest.BackoffStrategy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor panics if classifier or strategy is nil.
func NewExecutor(classifier ingest.ErrorClassifier, strategy ingest.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{classifier: classifier, strategy: strategy}
}

// WithOnRetry returns a copy of e that calls callback before every wait.
// The receiver is not modified.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// Execute calls operation once, then retries while its error is transient.
// It returns nil, the first permanent error, the last transient error, or the
// context error if ctx ends while waiting.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	err := operation(ctx)
	maxAttempts := e.strategy.MaxAttempts()

	for attempt := 0; err != nil && e.classifier.IsTransient(err); attempt++ {
		if maxAttempts >= 0 && attempt >= maxAttempts {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		err = operation(ctx)
	}
	return err
}
