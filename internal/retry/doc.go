// Package retry retries operations that fail with transient errors, waiting
// between attempts with exponential backoff.
//
//	executor := retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), retry.NewExponentialBackoff(3))
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return pool.Ping(ctx)
//	})
//
// Classifiers decide which errors are worth another attempt. Backoff
// strategies decide how long to wait. Both are interfaces from pkg/ingest so
// callers can substitute their own.
package retry
