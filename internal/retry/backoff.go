package retry

import (
	"math"
	"math/rand"
	"time"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

// ExponentialBackoff grows the delay by multiplier on every attempt, capped at
// maxDelay, with optional +/- jitter.
type ExponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	// -1 retries forever, 0 never retries
	maxAttempts int
	// 0.1 means +/- 10%
	jitter     float64
	jitterFunc func() float64
}

// BackoffOption configures an ExponentialBackoff.
type BackoffOption func(*ExponentialBackoff)

func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) { b.initialDelay = d }
}

func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) { b.maxDelay = d }
}

func WithMultiplier(m float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.multiplier = m }
}

// WithJitter sets the jitter factor in [0, 1]. Zero makes delays deterministic.
func WithJitter(j float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.jitter = j }
}

// WithJitterFunc replaces the random source. It must return values in [0, 1).
func WithJitterFunc(f func() float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.jitterFunc = f }
}

// NewExponentialBackoff returns a strategy starting at DefaultRetryInitialDelay,
// doubling up to DefaultRetryMaxDelay with 10% jitter.
func NewExponentialBackoff(maxAttempts int, opts ...BackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: ingest.DefaultRetryInitialDelay,
		maxDelay:     ingest.DefaultRetryMaxDelay,
		multiplier:   2.0,
		maxAttempts:  maxAttempts,
		jitter:       0.1,
		jitterFunc:   rand.Float64,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NextDelay returns initialDelay * multiplier^attempt, capped and jittered.
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delayMs := float64(b.initialDelay.Milliseconds()) * math.Pow(b.multiplier, float64(attempt))
	if maxMs := float64(b.maxDelay.Milliseconds()); delayMs > maxMs {
		delayMs = maxMs
	}

	if b.jitter > 0 {
		// map [0,1) onto [-1,1)
		offset := (b.jitterFunc() - 0.5) * 2.0
		delayMs *= 1.0 + b.jitter*offset
	}
	return time.Duration(delayMs) * time.Millisecond
}

func (b *ExponentialBackoff) MaxAttempts() int {
	return b.maxAttempts
}

var _ ingest.BackoffStrategy = (*ExponentialBackoff)(nil)
