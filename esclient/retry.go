package esclient

import (
	"time"
)

// RetryConfig holds the pacing between retry attempts.
//
// How many attempts a request gets is a property of the request
// (Request.SetRetries, default 0); RetryConfig only decides how long to wait
// between them. Intervals grow exponentially with jitter so many clients
// retrying at once do not hit a recovering node in lockstep.
//
// Example:
//
//	cfg := esclient.DefaultRetryConfig()
//	cfg.InitialInterval = 200 * time.Millisecond
//	client := esclient.New(esclient.WithRetryConfig(cfg))
type RetryConfig struct {
	// InitialInterval is the wait before the first retry.
	// Default: 500ms
	InitialInterval time.Duration

	// MaxInterval caps the backoff interval.
	// Default: 30s
	MaxInterval time.Duration

	// MaxElapsedTime optionally caps the total time of one dispatch,
	// retries included. 0 leaves the request's retry count as the only limit.
	// Default: 0
	MaxElapsedTime time.Duration

	// Multiplier controls exponential growth of backoff intervals.
	// Default: 2.0
	Multiplier float64

	// JitterFactor randomizes each interval by ±factor.
	// Default: 0.5
	JitterFactor float64
}

// Default values for RetryConfig.
const (
	// DefaultInitialInterval is the default starting backoff interval.
	DefaultInitialInterval = 500 * time.Millisecond

	// DefaultMaxInterval is the default maximum backoff interval.
	DefaultMaxInterval = 30 * time.Second

	// DefaultMaxElapsedTime is the default total retry time budget (none).
	DefaultMaxElapsedTime time.Duration = 0

	// DefaultMultiplier is the default backoff multiplier.
	DefaultMultiplier = 2.0

	// DefaultJitterFactor is the default randomization factor.
	DefaultJitterFactor = 0.5
)

// DefaultRetryConfig returns balanced pacing for general use
// (500ms → 1s → 2s, capped at 30s, 50% jitter). Only the retry count
// bounds the attempts.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
		MaxElapsedTime:  DefaultMaxElapsedTime,
		Multiplier:      DefaultMultiplier,
		JitterFactor:    DefaultJitterFactor,
	}
}

// AggressiveRetryConfig returns faster pacing for critical idempotent calls
// (200ms start, 5 minute budget).
//
// Warning: aggressive retries add load to a cluster that may already be
// struggling.
func AggressiveRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     60 * time.Second,
		MaxElapsedTime:  5 * time.Minute,
		Multiplier:      2.0,
		JitterFactor:    0.5,
	}
}

// ConservativeRetryConfig returns slow pacing for clusters under
// indexing pressure (1s start, 30 second budget).
func ConservativeRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval: 1 * time.Second,
		MaxInterval:     10 * time.Second,
		MaxElapsedTime:  30 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.5,
	}
}
