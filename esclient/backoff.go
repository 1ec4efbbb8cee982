package esclient

import (
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Ensure our backoff strategies implement the backoff.BackOff interface.
var (
	_ backoff.BackOff = (*LinearBackOff)(nil)
	_ backoff.BackOff = (*ConstantBackOffWithJitter)(nil)
)

// LinearBackOff increases the interval by a fixed increment plus jitter.
//
// Interval calculation: initial + (attempt × increment) ± jitter
//
// Useful while a cluster relocates shards: waits grow steadily without the
// long stalls of exponential backoff.
type LinearBackOff struct {
	// InitialInterval is the first backoff interval.
	// Default: 500ms
	InitialInterval time.Duration

	// Increment is the fixed amount added to each subsequent interval.
	// Default: 500ms
	Increment time.Duration

	// MaxInterval caps the backoff interval.
	// Default: 30s
	MaxInterval time.Duration

	// JitterFactor adds randomization (0.0-1.0).
	// Default: 0.5
	JitterFactor float64

	currentInterval time.Duration
	attempt         int
}

// NewLinearBackOff creates a LinearBackOff with defaults.
func NewLinearBackOff() *LinearBackOff {
	return &LinearBackOff{
		InitialInterval: 500 * time.Millisecond,
		Increment:       500 * time.Millisecond,
		MaxInterval:     30 * time.Second,
		JitterFactor:    0.5,
	}
}

// Reset resets the backoff to initial state.
func (b *LinearBackOff) Reset() {
	b.currentInterval = b.InitialInterval
	b.attempt = 0
}

// NextBackOff returns the next backoff interval with jitter applied.
func (b *LinearBackOff) NextBackOff() time.Duration {
	if b.currentInterval == 0 {
		b.currentInterval = b.InitialInterval
	}

	interval := applyJitter(b.currentInterval, b.JitterFactor)

	b.attempt++
	b.currentInterval = b.InitialInterval + time.Duration(b.attempt)*b.Increment
	if b.currentInterval > b.MaxInterval {
		b.currentInterval = b.MaxInterval
	}

	return interval
}

// ConstantBackOffWithJitter provides a fixed interval with randomization.
//
// Example with Interval=1s, JitterFactor=0.25:
// each wait is random between 0.75s and 1.25s.
type ConstantBackOffWithJitter struct {
	// Interval is the base backoff interval.
	// Default: 1s
	Interval time.Duration

	// JitterFactor adds randomization (0.0-1.0).
	// Default: 0.5
	JitterFactor float64
}

// NewConstantBackOffWithJitter creates a ConstantBackOffWithJitter with defaults.
func NewConstantBackOffWithJitter() *ConstantBackOffWithJitter {
	return &ConstantBackOffWithJitter{
		Interval:     1 * time.Second,
		JitterFactor: 0.5,
	}
}

// Reset is a no-op for constant backoff.
func (b *ConstantBackOffWithJitter) Reset() {}

// NextBackOff returns the interval with jitter applied.
func (b *ConstantBackOffWithJitter) NextBackOff() time.Duration {
	return applyJitter(b.Interval, b.JitterFactor)
}

// applyJitter applies randomization to an interval.
// A factor of 0.5 yields a result in [interval*0.5, interval*1.5].
func applyJitter(interval time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return interval
	}
	if jitterFactor > 1 {
		jitterFactor = 1
	}

	delta := float64(interval) * jitterFactor
	minInterval := float64(interval) - delta
	maxInterval := float64(interval) + delta

	//nolint:gosec // intentional weak rand for jitter (not cryptographic)
	return time.Duration(minInterval + rand.Float64()*(maxInterval-minInterval))
}

// ExponentialBackOffFromConfig creates a cenkalti/backoff ExponentialBackOff
// from a RetryConfig, ensuring jitter is always applied.
func ExponentialBackOffFromConfig(cfg RetryConfig) *backoff.ExponentialBackOff {
	jitterFactor := cfg.JitterFactor
	if jitterFactor <= 0 {
		jitterFactor = DefaultJitterFactor
	}

	multiplier := cfg.Multiplier
	if multiplier < 1 {
		multiplier = DefaultMultiplier
	}

	b := &backoff.ExponentialBackOff{
		InitialInterval:     cfg.InitialInterval,
		RandomizationFactor: jitterFactor,
		Multiplier:          multiplier,
		MaxInterval:         cfg.MaxInterval,
	}
	b.Reset()
	return b
}
