package esclient

import (
	"errors"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	gobreakerredis "github.com/sony/gobreaker/v2/redis"
)

// NewRedisStore creates a SharedDataStore backed by Redis so several client
// processes share one breaker state per cluster.
//
// Usage:
//
//	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{"localhost:6379"}})
//	client := esclient.New(
//	    esclient.WithServiceName("catalog-search"),
//	    esclient.WithBreakerConfig(esclient.DistributedBreakerConfig(esclient.NewRedisStore(rdb))),
//	)
func NewRedisStore(client redis.UniversalClient) gobreaker.SharedDataStore {
	return gobreakerredis.NewStoreFromClient(client)
}

// CircuitBreaker matches the gobreaker Execute signature.
type CircuitBreaker interface {
	Execute(req func() (*http.Response, error)) (*http.Response, error)
}

// BreakerClassifier reports whether an attempt counts as a failure toward
// tripping the breaker.
type BreakerClassifier func(resp *http.Response, err error) bool

// BreakerConfig holds the configuration for the circuit breaker.
//
//   - Closed: requests pass.
//   - Open: requests are rejected with gobreaker.ErrOpenState.
//   - Half-Open: MaxRequests probes are let through.
type BreakerConfig struct {
	// MaxRequests is the number of probes allowed while half-open.
	// 0 allows 1.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state after which counts
	// are cleared. 0 never clears.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// FailureThreshold is the minimum number of requests before the
	// failure ratio is considered.
	// Default: 20
	FailureThreshold uint32

	// FailureRatio trips the breaker once reached (0.0 - 1.0).
	// Default: 0.5
	FailureRatio float64

	// ConsecutiveFailures trips the breaker after this many failures in a
	// row. 0 disables the rule.
	ConsecutiveFailures uint32

	// Store shares breaker state between processes. Nil keeps it local.
	Store gobreaker.SharedDataStore

	// Classifier decides which attempts count as failures.
	// Default: DefaultBreakerClassifier
	Classifier BreakerClassifier

	// OnStateChange is invoked on every state transition.
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultBreakerConfig returns a local in-memory breaker configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            10 * time.Second,
		Timeout:             10 * time.Second,
		FailureThreshold:    20,
		FailureRatio:        0.5,
		ConsecutiveFailures: 5,
		Classifier:          DefaultBreakerClassifier,
	}
}

// DistributedBreakerConfig returns DefaultBreakerConfig backed by store.
func DistributedBreakerConfig(store gobreaker.SharedDataStore) BreakerConfig {
	cfg := DefaultBreakerConfig()
	cfg.Store = store
	return cfg
}

// DefaultBreakerClassifier counts network errors and 5xx responses.
// 429 is a queue rejection, left to retries and not counted.
func DefaultBreakerClassifier(resp *http.Response, err error) bool {
	if err != nil {
		return isNetworkError(err)
	}
	return resp != nil && resp.StatusCode >= 500
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT)
}
