package esclient

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics holds the metric instruments for client operations.
// All record methods are safe on a nil receiver.
type metrics struct {
	// dispatchDuration measures one dispatch end to end, retries included.
	dispatchDuration metric.Float64Histogram

	// attemptDuration measures a single HTTP attempt.
	attemptDuration metric.Float64Histogram

	// dispatchErrors counts dispatches that ended in failure.
	dispatchErrors metric.Int64Counter

	// retryAttempts counts retry attempts.
	retryAttempts metric.Int64Counter

	// retryExhausted counts dispatches that used up every retry and failed.
	retryExhausted metric.Int64Counter

	// breakerRequests counts requests seen by the breaker by outcome.
	breakerRequests metric.Int64Counter

	// breakerState reports the current breaker state (0 closed, 1 half-open, 2 open).
	breakerState metric.Int64Gauge
}

// newMetrics creates and registers metric instruments.
func newMetrics(meter metric.Meter) (*metrics, error) {
	m := &metrics{}
	var err error

	latencyBuckets := metric.WithExplicitBucketBoundaries(
		0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10,
	)

	m.dispatchDuration, err = meter.Float64Histogram(
		"es.client.dispatch.duration",
		metric.WithDescription("Duration of request dispatches including retries in seconds"),
		metric.WithUnit("s"),
		latencyBuckets,
	)
	if err != nil {
		return nil, err
	}

	m.attemptDuration, err = meter.Float64Histogram(
		"es.client.attempt.duration",
		metric.WithDescription("Duration of single HTTP attempts in seconds"),
		metric.WithUnit("s"),
		latencyBuckets,
	)
	if err != nil {
		return nil, err
	}

	m.dispatchErrors, err = meter.Int64Counter(
		"es.client.dispatch.errors",
		metric.WithDescription("Number of failed request dispatches"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	m.retryAttempts, err = meter.Int64Counter(
		"es.client.retry.attempts",
		metric.WithDescription("Number of retry attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	m.retryExhausted, err = meter.Int64Counter(
		"es.client.retry.exhausted",
		metric.WithDescription("Number of dispatches that exhausted all retries"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.breakerRequests, err = meter.Int64Counter(
		"es.client.breaker.requests",
		metric.WithDescription("Number of requests seen by the circuit breaker"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.breakerState, err = meter.Int64Gauge(
		"es.client.breaker.state",
		metric.WithDescription("Circuit breaker state: 0 closed, 1 half-open, 2 open"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metrics) recordDispatchDuration(
	ctx context.Context,
	duration time.Duration,
	attrs []attribute.KeyValue,
) {
	if m == nil {
		return
	}
	m.dispatchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

func (m *metrics) recordAttemptDuration(
	ctx context.Context,
	duration time.Duration,
	attrs []attribute.KeyValue,
) {
	if m == nil {
		return
	}
	m.attemptDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

func (m *metrics) recordDispatchError(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	m.dispatchErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *metrics) recordRetryAttempt(ctx context.Context, attrs []attribute.KeyValue, attempt int) {
	if m == nil {
		return
	}
	m.retryAttempts.Add(ctx, 1, metric.WithAttributes(
		append(attrs[:len(attrs):len(attrs)], attribute.Int("retry.attempt", attempt))...,
	))
}

func (m *metrics) recordRetryExhausted(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	m.retryExhausted.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *metrics) recordBreakerRequest(ctx context.Context, name, outcome string) {
	if m == nil {
		return
	}
	m.breakerRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("breaker.name", name),
		attribute.String("breaker.outcome", outcome),
	))
}

func (m *metrics) recordBreakerState(ctx context.Context, name string, state int64) {
	if m == nil {
		return
	}
	m.breakerState.Record(ctx, state, metric.WithAttributes(
		attribute.String("breaker.name", name),
	))
}
