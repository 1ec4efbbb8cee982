package esclient

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Get validates the request, sends it with up to Retries extra attempts and
// returns the kind's transform of the response.
func (r *Request[R]) Get(ctx context.Context) (R, error) {
	var zero R

	call, err := r.prepare()
	if err != nil {
		return zero, err
	}

	resp, err := r.client.dispatch(ctx, call, r.retries)
	if err != nil {
		return zero, err
	}
	return r.kind.transform(resp)
}

// Execute validates the request and submits it to the client's worker pool.
// The future holds the raw response: the kind's Transform is not applied.
// Use ExecuteResult for the transformed value.
//
// Validation and body errors complete the future before it is returned.
func (r *Request[R]) Execute(ctx context.Context) *Future[*Response] {
	call, err := r.prepare()
	if err != nil {
		return completedFuture[*Response](nil, err)
	}

	c, retries := r.client, r.retries
	return Go(ctx, c.pool, func(ctx context.Context) (*Response, error) {
		return c.dispatch(ctx, call, retries)
	})
}

// ExecuteResult is Execute with the kind's Transform applied in the worker.
func (r *Request[R]) ExecuteResult(ctx context.Context) *Future[R] {
	call, err := r.prepare()
	if err != nil {
		var zero R
		return completedFuture(zero, err)
	}

	c, retries, kind := r.client, r.retries, r.kind
	return Go(ctx, c.pool, func(ctx context.Context) (R, error) {
		resp, err := c.dispatch(ctx, call, retries)
		if err != nil {
			var zero R
			return zero, err
		}
		return kind.transform(resp)
	})
}

// prepare freezes the request and assembles its call. Everything that can
// fail without the network fails here.
func (r *Request[R]) prepare() (*Call, error) {
	if r.client == nil {
		return nil, fmt.Errorf("%w: request has no client", ErrIllegalState)
	}
	if !r.dispatched.CompareAndSwap(false, true) {
		return nil, ErrAlreadyDispatched
	}

	if err := r.kind.validate(r.target()); err != nil {
		return nil, err
	}

	body, hasBody, err := r.BodyJSON()
	if err != nil {
		return nil, err
	}

	return &Call{
		Kind:     r.kind.Name,
		Method:   r.kind.method(hasBody),
		Path:     r.path.String(),
		Params:   maps.Clone(r.params),
		Body:     body,
		HasBody:  hasBody,
		OpaqueID: uuid.NewString(),
	}, nil
}

// dispatch performs call with up to retries extra attempts. The last failure
// is returned as the transport produced it.
func (c *Client) dispatch(ctx context.Context, call *Call, retries int) (*Response, error) {
	attrs := append(c.cfg.baseAttributes(),
		attribute.String("es.request.kind", call.Kind),
		attribute.String("http.request.method", call.Method),
	)

	ctx, span := c.cfg.Tracer.Start(ctx, call.Kind,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
		trace.WithAttributes(
			attribute.String("url.path", call.Path),
			attribute.String("es.opaque_id", call.OpaqueID),
			attribute.Int("es.retries", retries),
		),
	)
	defer span.End()

	logger := c.logger.With().
		Str("kind", call.Kind).
		Str("opaque_id", call.OpaqueID).
		Logger()

	start := time.Now()
	attempts := 0

	operation := func() (*Response, error) {
		attempts++
		if attempts > 1 {
			c.cfg.Metrics.recordRetryAttempt(ctx, attrs, attempts-1)
		}

		resp, err := c.transport.Perform(ctx, call)
		if err == nil {
			if resp == nil {
				return nil, backoff.Permanent(fmt.Errorf("%w: transport returned no response", ErrIllegalState))
			}
			return resp, nil
		}
		if !c.cfg.RetryClassifier(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.cfg.newBackOff()),
		backoff.WithMaxTries(uint(retries)+1),
		backoff.WithMaxElapsedTime(c.cfg.RetryConfig.MaxElapsedTime),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Debug().
				Err(err).
				Int("attempt", attempts).
				Int("retries", retries).
				Dur("backoff", next).
				Msg("esclient: retrying request")
		}),
	)
	duration := time.Since(start)
	span.SetAttributes(attribute.Int("es.attempts", attempts))
	c.cfg.Metrics.recordDispatchDuration(ctx, duration, attrs)

	if err != nil {
		// Retry returns a failure of the final attempt still wrapped.
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Unwrap()
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.cfg.Metrics.recordDispatchError(ctx, attrs)

		if retries > 0 && attempts > retries {
			c.cfg.Metrics.recordRetryExhausted(ctx, attrs)
			logger.Warn().
				Err(err).
				Int("attempts", attempts).
				Msg("esclient: retries exhausted")
		}
		return nil, err
	}

	resp.Attempts = attempts
	resp.Duration = duration
	return resp, nil
}
