package esclient

import (
	"errors"
	"fmt"
)

// Error kinds. Configuration errors are returned by the call that caused
// them; transport failures are passed through unchanged once retries are
// exhausted.
var (
	// ErrIllegalState is matched by errors raised when a request is used in
	// a state that does not permit the operation.
	ErrIllegalState = errors.New("esclient: illegal state")

	// ErrInvalidArgument is matched by errors raised for invalid parameter
	// values and by pre-send validation failures.
	ErrInvalidArgument = errors.New("esclient: invalid argument")

	// ErrBodyAlreadySet is returned when a body is assigned to a request
	// that already has one, in either form.
	ErrBodyAlreadySet = fmt.Errorf("%w: body can only be set once", ErrIllegalState)

	// ErrAlreadyDispatched is returned when a request is dispatched a second time.
	ErrAlreadyDispatched = fmt.Errorf("%w: request already dispatched", ErrIllegalState)

	// ErrNoTransform is returned by Get when a kind has no Transform and its
	// result type is not *Response.
	ErrNoTransform = errors.New("esclient: kind has no response transform")

	// ErrPoolClosed is returned for work submitted after the pool was closed.
	ErrPoolClosed = errors.New("esclient: worker pool closed")

	// ErrWorkPanicked is returned when a unit of pooled work panics.
	ErrWorkPanicked = errors.New("esclient: pooled work panicked")

	// ErrRateLimited is returned when a request is rejected due to rate limiting.
	ErrRateLimited = errors.New("esclient: rate limit exceeded")
)

// ValidationError describes one rejected parameter value.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("esclient: invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Is reports ErrInvalidArgument so callers can match every validation error.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// StatusError is returned by HTTPTransport when the engine answers with a
// non-2xx status. The response is kept so callers can inspect the error body.
type StatusError struct {
	StatusCode int
	Response   *Response
}

func (e *StatusError) Error() string {
	if e.Response != nil && len(e.Response.Body) > 0 {
		body := string(e.Response.Body)
		if len(body) > 200 {
			body = body[:200] + "..."
		}
		return fmt.Sprintf("esclient: HTTP %d: %s", e.StatusCode, body)
	}
	return fmt.Sprintf("esclient: HTTP %d", e.StatusCode)
}
