package esclient

import (
	"context"
	"sync"
)

// Future is the pending result of asynchronous work.
//
// A Future completes exactly once, with a value or an error. Done is
// closed on completion; Wait blocks for it; Result peeks without blocking.
type Future[T any] struct {
	done   chan struct{}
	once   sync.Once
	value  T
	err    error
	cancel context.CancelFunc
}

func newFuture[T any](cancel context.CancelFunc) *Future[T] {
	if cancel == nil {
		cancel = func() {}
	}
	return &Future[T]{done: make(chan struct{}), cancel: cancel}
}

// completedFuture returns a future that already holds v and err.
func completedFuture[T any](v T, err error) *Future[T] {
	f := newFuture[T](nil)
	f.complete(v, err)
	return f
}

// complete stores the outcome. Only the first call has an effect.
func (f *Future[T]) complete(v T, err error) bool {
	completed := false
	f.once.Do(func() {
		f.value, f.err = v, err
		close(f.done)
		completed = true
	})
	return completed
}

// Done returns a channel closed when the future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future completes or ctx is done. A done ctx only
// stops the wait; use Cancel to stop the work.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the outcome and true once the future has completed, or
// false while it is pending.
func (f *Future[T]) Result() (T, bool, error) {
	select {
	case <-f.done:
		return f.value, true, f.err
	default:
		var zero T
		return zero, false, nil
	}
}

// Err blocks until completion and returns only the error.
func (f *Future[T]) Err() error {
	<-f.done
	return f.err
}

// Cancel stops the work and completes the future with context.Canceled.
// It reports false if the future had already completed.
func (f *Future[T]) Cancel() bool {
	f.cancel()
	var zero T
	return f.complete(zero, context.Canceled)
}
