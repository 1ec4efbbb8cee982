package esclient

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Pool runs asynchronous work with bounded concurrency. Work beyond the
// bound waits for a free worker, or for its context to end.
type Pool struct {
	sem     *semaphore.Weighted
	workers int
	logger  zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	active    atomic.Int64
	queued    atomic.Int64
	completed atomic.Uint64
	failed    atomic.Uint64
	panicked  atomic.Uint64
}

// PoolStats is a snapshot of pool activity.
type PoolStats struct {
	Workers   int
	Active    int64
	Queued    int64
	Completed uint64
	Failed    uint64
	Panicked  uint64
}

// NewPool creates a pool running at most workers units at once.
// workers < 1 is treated as 1.
func NewPool(workers int, logger zerolog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		sem:     semaphore.NewWeighted(int64(workers)),
		workers: workers,
		logger:  logger,
	}
}

// Go submits fn to p and returns its future immediately. fn receives a
// context that is cancelled by Future.Cancel or when ctx ends.
//
// A panic in fn completes the future with an error matching ErrWorkPanicked.
func Go[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) *Future[T] {
	ctx, cancel := context.WithCancel(ctx)
	f := newFuture[T](cancel)

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		cancel()
		var zero T
		f.complete(zero, ErrPoolClosed)
		return f
	}
	p.wg.Add(1)
	p.mu.RUnlock()

	p.queued.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()

		if err := p.sem.Acquire(ctx, 1); err != nil {
			p.queued.Add(-1)
			var zero T
			f.complete(zero, err)
			return
		}
		p.queued.Add(-1)
		p.active.Add(1)
		defer func() {
			p.active.Add(-1)
			p.sem.Release(1)
		}()

		v, err := runRecovered(ctx, p, fn)
		if err != nil {
			p.failed.Add(1)
		} else {
			p.completed.Add(1)
		}
		f.complete(v, err)
	}()
	return f
}

func runRecovered[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		p.panicked.Add(1)
		p.logger.Error().
			Interface("panic", r).
			Bytes("stack", debug.Stack()).
			Msg("esclient: pooled work panicked")
		var zero T
		v, err = zero, fmt.Errorf("%w: %v", ErrWorkPanicked, r)
	}()
	return fn(ctx)
}

// Close stops accepting work and waits for submitted work to finish.
// It returns ctx.Err() if ctx ends first; the work keeps running.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of pool activity.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:   p.workers,
		Active:    p.active.Load(),
		Queued:    p.queued.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Panicked:  p.panicked.Load(),
	}
}
