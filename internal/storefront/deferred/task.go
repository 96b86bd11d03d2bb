package deferred

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const (
	waiting int32 = iota
	running
	cancelled
)

// Task is a one-shot continuation that runs after a fixed delay unless it is
// cancelled first. Once the continuation has started it always runs to
// completion and Cancel reports false.
type Task[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc
	phase  atomic.Int32

	mu     sync.Mutex
	result T
	err    error
}

// Schedule starts the delay timer. Cancelling ctx during the delay cancels
// the task. The continuation receives a context that keeps ctx's values but
// not its cancellation.
func Schedule[T any](ctx context.Context, delay time.Duration, fn func(context.Context) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		defer close(t.done)
		defer cancel()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			t.phase.CompareAndSwap(waiting, cancelled)
			t.finish(*new(T), context.Canceled)
			return
		case <-timer.C:
		}
		if !t.phase.CompareAndSwap(waiting, running) {
			t.finish(*new(T), context.Canceled)
			return
		}

		res, err := fn(context.WithoutCancel(ctx))
		t.finish(res, err)
	}()

	return t
}

func (t *Task[T]) finish(res T, err error) {
	t.mu.Lock()
	t.result, t.err = res, err
	t.mu.Unlock()
}

// Cancel stops a task that is still waiting out its delay and reports
// whether it did so.
func (t *Task[T]) Cancel() bool {
	if !t.phase.CompareAndSwap(waiting, cancelled) {
		return false
	}
	t.cancel()
	return true
}

// Done is closed once the task has either run or been cancelled.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx ends. A task cancelled before
// running reports context.Canceled.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-t.done:
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.err
}
