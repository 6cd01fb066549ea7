package session

import (
	"context"
	"errors"
	"time"
)

// Task runs fn once after delay unless its context ends first. A cancelled
// task never starts fn. Once started, fn sees the cancellation through its
// context and must not apply anything after it; state.Store.Update enforces
// that for store writes.
type Task[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc
	val    T
	err    error
}

// Go starts a task bound to ctx.
func Go[T any](ctx context.Context, delay time.Duration, fn func(context.Context) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{done: make(chan struct{}), cancel: cancel}

	go func() {
		defer close(t.done)
		defer cancel()

		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				t.err = ctx.Err()
				return
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			t.err = err
			return
		}
		t.val, t.err = fn(ctx)
	}()

	return t
}

// Cancel stops the task if fn has not started yet.
func (t *Task[T]) Cancel() { t.cancel() }

// Done is closed when the task has finished or was cancelled.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Wait blocks until the task finishes. If ctx ends first the task is
// cancelled and Wait still waits for it, so the result always says whether
// fn applied anything. A task stopped by the cancellation reports ctx's error.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		t.cancel()
		<-t.done
		if t.err != nil && errors.Is(t.err, context.Canceled) {
			var zero T
			return zero, ctx.Err()
		}
		return t.val, t.err
	}
}
