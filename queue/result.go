package queue

import (
	"context"
	"fmt"
	"sync"
)

// Result is one caller's stake in a queued task.
// It settles exactly once, with the outcome of whichever task
// finally ran for its entry, or with [ErrReset].
type Result struct {
	once sync.Once
	done chan struct{}
	val  any
	err  error
}

func newResult() *Result {
	return &Result{done: make(chan struct{})}
}

func (r *Result) settle(val any, err error) {
	r.once.Do(func() {
		r.val = val
		r.err = err
		close(r.done)
	})
}

// Done returns a channel that is closed once the result has settled.
func (r *Result) Done() <-chan struct{} { return r.done }

// Err blocks until the result settles and returns its error.
func (r *Result) Err() error {
	<-r.done
	return r.err
}

// Value blocks until the result settles.
func (r *Result) Value() (any, error) {
	<-r.done
	return r.val, r.err
}

// Wait blocks until the result settles or ctx ends. An ended ctx only
// stops the wait: the task stays queued and still runs.
func (r *Result) Wait(ctx context.Context) (any, error) {
	select {
	case <-r.done:
		return r.val, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Await waits on r and asserts the settled value to T.
// A nil value yields the zero T.
func Await[T any](ctx context.Context, r *Result) (T, error) {
	var zero T

	val, err := r.Wait(ctx)
	if err != nil {
		return zero, err
	}
	if val == nil {
		return zero, nil
	}

	v, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %T", ErrUnexpectedType, val)
	}

	return v, nil
}
