package rpcasync

import (
	"context"
	"errors"
	"fmt"
)

// Future is a deferred result of an asynchronous ledger operation. It is
// settled exactly once, either resolved with a value or rejected with an
// error.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// ErrPanic is wrapped by the rejection of a future whose operation panicked.
var ErrPanic = errors.New("operation panicked")

// Go starts f in a separate goroutine and returns the future of its result.
// A panic inside f rejects the future instead of crashing the caller.
func Go[T any](ctx context.Context, f func(context.Context) (T, error)) *Future[T] {
	fut := &Future[T]{done: make(chan struct{})}

	go func() {
		defer close(fut.done)
		defer func() {
			if r := recover(); r != nil {
				var zero T
				fut.val, fut.err = zero, fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()

		fut.val, fut.err = f(ctx)
	}()

	return fut
}

// Resolved returns a future already resolved with v.
func Resolved[T any](v T) *Future[T] {
	fut := &Future[T]{done: make(chan struct{}), val: v}
	close(fut.done)
	return fut
}

// Rejected returns a future already rejected with err.
func Rejected[T any](err error) *Future[T] {
	fut := &Future[T]{done: make(chan struct{}), err: err}
	close(fut.done)
	return fut
}

// Done returns a channel closed when the future is settled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future is settled or ctx is done. Cancelling ctx
// doesn't stop the underlying operation.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
