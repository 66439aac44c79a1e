package riak

import (
	"context"
	"sync"
)

// Future is the eventual result of an operation.
//
// Results are delivered on the client's read goroutine. Abandoning Wait
// through ctx does not cancel the request: its response is still matched,
// and then discarded.
type Future[T any] struct {
	once  sync.Once
	ready chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{ready: make(chan struct{})}
}

func failedFuture[T any](err error) *Future[T] {
	f := newFuture[T]()
	f.complete(*new(T), err)
	return f
}

// complete sets the result. Only the first call has an effect.
func (f *Future[T]) complete(value T, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.ready)
	})
}

// Wait blocks until the result is available or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.ready:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel closed when the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.ready
}
