package scheduler

import (
	"context"
)

// Work is a unit of work run by a worker. It must honour ctx cancellation.
type Work[T any] func(ctx context.Context) (T, error)

type Result[T any] struct {
	Data T
	Err  error
}

// Future receives exactly one Result once the work is done.
type Future[T any] struct {
	c      chan Result[T]
	cancel context.CancelFunc
}

func newFuture[T any](c chan Result[T], cancel context.CancelFunc) *Future[T] {
	return &Future[T]{c: c, cancel: cancel}
}

func (f *Future[T]) C() <-chan Result[T] {
	return f.c
}

// Wait blocks until the result is ready or ctx is done. On ctx expiry the work is canceled.
func (f *Future[T]) Wait(ctx context.Context) Result[T] {
	select {
	case r := <-f.c:
		return r
	case <-ctx.Done():
		f.cancel()
		return Result[T]{Err: ctx.Err()}
	}
}

func (f *Future[T]) Stop() {
	f.cancel()
}
