package cache

import (
	"context"
	"time"
)

// Future is the pending result of DoAsync.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Await blocks until the result is ready or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed once the result is ready.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// DoAsync runs Do in a goroutine bounded by the async limit of c.
func DoAsync[T any](ctx context.Context, c *Cache, key Key, ttl time.Duration, codec Codec[T], compute func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		if err := c.async.Acquire(ctx, 1); err != nil {
			f.err = err
			return
		}
		defer c.async.Release(1)
		f.value, f.err = Do(ctx, c, key, ttl, codec, compute)
	}()
	return f
}
