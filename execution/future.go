package execution

import "context"

// Future is the result handle returned by statement tasks. Tasks that
// finish synchronously return an already resolved Future.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// ImmediateFuture returns a Future already resolved to value.
func ImmediateFuture[T any](value T) *Future[T] {
	done := make(chan struct{})
	close(done)
	return &Future[T]{done: done, value: value}
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Get waits for the result or for ctx to end.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Cancel is a no-op that returns false. A resolved Future has no
// outstanding work, so its result is never discarded.
func (f *Future[T]) Cancel() bool {
	return false
}
