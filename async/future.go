package async

import (
	"context"
	"sync"
)

// Future is the eventual result of an asynchronous computation.
//
// The zero value is not usable; construct futures with [Completed], [Failed]
// or [New].
type Future[T any] struct {
	mu        sync.Mutex
	done      bool
	val       T
	err       error
	ch        chan struct{}
	callbacks []func(T, error)
}

// Completed returns a future that is already complete with value v.
func Completed[T any](v T) *Future[T] {
	return &Future[T]{done: true, val: v}
}

// Failed returns a future that is already complete with error err.
func Failed[T any](err error) *Future[T] {
	return &Future[T]{done: true, err: err}
}

// New returns a pending future and the function that completes it.
// Only the first call to complete has any effect.
func New[T any]() (*Future[T], func(T, error)) {
	f := &Future[T]{}

	return f, f.complete
}

// Go runs fn on a new goroutine and returns a future completed with its
// result. It is a convenience for embedders and tests; the engine itself
// never calls it.
func Go[T any](fn func() (T, error)) *Future[T] {
	f, complete := New[T]()

	go func() { complete(fn()) }()

	return f
}

func (f *Future[T]) complete(v T, err error) {
	f.mu.Lock()

	if f.done {
		f.mu.Unlock()

		return
	}

	f.done = true
	f.val, f.err = v, err
	callbacks := f.callbacks
	f.callbacks = nil

	if f.ch != nil {
		close(f.ch)
	}

	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(v, err)
	}
}

// Done reports whether the future is complete.
func (f *Future[T]) Done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.done
}

// Result returns the value and error of a completed future. The boolean is
// false if the future is still pending.
func (f *Future[T]) Result() (T, error, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.val, f.err, f.done
}

// OnComplete registers fn to be called with the result. If the future is
// already complete, fn is called before OnComplete returns.
func (f *Future[T]) OnComplete(fn func(T, error)) {
	f.mu.Lock()

	if !f.done {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()

		return
	}

	v, err := f.val, f.err
	f.mu.Unlock()

	fn(v, err)
}

// Await blocks until the future completes or ctx is done. When ctx ends
// first, the in-flight computation is not stopped; its result is discarded.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	f.mu.Lock()

	if f.done {
		defer f.mu.Unlock()

		return f.val, f.err
	}

	if f.ch == nil {
		f.ch = make(chan struct{})
	}

	ch := f.ch
	f.mu.Unlock()

	select {
	case <-ch:
		v, err, _ := f.Result()

		return v, err

	case <-ctx.Done():
		var zero T

		return zero, context.Cause(ctx)
	}
}

// Then chains fn onto f. If f fails, the returned future fails with the same
// error and fn is not called.
func Then[T, U any](f *Future[T], fn func(T) *Future[U]) *Future[U] {
	if v, err, ok := f.Result(); ok {
		if err != nil {
			return Failed[U](err)
		}

		return fn(v)
	}

	next, complete := New[U]()

	f.OnComplete(func(v T, err error) {
		if err != nil {
			var zero U

			complete(zero, err)

			return
		}

		fn(v).OnComplete(complete)
	})

	return next
}

// Map transforms the value of f with the synchronous function fn.
func Map[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	return Then(f, func(v T) *Future[U] {
		u, err := fn(v)
		if err != nil {
			return Failed[U](err)
		}

		return Completed(u)
	})
}

// Recover chains fn onto a failed f. Successful results pass through.
func Recover[T any](f *Future[T], fn func(error) *Future[T]) *Future[T] {
	if v, err, ok := f.Result(); ok {
		if err != nil {
			return fn(err)
		}

		return Completed(v)
	}

	next, complete := New[T]()

	f.OnComplete(func(v T, err error) {
		if err != nil {
			fn(err).OnComplete(complete)

			return
		}

		complete(v, nil)
	})

	return next
}
