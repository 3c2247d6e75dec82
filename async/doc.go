// Package async provides a minimal future abstraction used by the template
// engine to compose results that may complete out of order.
//
// A [Future] is either already complete when it is created ([Completed],
// [Failed]) or completed later through the function returned by [New]. The
// package never starts goroutines on its own: callbacks registered with
// [Future.OnComplete] run synchronously on whichever goroutine completes the
// future, or immediately on the caller's goroutine if the future is already
// complete. This keeps the synchronous fast path free of scheduling overhead
// and leaves the choice of execution context to the embedder.
//
// # Composition
//
//	f := async.Then(eval(expr), func(v any) *async.Future[string] {
//		return async.Completed(fmt.Sprint(v))
//	})
//
//	all := async.All(children) // results keep the order of children
//
// [All] places each result at the index of its input regardless of the order
// in which the inputs complete, and fails with the first error observed.
package async
