package async

import "sync"

// All returns a future holding the results of fs in input order. The result
// is ready once every input is ready; the first error observed fails it.
//
// Inputs that are already complete are collected without allocating a join,
// and pending inputs are joined with a counter instead of nested chains, so
// arbitrarily long sibling lists do not grow the stack.
func All[T any](fs []*Future[T]) *Future[[]T] {
	results := make([]T, len(fs))
	pending := make([]int, 0, len(fs))

	for i, f := range fs {
		v, err, ok := f.Result()
		if !ok {
			pending = append(pending, i)

			continue
		}

		if err != nil {
			return Failed[[]T](err)
		}

		results[i] = v
	}

	if len(pending) == 0 {
		return Completed(results)
	}

	all, complete := New[[]T]()

	var (
		mu        sync.Mutex
		remaining = len(pending)
		failed    bool
	)

	for _, i := range pending {
		fs[i].OnComplete(func(v T, err error) {
			mu.Lock()

			if failed {
				mu.Unlock()

				return
			}

			if err != nil {
				failed = true
				mu.Unlock()
				complete(nil, err)

				return
			}

			results[i] = v
			remaining--
			last := remaining == 0
			mu.Unlock()

			if last {
				complete(results, nil)
			}
		})
	}

	return all
}
