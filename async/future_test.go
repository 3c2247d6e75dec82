package async

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletedFastPath(t *testing.T) {
	f := Completed(42)

	require.True(t, f.Done())

	v, err := f.Await(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	called := false

	f.OnComplete(func(v int, err error) {
		called = true

		assert.Equal(t, 42, v)
	})

	assert.True(t, called, "callback must run synchronously on a completed future")
}

func TestNewCompletesOnce(t *testing.T) {
	f, complete := New[string]()

	require.False(t, f.Done())

	complete("first", nil)
	complete("second", errors.New("ignored"))

	v, err := f.Await(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}

func TestThenPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	f, complete := New[int]()

	calls := 0
	next := Then(f, func(v int) *Future[int] {
		calls++

		return Completed(v + 1)
	})

	complete(0, boom)

	_, err := next.Await(t.Context())
	require.ErrorIs(t, err, boom)
	assert.Zero(t, calls)
}

func TestMapAndRecover(t *testing.T) {
	f := Map(Completed(2), func(v int) (int, error) { return v * 3, nil })

	v, err := f.Await(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 6, v)

	r := Recover(Failed[int](errors.New("x")), func(error) *Future[int] {
		return Completed(-1)
	})

	v, err = r.Await(t.Context())
	require.NoError(t, err)
	assert.Equal(t, -1, v)
}

func TestAwaitHonorsContext(t *testing.T) {
	f, _ := New[int]()

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAllPreservesOrder(t *testing.T) {
	const n = 64

	fs := make([]*Future[int], n)

	var wg sync.WaitGroup

	for i := range n {
		f, complete := New[int]()
		fs[i] = f

		wg.Add(1)

		go func() {
			defer wg.Done()

			time.Sleep(time.Duration(rand.IntN(2000)) * time.Microsecond)
			complete(i, nil)
		}()
	}

	all := All(fs)

	got, err := all.Await(t.Context())
	require.NoError(t, err)

	wg.Wait()

	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestAllAlreadyComplete(t *testing.T) {
	all := All([]*Future[string]{Completed("a"), Completed("b")})

	require.True(t, all.Done())

	got, err := all.Await(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestAllFailsFast(t *testing.T) {
	boom := errors.New("boom")
	pending, _ := New[int]()

	all := All([]*Future[int]{pending, Failed[int](boom)})

	_, err := all.Await(t.Context())
	require.ErrorIs(t, err, boom)
}

func TestAllEmpty(t *testing.T) {
	got, err := All[int](nil).Await(t.Context())
	require.NoError(t, err)
	assert.Empty(t, got)
}
