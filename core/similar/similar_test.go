package similar

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r4z4/loanactors/core/cache"
)

func TestKey(t *testing.T) {
	a := Key([]float32{0.1, 0.2, 0.3}, 5)
	assert.Equal(t, a, Key([]float32{0.1, 0.2, 0.3}, 5))
	assert.NotEqual(t, a, Key([]float32{0.1, 0.2, 0.3}, 4))
	assert.NotEqual(t, a, Key([]float32{0.3, 0.2, 0.1}, 5))
	assert.Len(t, a, len("similar/")+64)
}

func TestVectorLiteral(t *testing.T) {
	assert.Equal(t, "[]", VectorLiteral(nil))
	assert.Equal(t, "[1,2.5,-0.125]", VectorLiteral([]float32{1, 2.5, -0.125}))
}

func TestLookup(t *testing.T) {
	var gotVec []float32
	var gotLimit int
	q := QuerierFunc(func(_ context.Context, vec []float32, limit int) ([]Match, error) {
		gotVec, gotLimit = vec, limit
		return []Match{{EntryName: "essay-1"}}, nil
	})

	m, err := Lookup(t.Context(), q, [][]float32{{1, 2}, {3, 4}}, 0)
	require.NoError(t, err)
	assert.Equal(t, []Match{{EntryName: "essay-1"}}, m)
	assert.Equal(t, []float32{1, 2}, gotVec)
	assert.Equal(t, DefaultLimit, gotLimit)

	_, err = Lookup(t.Context(), q, nil, 0)
	require.ErrorIs(t, err, ErrNoEmbeddings)
	_, err = Lookup(t.Context(), q, [][]float32{{}}, 0)
	require.ErrorIs(t, err, ErrEmptyVector)

	boom := errors.New("boom")
	_, err = Lookup(t.Context(), QuerierFunc(func(context.Context, []float32, int) ([]Match, error) {
		return nil, boom
	}), [][]float32{{1}}, 1)
	require.ErrorIs(t, err, boom)
}

func TestCached(t *testing.T) {
	lru := cache.NewLRU(cache.LRUOpts{Size: 8})
	defer lru.Close()

	calls := 0
	q := Cached(QuerierFunc(func(context.Context, []float32, int) ([]Match, error) {
		calls++
		return []Match{{EntryName: "x"}}, nil
	}), cache.NewTyped[[]Match](lru))

	for range 3 {
		m, err := q.Nearest(t.Context(), []float32{1, 2, 3}, 5)
		require.NoError(t, err)
		assert.Equal(t, "x", m[0].EntryName)
	}
	assert.Equal(t, 1, calls)

	_, err := q.Nearest(t.Context(), []float32{1, 2, 4}, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCached_returns_copies(t *testing.T) {
	lru := cache.NewLRU(cache.LRUOpts{Size: 8})
	defer lru.Close()

	q := Cached(QuerierFunc(func(context.Context, []float32, int) ([]Match, error) {
		return []Match{{EntryName: "a"}, {EntryName: "b"}}, nil
	}), cache.NewTyped[[]Match](lru))

	first, err := q.Nearest(t.Context(), []float32{1}, 5)
	require.NoError(t, err)
	first[0].EntryName = "mutated"

	again, err := q.Nearest(t.Context(), []float32{1}, 5)
	require.NoError(t, err)
	assert.Equal(t, "a", again[0].EntryName)
	again[1].EntryName = "mutated"

	third, err := q.Nearest(t.Context(), []float32{1}, 5)
	require.NoError(t, err)
	assert.Equal(t, []Match{{EntryName: "a"}, {EntryName: "b"}}, third)
}

func TestFirst(t *testing.T) {
	v, err := First([][]float32{{1, 2}, {3}})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, v)

	_, err = First(nil)
	require.ErrorIs(t, err, ErrNoEmbeddings)
	_, err = First([][]float32{{}})
	require.ErrorIs(t, err, ErrEmptyVector)
}

func TestCached_SharedMiss(t *testing.T) {
	lru := cache.NewLRU(cache.LRUOpts{Size: 8})
	defer lru.Close()

	release := make(chan struct{})
	var calls atomic.Int32
	q := Cached(QuerierFunc(func(context.Context, []float32, int) ([]Match, error) {
		calls.Add(1)
		<-release
		return []Match{{EntryName: "x"}}, nil
	}), cache.NewTyped[[]Match](lru))

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := q.Nearest(t.Context(), []float32{1}, 5)
			assert.NoError(t, err)
			assert.Len(t, m, 1)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}
