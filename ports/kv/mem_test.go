package kv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Lenders int      `json:"lenders"`
	Slugs   []string `json:"slugs"`
}

func TestMemStore(t *testing.T) {
	s := NewMemStore()

	_, err := Get[snapshot](t.Context(), s, "offers/latest")
	require.ErrorIs(t, err, ErrNotFound)

	want := snapshot{Lenders: 2, Slugs: []string{"a", "b"}}
	require.NoError(t, Put(t.Context(), s, "offers/latest", want, PutOptions{}))

	got, err := Get[snapshot](t.Context(), s, "offers/latest")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	e, err := s.Get(t.Context(), "offers/latest")
	require.NoError(t, err)
	assert.False(t, e.Stored.IsZero())

	require.NoError(t, s.Delete(t.Context(), "offers/latest"))
	_, err = s.Get(t.Context(), "offers/latest")
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, s.Put(t.Context(), "", Entry{}, PutOptions{}), ErrEmptyKey)
}

func TestMemStore_TTL(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := NewMemStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(t.Context(), "short", Entry{Data: []byte(`1`)}, PutOptions{TTL: time.Second}))
	require.NoError(t, s.Put(t.Context(), "forever", Entry{Data: []byte(`2`)}, PutOptions{}))

	_, err := s.Get(t.Context(), "short")
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = s.Get(t.Context(), "short")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(t.Context(), "forever")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestGet_DecodeError(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Put(t.Context(), "bad", Entry{Data: []byte(`{`)}, PutOptions{}))
	_, err := Get[snapshot](t.Context(), s, "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
