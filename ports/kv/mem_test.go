package kv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemStore(t *testing.T) {
	type point struct {
		X, Y int
	}
	s := NewMemStore()

	_, err := Load[point](t.Context(), s, "p")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, Save(t.Context(), s, "p1", point{X: 1, Y: 2}))
	require.NoError(t, Save(t.Context(), s, "p2", point{X: 3}))

	loaded, err := Load[point](t.Context(), s, "p1")
	require.NoError(t, err)
	require.Equal(t, point{X: 1, Y: 2}, loaded)

	require.NoError(t, s.Delete(t.Context(), "p1"))
	_, err = Load[point](t.Context(), s, "p1")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(t.Context(), "bad", []byte("{")))
	_, err = Load[point](t.Context(), s, "bad")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestMemStore_copies_values(t *testing.T) {
	s := NewMemStore()
	v := []byte("abc")
	require.NoError(t, s.Put(t.Context(), "k", v))
	v[0] = 'x'

	got, err := s.Get(t.Context(), "k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(got))
}
