package vector

import (
	"errors"
	"testing"

	"github.com/poiesic/qamatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "scaled", a: []float32{1, 2, 3}, b: []float32{2, 4, 6}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, want: 0},
		{name: "length mismatch", a: []float32{1}, b: []float32{1, 0}, want: 0},
		{name: "empty", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-6)
		})
	}
}

func TestStore_SelfQueryIsTopHit(t *testing.T) {
	s := NewStore(3)
	vecs := map[core.ID][]float32{
		1: {1, 0, 0},
		2: {0.9, 0.1, 0},
		3: {0, 1, 0},
		4: {0.2, 0.3, 0.9},
	}
	for id, v := range vecs {
		require.NoError(t, s.Put(id, v))
	}

	for id, v := range vecs {
		hits, err := s.Query(v, 0)
		require.NoError(t, err)
		require.Len(t, hits, len(vecs))
		assert.Equal(t, id, hits[0].Id)
		assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
		for i := 1; i < len(hits); i++ {
			assert.GreaterOrEqual(t, hits[i-1].Similarity, hits[i].Similarity)
		}
	}
}

func TestStore_TiesByLowestID(t *testing.T) {
	s := NewStore(2)
	require.NoError(t, s.Put(7, []float32{1, 1}))
	require.NoError(t, s.Put(3, []float32{2, 2}))
	require.NoError(t, s.Put(5, []float32{1, 0}))

	hits, err := s.Query([]float32{1, 1}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, core.ID(3), hits[0].Id)
	assert.Equal(t, core.ID(7), hits[1].Id)
}

func TestStore_DimensionMismatch(t *testing.T) {
	s := NewStore(0)
	require.NoError(t, s.Put(1, []float32{1, 0, 0}))
	assert.Equal(t, 3, s.Dim())

	err := s.Put(2, []float32{1, 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrDimensionMismatch))
	var dm *core.DimensionMismatchError
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 3, dm.Expected)
	assert.Equal(t, 2, dm.Got)
	assert.Equal(t, 1, s.Len())

	_, err = s.Query([]float32{1}, 5)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)

	assert.ErrorIs(t, s.Put(3, nil), core.ErrDimensionMismatch)
}

func TestStore_EmptyQuery(t *testing.T) {
	hits, err := NewStore(4).Query([]float32{1, 2}, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestStore_SimilarityAndRemove(t *testing.T) {
	s := NewStore(2)
	require.NoError(t, s.Put(1, []float32{1, 0}))

	assert.InDelta(t, 1.0, s.Similarity(1, []float32{3, 0}), 1e-9)
	assert.Zero(t, s.Similarity(2, []float32{1, 0}))
	assert.Zero(t, s.Similarity(1, []float32{1}))

	s.Remove(1)
	_, ok := s.Get(1)
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

func TestStore_CloneIsIndependent(t *testing.T) {
	s := NewStore(2)
	require.NoError(t, s.Put(1, []float32{1, 0}))

	c := s.Clone()
	require.NoError(t, c.Put(2, []float32{0, 1}))
	c.Remove(1)

	assert.Equal(t, 1, s.Len())
	_, ok := s.Get(1)
	assert.True(t, ok)
	_, ok = c.Get(1)
	assert.False(t, ok)
}

func TestStore_PutCopiesInput(t *testing.T) {
	s := NewStore(2)
	v := []float32{1, 0}
	require.NoError(t, s.Put(1, v))
	v[0] = 0

	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 0}, got)
}
