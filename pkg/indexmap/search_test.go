package indexmap

import (
	"errors"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/recut/pkg/media"
)

func TestSearch_Directions(t *testing.T) {
	a := []int64{0, 10, 20, 30}

	tests := []struct {
		name string
		v    int64
		dir  Direction
		want int
	}{
		{"before exact first", 0, Before, 0},
		{"before exact last", 30, Before, 3},
		{"before between", 15, Before, 1},
		{"before above all", 99, Before, 3},
		{"after exact first", 0, After, 0},
		{"after exact last", 30, After, 3},
		{"after between", 15, After, 2},
		{"after below all", -5, After, 0},
		{"nearest below", 14, Nearest, 1},
		{"nearest above", 16, Nearest, 2},
		{"nearest tie goes low", 15, Nearest, 1},
		{"nearest clamps low", -100, Nearest, 0},
		{"nearest clamps high", 100, Nearest, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Search(a, tt.v, tt.dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearch_RangeErrors(t *testing.T) {
	a := []int64{5, 6, 7}

	_, err := Search(a, 4, Before)
	require.Error(t, err)
	assert.True(t, errors.Is(err, media.ErrOutOfRange))

	var rerr *RangeError
	_, err = Search(a, 8, After)
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, After, rerr.Dir)

	_, err = Search([]int64{}, 1, Nearest)
	assert.ErrorIs(t, err, media.ErrOutOfRange)

	_, err = Search(a, 6, Direction('?'))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, media.ErrOutOfRange))
}

func TestSearch_LengthOne(t *testing.T) {
	a := []float64{2.5}
	for _, dir := range []Direction{Before, After, Nearest} {
		got, err := Search(a, 2.5, dir)
		require.NoError(t, err)
		assert.Equal(t, 0, got)
	}
	_, err := Search(a, 2.4, Before)
	assert.ErrorIs(t, err, media.ErrOutOfRange)
	_, err = Search(a, 2.6, After)
	assert.ErrorIs(t, err, media.ErrOutOfRange)
}

func TestSearch_Duplicates(t *testing.T) {
	a := []int{0, 4, 4, 4, 9}
	got, err := Search(a, 4, Before)
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	got, err = Search(a, 4, After)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestSearch_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 200; iter++ {
		n := 1 + rng.Intn(40)
		a := make([]int64, n)
		for i := range a {
			a[i] = int64(rng.Intn(100))
		}
		sort.Slice(a, func(i, j int) bool { return a[i] < a[j] })

		v := a[0] + int64(rng.Intn(int(a[n-1]-a[0]+1)))

		lo, err := Search(a, v, Before)
		require.NoError(t, err)
		assert.LessOrEqual(t, a[lo], v)
		if lo+1 < n {
			assert.Greater(t, a[lo+1], v)
		}

		hi, err := Search(a, v, After)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, a[hi], v)
		if hi > 0 {
			assert.Less(t, a[hi-1], v)
		}

		if Contains(a, v) {
			assert.Equal(t, v, a[lo])
			assert.Equal(t, v, a[hi])
		}
	}
}

func TestInsertRemove(t *testing.T) {
	var a []int
	a = Insert(a, 40)
	a = Insert(a, 0)
	a = Insert(a, 70)
	a = Insert(a, 40)
	assert.Equal(t, []int{0, 40, 70}, a)
	assert.True(t, Contains(a, 70))

	a = Remove(a, 40)
	a = Remove(a, 55)
	assert.Equal(t, []int{0, 70}, a)
}
