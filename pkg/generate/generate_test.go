package generate

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lnsongxf/gametheory/pkg/errors"
)

func TestDrawDeterministic(t *testing.T) {
	opts := Options{Schools: 4, Students: 20, Seed: 42}

	a, err := Draw(opts)
	require.NoError(t, err)
	b, err := Draw(opts)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	opts.Seed = 43
	c, err := Draw(opts)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestDrawShapes(t *testing.T) {
	l, err := Draw(Options{Schools: 3, Students: 10, Seed: 1})
	require.NoError(t, err)

	require.Len(t, l.Capacity, 3)
	require.Len(t, l.Priority, 3)
	require.Len(t, l.Preference, 10)
	for _, p := range l.Priority {
		assert.ElementsMatch(t, seq(10), p)
	}
	for _, p := range l.Preference {
		assert.ElementsMatch(t, seq(3), p)
	}
	for _, c := range l.Capacity {
		assert.GreaterOrEqual(t, c, 0)
		assert.LessOrEqual(t, c, 10)
	}
}

func TestDrawOverCapacity(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		l, err := Draw(Options{Schools: 4, Students: 30, OverCapacity: true, MaxOverCapacity: 40, Seed: seed})
		require.NoError(t, err)
		total := sum(l.Capacity)
		assert.GreaterOrEqual(t, total, 30)
		assert.LessOrEqual(t, total, 70)
	}
}

func TestDrawImpossibleConstraints(t *testing.T) {
	// ten schools sharing one student draw capacities below 0.3, so every
	// capacity truncates to zero
	_, err := Draw(Options{Schools: 10, Students: 1, OverCapacity: true, MaxAttempts: 20})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestDrawEligibility(t *testing.T) {
	l, err := Draw(Options{Schools: 5, Students: 50, Eligibility: 0.3, Seed: 9})
	require.NoError(t, err)

	shorter := 0
	for _, p := range l.Priority {
		require.NotEmpty(t, p)
		if len(p) < 50 {
			shorter++
		}
		sorted := slices.Clone(p)
		slices.Sort(sorted)
		assert.Equal(t, len(sorted), len(slices.Compact(sorted)), "no duplicates")
	}
	assert.Positive(t, shorter)
}

func TestDrawRejectsBadOptions(t *testing.T) {
	tests := []Options{
		{Schools: 0, Students: 3},
		{Schools: 3, Students: 0},
		{Schools: 3, Students: 3, Eligibility: 1.5},
	}
	for _, opts := range tests {
		_, err := Draw(opts)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	}
}

func TestMarketAddsOutsideOptionWhenShort(t *testing.T) {
	for seed := uint64(0); seed < 10; seed++ {
		opts := Options{Schools: 3, Students: 12, Seed: seed}
		l, err := Draw(opts)
		require.NoError(t, err)

		m, err := Market(opts)
		require.NoError(t, err)
		assert.Equal(t, sum(l.Capacity) < 12, m.HasOutsideOption())
	}

	m, err := Market(Options{Schools: 2, Students: 2, OutsideOption: true, OverCapacity: true})
	require.NoError(t, err)
	assert.True(t, m.HasOutsideOption())
}

func TestTriangularBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 1000 {
		x := Triangular(rng, 1, 30, 2)
		assert.GreaterOrEqual(t, x, 1.0)
		assert.LessOrEqual(t, x, 30.0)
	}
	assert.Equal(t, 5.0, Triangular(rng, 5, 5, 5))
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}
