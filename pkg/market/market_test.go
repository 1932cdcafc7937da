package market

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lnsongxf/gametheory/pkg/errors"
)

func twoByTwo(t *testing.T) *Market {
	t.Helper()
	m, err := New(
		[]int{1, 1},
		[][]int{{0, 1}, {1, 0}},
		[][]int{{0, 1}, {0, 1}},
	)
	require.NoError(t, err)
	return m
}

func TestNewCopiesInput(t *testing.T) {
	capacity := []int{1, 1}
	priority := [][]int{{0, 1}, {1, 0}}
	preference := [][]int{{0, 1}, {0, 1}}

	m, err := New(capacity, priority, preference)
	require.NoError(t, err)

	capacity[0] = 9
	priority[0][0] = 1
	preference[0][0] = 1

	assert.Equal(t, 1, m.Capacity(0))
	assert.Equal(t, []int{0, 1}, m.Priority(0))
	assert.Equal(t, []int{0, 1}, m.Preference(0))
	assert.False(t, m.HasOutsideOption())
	assert.Equal(t, -1, m.OutsideOption())
	assert.Equal(t, 2, m.NumSchools())
	assert.Equal(t, 2, m.RealSchools())
	assert.Equal(t, 4, m.Pairs())
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name       string
		capacity   []int
		priority   [][]int
		preference [][]int
		subject    errors.Subject
		index      int
	}{
		{"no schools", nil, nil, [][]int{{0}}, errors.SubjectMarket, -1},
		{"no students", []int{1}, [][]int{{0}}, nil, errors.SubjectMarket, -1},
		{"count mismatch", []int{1, 1}, [][]int{{0}}, [][]int{{0, 1}}, errors.SubjectMarket, -1},
		{"negative capacity", []int{1, -1}, [][]int{{0}, {0}}, [][]int{{0, 1}}, errors.SubjectSchool, 1},
		{"empty priority", []int{1, 1}, [][]int{{0}, {}}, [][]int{{0, 1}}, errors.SubjectSchool, 1},
		{"duplicate priority", []int{2}, [][]int{{0, 1, 0}}, [][]int{{0}, {0}}, errors.SubjectSchool, 0},
		{"unknown student", []int{1}, [][]int{{0, 5}}, [][]int{{0}}, errors.SubjectSchool, 0},
		{"empty preference", []int{1}, [][]int{{0, 1}}, [][]int{{0}, {}}, errors.SubjectStudent, 1},
		{"short preference", []int{1, 1}, [][]int{{0}, {0}}, [][]int{{1}}, errors.SubjectStudent, 0},
		{"duplicate preference", []int{1, 1}, [][]int{{0}, {0}}, [][]int{{1, 1}}, errors.SubjectStudent, 0},
		{"unknown school", []int{1, 1}, [][]int{{0}, {0}}, [][]int{{0, 2}}, errors.SubjectStudent, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.capacity, tt.priority, tt.preference)
			require.Error(t, err)
			assert.Nil(t, m)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidMarket))

			v, ok := errors.AsValidation(err)
			require.True(t, ok)
			assert.Equal(t, tt.subject, v.Subject)
			assert.Equal(t, tt.index, v.Index)
		})
	}
}

func TestOutsideOptionOnShortfall(t *testing.T) {
	m, err := New([]int{1}, [][]int{{0, 1}}, [][]int{{0}, {0}})
	require.NoError(t, err)

	require.True(t, m.HasOutsideOption())
	assert.False(t, m.OutsideForced())
	o := m.OutsideOption()
	assert.Equal(t, 1, o)
	assert.True(t, m.IsOutside(o))
	assert.False(t, m.IsOutside(0))
	assert.GreaterOrEqual(t, m.Capacity(o), 1)
	assert.Equal(t, []int{0, 1}, m.Priority(o))
	assert.Equal(t, []int{0, 1}, m.Preference(0))
	assert.Equal(t, []int{0, 1}, m.Preference(1))
	assert.Equal(t, 1, m.TotalCapacity())
}

func TestOutsideOptionForced(t *testing.T) {
	m, err := New([]int{2}, [][]int{{0}}, [][]int{{0}, {0}}, WithOutsideOption())
	require.NoError(t, err)

	assert.True(t, m.HasOutsideOption())
	assert.True(t, m.OutsideForced())
	assert.Equal(t, 2, m.NumSchools())
	assert.False(t, m.Eligible(0, 1))
	assert.True(t, m.Eligible(1, 1))
}

func TestRanks(t *testing.T) {
	m := twoByTwo(t)

	assert.Equal(t, 0, m.PriorityRank(1, 1))
	assert.Equal(t, 1, m.PriorityRank(1, 0))
	assert.Equal(t, 1, m.PreferenceRank(0, 1))
	assert.Equal(t, 2, m.PreferenceRank(0, Unassigned))
	assert.True(t, m.Prefers(0, 0, 1))
	assert.True(t, m.Prefers(0, 1, Unassigned))
	assert.False(t, m.Prefers(0, Unassigned, 1))
}

func TestInputStripsOutsideOption(t *testing.T) {
	m, err := New([]int{1}, [][]int{{1, 0}}, [][]int{{0}, {0}})
	require.NoError(t, err)

	capacity, priority, preference := m.Input()
	assert.Equal(t, []int{1}, capacity)
	assert.Equal(t, [][]int{{1, 0}}, priority)
	assert.Equal(t, [][]int{{0}, {0}}, preference)

	again, err := New(capacity, priority, preference)
	require.NoError(t, err)
	assert.True(t, m.Equal(again))
}

func TestMarketJSONRoundTrip(t *testing.T) {
	for _, forced := range []bool{false, true} {
		var opts []Option
		if forced {
			opts = append(opts, WithOutsideOption())
		}
		m, err := New([]int{1, 0}, [][]int{{0, 1}, {1}}, [][]int{{1, 0}, {0, 1}}, opts...)
		require.NoError(t, err)

		data, err := json.Marshal(m)
		require.NoError(t, err)

		var decoded Market
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.True(t, m.Equal(&decoded), "forced=%v", forced)
	}
}

func TestMarketJSONRejectsInvalid(t *testing.T) {
	var m Market
	err := json.Unmarshal([]byte(`{"capacity":[-1],"priority":[[0]],"preference":[[0]]}`), &m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidMarket))
}

func TestEqual(t *testing.T) {
	a := twoByTwo(t)
	b := twoByTwo(t)
	c, err := New([]int{1, 2}, [][]int{{0, 1}, {1, 0}}, [][]int{{0, 1}, {0, 1}})
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
	var nilMarket *Market
	assert.True(t, nilMarket.Equal(nil))
}
