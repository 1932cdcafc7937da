package market

import "slices"

// Unassigned is the school index reported for a student without a seat.
const Unassigned = -1

// Market is an immutable, validated school choice problem.
// The zero value is not usable; build markets with [New].
type Market struct {
	capacity   []int
	priority   [][]int
	preference [][]int
	rank       [][]int // rank[school][student], -1 when ineligible

	real    int // number of schools given as input
	outside int // index of the outside option, -1 when absent
	forced  bool
}

type options struct {
	forceOutside bool
}

// Option configures market construction.
type Option func(*options)

// WithOutsideOption appends the outside option even when real capacity
// already covers every student.
func WithOutsideOption() Option {
	return func(o *options) { o.forceOutside = true }
}

// New validates and copies the input and returns a Market.
//
// capacity[k] and priority[k] describe school k; priority lists hold student
// indices from highest to lowest priority. preference[i] is student i's
// order over all schools, best first, and must be a permutation of
// [0, len(capacity)). Violations return an INVALID_MARKET error carrying an
// [errors.ValidationError] that names the offending student or school.
func New(capacity []int, priority [][]int, preference [][]int, opts ...Option) (*Market, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if err := validate(capacity, priority, preference); err != nil {
		return nil, err
	}

	nschool, nstud := len(capacity), len(preference)
	m := &Market{
		capacity:   slices.Clone(capacity),
		priority:   make([][]int, nschool),
		preference: make([][]int, nstud),
		real:       nschool,
		outside:    -1,
		forced:     o.forceOutside,
	}
	for k, p := range priority {
		m.priority[k] = slices.Clone(p)
	}
	for i, p := range preference {
		m.preference[i] = slices.Clone(p)
	}

	if o.forceOutside || sum(capacity) < nstud {
		m.appendOutside()
	}
	m.buildRanks()
	return m, nil
}

func (m *Market) appendOutside() {
	nstud := len(m.preference)
	m.outside = len(m.capacity)
	m.capacity = append(m.capacity, nstud)
	all := make([]int, nstud)
	for i := range all {
		all[i] = i
	}
	m.priority = append(m.priority, all)
	for i := range m.preference {
		m.preference[i] = append(m.preference[i], m.outside)
	}
}

func (m *Market) buildRanks() {
	m.rank = make([][]int, len(m.capacity))
	for k, p := range m.priority {
		r := make([]int, len(m.preference))
		for i := range r {
			r[i] = -1
		}
		for pos, i := range p {
			r[i] = pos
		}
		m.rank[k] = r
	}
}

// NumStudents returns the number of students.
func (m *Market) NumStudents() int { return len(m.preference) }

// NumSchools returns the number of schools, including the outside option.
func (m *Market) NumSchools() int { return len(m.capacity) }

// RealSchools returns the number of schools given as input.
func (m *Market) RealSchools() int { return m.real }

// HasOutsideOption reports whether the outside option was appended.
func (m *Market) HasOutsideOption() bool { return m.outside >= 0 }

// OutsideOption returns the outside option's school index, or -1.
func (m *Market) OutsideOption() int { return m.outside }

// OutsideForced reports whether the outside option was requested with
// [WithOutsideOption] rather than triggered by a capacity shortfall.
func (m *Market) OutsideForced() bool { return m.forced }

// IsOutside reports whether school is the outside option.
func (m *Market) IsOutside(school int) bool { return m.outside >= 0 && school == m.outside }

// Capacity returns the capacity of school.
func (m *Market) Capacity(school int) int { return m.capacity[school] }

// Capacities returns a copy of every school's capacity.
func (m *Market) Capacities() []int { return slices.Clone(m.capacity) }

// TotalCapacity returns the summed capacity of the real schools.
func (m *Market) TotalCapacity() int { return sum(m.capacity[:m.real]) }

// Priority returns a copy of school's priority list, highest first.
func (m *Market) Priority(school int) []int { return slices.Clone(m.priority[school]) }

// Preference returns a copy of student's preference list, best first.
func (m *Market) Preference(student int) []int { return slices.Clone(m.preference[student]) }

// PriorityRank returns the position of student in school's priority list,
// or -1 if the student is ineligible there.
func (m *Market) PriorityRank(school, student int) int { return m.rank[school][student] }

// Eligible reports whether student is listed by school.
func (m *Market) Eligible(school, student int) bool { return m.rank[school][student] >= 0 }

// PreferenceRank returns the position of school in student's preference
// list. Unassigned ranks after every school.
func (m *Market) PreferenceRank(student, school int) int {
	if school == Unassigned {
		return len(m.preference[student])
	}
	return slices.Index(m.preference[student], school)
}

// Prefers reports whether student strictly prefers school a to school b.
// Either may be [Unassigned].
func (m *Market) Prefers(student, a, b int) bool {
	return m.PreferenceRank(student, a) < m.PreferenceRank(student, b)
}

// Pairs returns the number of (student, school) pairs, an upper bound on
// the proposals any mechanism can make.
func (m *Market) Pairs() int { return m.NumStudents() * m.NumSchools() }

// Input returns copies of the lists New was called with: real schools only,
// outside option stripped from every preference list.
func (m *Market) Input() (capacity []int, priority [][]int, preference [][]int) {
	capacity = slices.Clone(m.capacity[:m.real])
	priority = make([][]int, m.real)
	for k := range priority {
		priority[k] = slices.Clone(m.priority[k])
	}
	preference = make([][]int, len(m.preference))
	for i, p := range m.preference {
		preference[i] = slices.Clone(p[:m.real])
	}
	return capacity, priority, preference
}

// Equal reports whether m and other describe the same market.
func (m *Market) Equal(other *Market) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.real == other.real &&
		m.outside == other.outside &&
		m.forced == other.forced &&
		slices.Equal(m.capacity, other.capacity) &&
		slices.EqualFunc(m.priority, other.priority, slices.Equal[[]int]) &&
		slices.EqualFunc(m.preference, other.preference, slices.Equal[[]int])
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}
