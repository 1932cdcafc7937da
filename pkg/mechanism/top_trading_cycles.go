package mechanism

import (
	"slices"

	"github.com/lnsongxf/gametheory/pkg/errors"
	"github.com/lnsongxf/gametheory/pkg/market"
	"github.com/lnsongxf/gametheory/pkg/ranking"
)

// TopTradingCycles clears trading cycles in the points-to digraph where
// every unmatched student points at its favourite remaining school and every
// school with seats left points at its highest-priority remaining student.
//
// Each cleared cycle gives every student on it the school it points at.
// Matched students leave every priority list; schools without seats, or
// without anyone left to point at, leave every preference list. The result
// is Pareto efficient for the students.
type TopTradingCycles struct{}

func (TopTradingCycles) Name() string  { return NameTopTradingCycles }
func (TopTradingCycles) Title() string { return "Top Trading Cycles" }

// Cycle is one cleared trading cycle. Students[j] receives Schools[j].
// Students are listed in walk order starting at the first cycle node the
// walk reached.
type Cycle struct {
	Students []int `json:"students"`
	Schools  []int `json:"schools"`
}

// Run computes the Top Trading Cycles matching.
func (t TopTradingCycles) Run(m *market.Market) (*market.Matching, error) {
	mt, _, err := t.RunWithTrace(m)
	return mt, err
}

// RunWithTrace computes the matching and also returns the cleared cycles in
// the order they were found.
func (t TopTradingCycles) RunWithTrace(m *market.Market) (*market.Matching, []Cycle, error) {
	s := newTTCState(m)
	s.settle()

	var trace []Cycle
	limit := m.NumStudents() + 1
	for iter := 1; !s.unmatched.Empty(); iter++ {
		if iter > limit {
			return nil, nil, errors.Invariant(t.Name(), "no termination after %d cycles", limit)
		}
		c, err := s.findCycle()
		if err != nil {
			return nil, nil, err
		}
		s.clear(c)
		s.settle()
		trace = append(trace, c)
	}

	mt, err := finish(t.Name(), m, s.assignment)
	if err != nil {
		return nil, nil, err
	}
	return mt, trace, nil
}

// ttcState holds the private working copies of one run.
type ttcState struct {
	prefs      *ranking.Table // student -> live schools
	prios      *ranking.Table // school -> live unmatched students
	seats      []int
	dead       []bool // retired schools
	unmatched  *ranking.List
	assignment []int

	// walk markers: position of a node in the current walk, -1 if unvisited
	studentAt []int
	schoolAt  []int
}

func newTTCState(m *market.Market) *ttcState {
	nstud, nschool := m.NumStudents(), m.NumSchools()

	prefs := make([][]int, nstud)
	everyone := make([]int, nstud)
	for i := range prefs {
		// a student only points at schools that list them
		prefs[i] = slices.DeleteFunc(m.Preference(i), func(k int) bool { return !m.Eligible(k, i) })
		everyone[i] = i
	}
	prios := make([][]int, nschool)
	for k := range prios {
		prios[k] = m.Priority(k)
	}

	s := &ttcState{
		prefs:      ranking.NewTable(prefs, nschool),
		prios:      ranking.NewTable(prios, nstud),
		seats:      m.Capacities(),
		dead:       make([]bool, nschool),
		unmatched:  ranking.New(everyone, nstud),
		assignment: unassignedSlice(nstud),
		studentAt:  make([]int, nstud),
		schoolAt:   make([]int, nschool),
	}
	for i := range s.studentAt {
		s.studentAt[i] = -1
	}
	for k := range s.schoolAt {
		s.schoolAt[k] = -1
	}
	return s
}

// settle retires schools that can no longer trade and students that have no
// school left, until neither kind remains. Afterwards every live student
// points somewhere and every live school points somewhere.
func (s *ttcState) settle() {
	for changed := true; changed; {
		changed = false
		for k := range s.seats {
			if !s.dead[k] && (s.seats[k] <= 0 || s.prios.List(k).Empty()) {
				s.dead[k] = true
				s.prefs.RemoveEverywhere(k)
				changed = true
			}
		}
		for _, i := range s.unmatched.Live() {
			if s.prefs.List(i).Empty() {
				s.unmatched.Remove(i)
				s.prios.RemoveEverywhere(i)
				changed = true
			}
		}
	}
}

// findCycle walks the points-to digraph from the lowest-indexed unmatched
// student. After each school -> student step the student side is checked
// for closure, then after the following student -> school step the school
// side is checked. The order of the two checks is fixed.
func (s *ttcState) findCycle() (Cycle, error) {
	name := NameTopTradingCycles
	start, _ := s.unmatched.Top()

	students := []int{start}
	var schools []int
	defer func() {
		for _, i := range students {
			s.studentAt[i] = -1
		}
		for _, k := range schools {
			s.schoolAt[k] = -1
		}
	}()
	s.studentAt[start] = 0

	k, ok := s.prefs.List(start).Top()
	if !ok {
		return Cycle{}, errors.Invariant(name, "student %d points at no school", start)
	}
	schools = append(schools, k)
	s.schoolAt[k] = 0

	limit := len(s.studentAt) + len(s.schoolAt)
	for step := 0; step <= limit; step++ {
		last := schools[len(schools)-1]
		i, ok := s.prios.List(last).Top()
		if !ok {
			return Cycle{}, errors.Invariant(name, "school %d points at no student", last)
		}
		if p := s.studentAt[i]; p >= 0 {
			return s.cycleFrom(students[p:])
		}
		s.studentAt[i] = len(students)
		students = append(students, i)

		k, ok := s.prefs.List(i).Top()
		if !ok {
			return Cycle{}, errors.Invariant(name, "student %d points at no school", i)
		}
		if q := s.schoolAt[k]; q >= 0 {
			// the cycle runs school q -> student q+1 -> ... -> student i -> school q
			return s.cycleFrom(students[q+1:])
		}
		s.schoolAt[k] = len(schools)
		schools = append(schools, k)
	}
	return Cycle{}, errors.Invariant(name, "no cycle within %d steps", limit)
}

// cycleFrom pairs every cycle student with the school it points at.
func (s *ttcState) cycleFrom(students []int) (Cycle, error) {
	c := Cycle{
		Students: append([]int(nil), students...),
		Schools:  make([]int, len(students)),
	}
	for j, i := range c.Students {
		k, ok := s.prefs.List(i).Top()
		if !ok {
			return Cycle{}, errors.Invariant(NameTopTradingCycles, "student %d points at no school", i)
		}
		c.Schools[j] = k
	}
	return c, nil
}

// clear makes the cycle's trades final.
func (s *ttcState) clear(c Cycle) {
	for j, i := range c.Students {
		k := c.Schools[j]
		s.assignment[i] = k
		s.seats[k]--
		s.unmatched.Remove(i)
		s.prios.RemoveEverywhere(i)
	}
}
