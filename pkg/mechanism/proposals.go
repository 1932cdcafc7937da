package mechanism

import (
	"slices"

	"github.com/lnsongxf/gametheory/pkg/market"
)

// proposals walks each student down a private copy of its preference list.
type proposals struct {
	prefs  [][]int
	cursor []int
}

func newProposals(m *market.Market) *proposals {
	p := &proposals{
		prefs:  make([][]int, m.NumStudents()),
		cursor: make([]int, m.NumStudents()),
	}
	for i := range p.prefs {
		p.prefs[i] = m.Preference(i)
	}
	return p
}

// target returns the school student i currently proposes to.
func (p *proposals) target(i int) (int, bool) {
	if p.cursor[i] >= len(p.prefs[i]) {
		return 0, false
	}
	return p.prefs[i][p.cursor[i]], true
}

// advance moves student i to its next preference after a rejection.
func (p *proposals) advance(i int) { p.cursor[i]++ }

// collect groups the free students that still have a school to propose to
// by their target school. It reports whether anyone proposed.
func (p *proposals) collect(nschool int, assignment []int) ([][]int, bool) {
	incoming := make([][]int, nschool)
	proposed := false
	for i, k := range assignment {
		if k != market.Unassigned {
			continue
		}
		if target, ok := p.target(i); ok {
			incoming[target] = append(incoming[target], i)
			proposed = true
		}
	}
	return incoming, proposed
}

// admit orders candidates by school's priority and splits them into the
// top seats eligible students and everyone else. Ineligible candidates are
// always rejected.
func admit(m *market.Market, school int, candidates []int, seats int) (kept, rejected []int) {
	eligible := make([]int, 0, len(candidates))
	for _, i := range candidates {
		if m.Eligible(school, i) {
			eligible = append(eligible, i)
		} else {
			rejected = append(rejected, i)
		}
	}
	slices.SortFunc(eligible, func(a, b int) int {
		return m.PriorityRank(school, a) - m.PriorityRank(school, b)
	})
	n := min(max(seats, 0), len(eligible))
	return eligible[:n], append(rejected, eligible[n:]...)
}
