package mechanism

import (
	"slices"

	"github.com/lnsongxf/gametheory/pkg/errors"
	"github.com/lnsongxf/gametheory/pkg/market"
)

// DeferredAcceptance is the student-proposing Gale–Shapley algorithm.
//
// In each round every free student proposes to the best school that has not
// rejected it yet. Each school pools its proposers with the students it
// already holds, keeps the highest-priority ones up to capacity and rejects
// the rest. The algorithm stops after a round without rejections. The
// result is stable and weakly preferred by every student to any other
// stable matching.
type DeferredAcceptance struct{}

func (DeferredAcceptance) Name() string  { return NameDeferredAcceptance }
func (DeferredAcceptance) Title() string { return "Deferred Acceptance" }

// Run computes the student-optimal stable matching.
func (d DeferredAcceptance) Run(m *market.Market) (*market.Matching, error) {
	nschool := m.NumSchools()
	p := newProposals(m)
	held := make([][]int, nschool)
	assignment := unassignedSlice(m.NumStudents())

	// every non-final round rejects someone and each rejection consumes one
	// (student, school) pair
	limit := m.Pairs() + 1
	for round := 1; ; round++ {
		if round > limit {
			return nil, errors.Invariant(d.Name(), "no convergence after %d rounds", limit)
		}
		incoming, proposed := p.collect(nschool, assignment)
		if !proposed {
			break
		}

		rejections := 0
		for k, proposers := range incoming {
			if len(proposers) == 0 {
				continue
			}
			kept, rejected := admit(m, k, slices.Concat(held[k], proposers), m.Capacity(k))
			held[k] = kept
			for _, i := range kept {
				assignment[i] = k
			}
			for _, i := range rejected {
				assignment[i] = market.Unassigned
				p.advance(i)
			}
			rejections += len(rejected)
		}
		if rejections == 0 {
			break
		}
	}
	return finish(d.Name(), m, assignment)
}
