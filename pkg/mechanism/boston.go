package mechanism

import (
	"github.com/lnsongxf/gametheory/pkg/errors"
	"github.com/lnsongxf/gametheory/pkg/market"
)

// Boston is the immediate acceptance mechanism.
//
// Rounds run like [DeferredAcceptance], except that a school fills its
// remaining seats from the current round's proposers and those acceptances
// are final. A higher-priority student who proposes in a later round finds
// the school full, which is why Boston matchings are generally not stable.
type Boston struct{}

func (Boston) Name() string  { return NameBoston }
func (Boston) Title() string { return "Boston (Immediate Acceptance)" }

// Run computes the Boston matching.
func (b Boston) Run(m *market.Market) (*market.Matching, error) {
	nschool := m.NumSchools()
	p := newProposals(m)
	seats := m.Capacities()
	assignment := unassignedSlice(m.NumStudents())

	limit := m.Pairs() + 1
	for round := 1; ; round++ {
		if round > limit {
			return nil, errors.Invariant(b.Name(), "no convergence after %d rounds", limit)
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
			accepted, rejected := admit(m, k, proposers, seats[k])
			seats[k] -= len(accepted)
			for _, i := range accepted {
				assignment[i] = k
			}
			for _, i := range rejected {
				p.advance(i)
			}
			rejections += len(rejected)
		}
		if rejections == 0 {
			break
		}
	}
	return finish(b.Name(), m, assignment)
}
