// Package mechanism implements the assignment mechanisms for school choice
// markets: student-proposing Deferred Acceptance, Boston (Immediate
// Acceptance) and Top Trading Cycles.
//
// # Overview
//
// Every mechanism is a pure function of an immutable [market.Market]. A run
// copies the rankings it consumes, so mechanisms may run concurrently over
// the same market without synchronisation:
//
//	m, _ := market.New(capacity, priority, preference)
//	da, err := mechanism.DeferredAcceptance{}.Run(m)
//
// The mechanisms differ in which ranking decides acceptance and whether an
// acceptance is provisional:
//
//   - [DeferredAcceptance]: schools hold proposers provisionally and may
//     reject them later. The result is stable and student-optimal.
//   - [Boston]: schools accept proposers permanently each round. The result
//     respects capacities but is generally not stable.
//   - [TopTradingCycles]: students and schools point at their favourites
//     and trading cycles are cleared. The result is Pareto efficient.
//
// # Faults
//
// Every loop is bounded by the number of (student, school) pairs. A run that
// exceeds its bound, or produces an assignment that breaks a capacity,
// returns an INVARIANT_VIOLATION error from package errors. Such errors mean
// a validated market reached a state that should be impossible; callers
// should report them, not retry.
package mechanism

import (
	"slices"
	"strings"

	"github.com/lnsongxf/gametheory/pkg/errors"
	"github.com/lnsongxf/gametheory/pkg/market"
)

// Mechanism computes a matching for a market.
type Mechanism interface {
	// Name returns the short registry name, e.g. "da".
	Name() string
	// Title returns a human-readable name.
	Title() string
	// Run computes the matching. It never mutates m.
	Run(m *market.Market) (*market.Matching, error)
}

// Registry names.
const (
	NameDeferredAcceptance = "da"
	NameBoston             = "boston"
	NameTopTradingCycles   = "ttc"
)

var registry = []Mechanism{DeferredAcceptance{}, Boston{}, TopTradingCycles{}}

var aliases = map[string]string{
	"gs":                  NameDeferredAcceptance,
	"gale-shapley":        NameDeferredAcceptance,
	"deferred-acceptance": NameDeferredAcceptance,
	"ia":                  NameBoston,
	"immediate":           NameBoston,
	"top-trading-cycles":  NameTopTradingCycles,
}

// All returns every mechanism in registry order.
func All() []Mechanism { return slices.Clone(registry) }

// Names returns the registry names in registry order.
func Names() []string {
	names := make([]string, len(registry))
	for i, mech := range registry {
		names[i] = mech.Name()
	}
	return names
}

// ByName looks up a mechanism by registry name or alias, case-insensitively.
func ByName(name string) (Mechanism, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	for _, mech := range registry {
		if mech.Name() == key {
			return mech, nil
		}
	}
	return nil, errors.New(errors.ErrCodeInvalidInput,
		"unknown mechanism %q (must be one of: %s)", name, strings.Join(Names(), ", "))
}

// Parse resolves a list of names, dropping duplicates. An empty list
// selects every mechanism.
func Parse(names []string) ([]Mechanism, error) {
	if len(names) == 0 {
		return All(), nil
	}
	var out []Mechanism
	seen := make(map[string]bool)
	for _, name := range names {
		mech, err := ByName(name)
		if err != nil {
			return nil, err
		}
		if !seen[mech.Name()] {
			seen[mech.Name()] = true
			out = append(out, mech)
		}
	}
	return out, nil
}

// finish turns a per-student assignment into a Matching, reporting any
// capacity breach as an invariant fault of the named mechanism.
func finish(name string, m *market.Market, assignment []int) (*market.Matching, error) {
	mt, err := market.FromAssignment(m, assignment)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvariant, err, "%s produced an invalid matching", name)
	}
	return mt, nil
}

func unassignedSlice(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = market.Unassigned
	}
	return out
}
