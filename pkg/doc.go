// Package pkg holds the schoolchoice libraries.
//
// # Overview
//
// Schoolchoice assigns students to school seats and compares the
// assignments that different mechanisms produce. The packages fall into
// three groups:
//
//  1. Domain: [market] (inputs, matchings, stability checks), [mechanism]
//     (Deferred Acceptance, Boston and Top Trading Cycles) and [ranking]
//     (the ordered lists Top Trading Cycles consumes).
//  2. Infrastructure: [cache], [store], [config], [observability] and
//     [errors].
//  3. Surfaces: [io] (text files and JSON documents), [generate] (random
//     markets), [render] (Graphviz diagrams), [pipeline] (the shared solve
//     path) and [server] (the HTTP API).
//
// # Data Flow
//
//	school.txt + student.txt, JSON or generate.Market
//	         ↓
//	    [market.New] (validate, add the outside option)
//	         ↓
//	    [pipeline.Runner.Solve] (run mechanisms concurrently, cache results)
//	         ↓
//	    matchings, blocking pairs, TTC trace, DOT/SVG diagrams
//	         ↓
//	    [io] files, [store] problems, [server] responses
//
// # Quick Start
//
//	m, err := market.New(
//	    []int{1, 1},                // capacity
//	    [][]int{{0, 1}, {1, 0}},    // school priorities
//	    [][]int{{1, 0}, {0, 1}},    // student preferences
//	)
//	if err != nil {
//	    return err
//	}
//	mt, err := mechanism.DeferredAcceptance{}.Run(m)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(mt.Assignment(), len(market.BlockingPairs(m, mt)))
//
// The schoolchoice command in cmd/schoolchoice wraps all of this.
package pkg
