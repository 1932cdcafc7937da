// Package render draws matchings and Top Trading Cycles traces as Graphviz
// diagrams.
//
// [MatchingDOT] lays students out in one column and schools in another with
// an arrow from every student to its school. [CyclesDOT] draws each cleared
// trading cycle as its own cluster. [RenderSVG] turns either into SVG using
// the embedded Graphviz build, so no system installation is required.
//
//	dot := render.MatchingDOT(m, mt, render.Options{Title: "da"})
//	svg, err := render.RenderSVG(ctx, dot)
package render
