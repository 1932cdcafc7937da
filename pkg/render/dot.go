package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/lnsongxf/gametheory/pkg/market"
	"github.com/lnsongxf/gametheory/pkg/mechanism"
)

// Options configures DOT output.
type Options struct {
	// Title is drawn above the diagram.
	Title string
	// Ranks labels each assignment edge with the rank the student gives
	// its school, 1 being its first choice.
	Ranks bool
}

// MatchingDOT converts a matching to Graphviz DOT. Unassigned students are
// highlighted and the outside option is drawn dashed.
func MatchingDOT(m *market.Market, mt *market.Matching, opts Options) string {
	var buf bytes.Buffer
	header(&buf, "matching", opts.Title)

	buf.WriteString("  subgraph cluster_students {\n")
	buf.WriteString("    label=\"Students\";\n    style=dashed;\n")
	buf.WriteString("    node [shape=circle, style=filled, fillcolor=white];\n")
	for i := 0; i < m.NumStudents(); i++ {
		attrs := []string{fmt.Sprintf("label=%q", fmt.Sprint(i))}
		if mt.SchoolOf(i) == market.Unassigned {
			attrs = append(attrs, "fillcolor=mistyrose")
		}
		fmt.Fprintf(&buf, "    %q [%s];\n", studentID("", i), strings.Join(attrs, ", "))
	}
	buf.WriteString("  }\n\n")

	buf.WriteString("  subgraph cluster_schools {\n")
	buf.WriteString("    label=\"Schools\";\n    style=dashed;\n")
	for k := 0; k < m.NumSchools(); k++ {
		fmt.Fprintf(&buf, "    %q [%s];\n", schoolID("", k), strings.Join(schoolAttrs(m, mt, k), ", "))
	}
	buf.WriteString("  }\n\n")

	for i := 0; i < m.NumStudents(); i++ {
		k := mt.SchoolOf(i)
		if k == market.Unassigned {
			continue
		}
		if opts.Ranks {
			fmt.Fprintf(&buf, "  %q -> %q [label=\"#%d\"];\n", studentID("", i), schoolID("", k), m.PreferenceRank(i, k)+1)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", studentID("", i), schoolID("", k))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func schoolAttrs(m *market.Market, mt *market.Matching, k int) []string {
	name := fmt.Sprintf("School %d", k)
	if m.IsOutside(k) {
		name = "Outside"
	}
	label := fmt.Sprintf("%s\n%d/%d", name, len(mt.StudentsAt(k)), m.Capacity(k))
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if m.IsOutside(k) {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	}
	return attrs
}

// CyclesDOT draws every cleared trading cycle as a cluster. Solid edges run
// from a student to the school it points at and receives, dashed edges from
// a school to the student it points at.
func CyclesDOT(m *market.Market, trace []mechanism.Cycle, opts Options) string {
	var buf bytes.Buffer
	header(&buf, "cycles", opts.Title)

	for n, c := range trace {
		prefix := fmt.Sprintf("c%d_", n)
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", n)
		fmt.Fprintf(&buf, "    label=\"Cycle %d\";\n    style=dashed;\n", n+1)
		for j, i := range c.Students {
			k := c.Schools[j]
			fmt.Fprintf(&buf, "    %q [label=%q, shape=circle, style=filled, fillcolor=white];\n", studentID(prefix, i), fmt.Sprint(i))
			fmt.Fprintf(&buf, "    %q [label=%q];\n", schoolID(prefix, k), schoolName(m, k))
		}
		for j, i := range c.Students {
			next := c.Students[(j+1)%len(c.Students)]
			k := c.Schools[j]
			fmt.Fprintf(&buf, "    %q -> %q;\n", studentID(prefix, i), schoolID(prefix, k))
			fmt.Fprintf(&buf, "    %q -> %q [style=dashed];\n", schoolID(prefix, k), studentID(prefix, next))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

func header(buf *bytes.Buffer, name, title string) {
	fmt.Fprintf(buf, "digraph %s {\n", name)
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("  nodesep=0.3;\n")
	if title != "" {
		fmt.Fprintf(buf, "  label=%q;\n  labelloc=t;\n", title)
	}
	buf.WriteString("\n")
}

func schoolName(m *market.Market, k int) string {
	if m.IsOutside(k) {
		return "Outside"
	}
	return fmt.Sprintf("School %d", k)
}

func studentID(prefix string, i int) string { return fmt.Sprintf("%ss%d", prefix, i) }
func schoolID(prefix string, k int) string  { return fmt.Sprintf("%sk%d", prefix, k) }
