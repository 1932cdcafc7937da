package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lnsongxf/gametheory/pkg/market"
	"github.com/lnsongxf/gametheory/pkg/mechanism"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)

	styleHeader     = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleUnassigned = lipgloss.NewStyle().Foreground(colorRed)
	styleOutside    = lipgloss.NewStyle().Foreground(colorYellow)
)

// headerRow is the row index lipgloss tables pass for the header.
const headerRow = -1

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Matching Display
// =============================================================================

// runLine formats one mechanism's summary on a single line, e.g.
// "da · 2 unassigned · stable · cached".
func runLine(name string, unassigned, blocking int, cached bool) string {
	parts := []string{name}
	if unassigned > 0 {
		parts = append(parts, fmt.Sprintf("%d unassigned", unassigned))
	} else {
		parts = append(parts, "all assigned")
	}
	if blocking == 0 {
		parts = append(parts, "stable")
	} else {
		parts = append(parts, fmt.Sprintf("%d blocking pairs", blocking))
	}

	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}

	line := ""
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	return line + StyleDim.Render(" · ") + statusStyle.Render(status)
}

// schoolLabel names a school for display.
func schoolLabel(m *market.Market, k int) string {
	switch {
	case k == market.Unassigned:
		return "unassigned"
	case m.IsOutside(k):
		return "outside"
	}
	return strconv.Itoa(k)
}

// matchingTable renders one row per school with its seats and assigned
// students, plus a row for unassigned students when there are any.
func matchingTable(m *market.Market, mt *market.Matching) string {
	rows := make([][]string, 0, m.NumSchools()+1)
	for k := range m.NumSchools() {
		students := mt.StudentsAt(k)
		seats := strconv.Itoa(m.Capacity(k))
		if m.IsOutside(k) {
			seats = "∞"
		}
		rows = append(rows, []string{schoolLabel(m, k), seats, strconv.Itoa(len(students)), joinInts(students)})
	}
	if unassigned := mt.Unassigned(); len(unassigned) > 0 {
		rows = append(rows, []string{schoolLabel(m, market.Unassigned), "", strconv.Itoa(len(unassigned)), joinInts(unassigned)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("School", "Seats", "Held", "Students").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return styleHeader
			}
			if row < 0 || row >= len(rows) {
				return lipgloss.NewStyle()
			}
			switch rows[row][0] {
			case "unassigned":
				return styleUnassigned
			case "outside":
				return styleOutside
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

// studentTable renders one row per student: the school assigned and its
// position in the student's preference list.
func studentTable(m *market.Market, mt *market.Matching) string {
	rows := make([][]string, m.NumStudents())
	for i := range rows {
		k := mt.SchoolOf(i)
		rank := "-"
		if k != market.Unassigned {
			rank = strconv.Itoa(m.PreferenceRank(i, k) + 1)
		}
		rows[i] = []string{strconv.Itoa(i), schoolLabel(m, k), rank}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Student", "School", "Choice").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return styleHeader
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// cyclesText lists cleared cycles one per line, e.g.
// "1. s0 → 1 → s1 → 0".
func cyclesText(m *market.Market, trace []mechanism.Cycle) string {
	var b strings.Builder
	for n, cycle := range trace {
		fmt.Fprintf(&b, "%d. ", n+1)
		for j, i := range cycle.Students {
			if j > 0 {
				b.WriteString(" " + iconArrow + " ")
			}
			fmt.Fprintf(&b, "s%d %s %s", i, iconArrow, schoolLabel(m, cycle.Schools[j]))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}
