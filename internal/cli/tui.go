package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/lnsongxf/gametheory/pkg/errors"
	pkgio "github.com/lnsongxf/gametheory/pkg/io"
	"github.com/lnsongxf/gametheory/pkg/market"
	"github.com/lnsongxf/gametheory/pkg/store"
)

var (
	tabActiveStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Underline(true)
	tabInactiveStyle = lipgloss.NewStyle().Foreground(colorGray)
	helpStyle        = lipgloss.NewStyle().Foreground(colorDim)
	errorStyle       = lipgloss.NewStyle().Foreground(colorRed)
)

// browseCommand creates the browse command, an interactive viewer for
// saved problems or a JSON problem document.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [problem.json]",
		Short: "Browse saved problems interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var model BrowseModel
			if len(args) == 1 {
				doc, err := pkgio.ImportJSON(args[0])
				if err != nil {
					return err
				}
				model = NewProblemModel(store.FromDocument(doc))
			} else {
				st, err := c.requireStore(cmd.Context())
				if err != nil {
					return err
				}
				defer st.Close()
				summaries, err := st.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(summaries) == 0 {
					printInfo("No saved problems")
					return nil
				}
				model = NewBrowseModel(summaries, func(id string) (*store.Problem, error) {
					return st.Load(cmd.Context(), id)
				})
			}

			_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}

// =============================================================================
// BrowseModel - Problem list and matching viewer
// =============================================================================

// BrowseModel is the bubbletea model behind `schoolchoice browse`. It shows
// a list of saved problems; enter opens one, with a tab per mechanism.
type BrowseModel struct {
	Summaries []store.Summary
	Cursor    int
	Offset    int
	Height    int

	// Problem is the opened problem, nil in the list view.
	Problem   *store.Problem
	Names     []string
	Tab       int
	ByStudent bool
	Err       error

	load   func(id string) (*store.Problem, error)
	single bool // opened from a file; closing the problem quits
}

// NewBrowseModel lists summaries and opens problems through load.
func NewBrowseModel(summaries []store.Summary, load func(id string) (*store.Problem, error)) BrowseModel {
	return BrowseModel{Summaries: summaries, Height: 15, load: load}
}

// NewProblemModel shows a single problem.
func NewProblemModel(p *store.Problem) BrowseModel {
	m := BrowseModel{Height: 15, single: true}
	m.open(p)
	return m
}

func (m *BrowseModel) open(p *store.Problem) {
	m.Problem = p
	m.Names = orderedMechanisms(p.Matchings)
	m.Tab = 0
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
		if m.Problem != nil {
			return m.updateProblem(msg)
		}
		return m.updateList(msg)
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m BrowseModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
			if m.Cursor < m.Offset {
				m.Offset = m.Cursor
			}
		}
	case "down", "j":
		if m.Cursor < len(m.Summaries)-1 {
			m.Cursor++
			if m.Cursor >= m.Offset+m.Height {
				m.Offset = m.Cursor - m.Height + 1
			}
		}
	case "enter":
		if len(m.Summaries) == 0 {
			return m, nil
		}
		p, err := m.load(m.Summaries[m.Cursor].ID)
		if err != nil {
			m.Err = err
			return m, nil
		}
		m.Err = nil
		m.open(p)
	}
	return m, nil
}

func (m BrowseModel) updateProblem(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		if m.single {
			return m, tea.Quit
		}
		m.Problem, m.Names = nil, nil
	case "right", "l", "tab":
		if len(m.Names) > 0 {
			m.Tab = (m.Tab + 1) % len(m.Names)
		}
	case "left", "h", "shift+tab":
		if len(m.Names) > 0 {
			m.Tab = (m.Tab + len(m.Names) - 1) % len(m.Names)
		}
	case "s":
		m.ByStudent = !m.ByStudent
	}
	return m, nil
}

func (m BrowseModel) View() string {
	if m.Problem != nil {
		return m.problemView()
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Saved Problems"))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ navigate  ⏎ open  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Summaries))
	b.WriteString(summaryTable(m.Summaries[m.Offset:end], m.Cursor-m.Offset))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Summaries))))
	if m.Err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(errors.UserMessage(m.Err)))
	}
	return b.String()
}

func (m BrowseModel) problemView() string {
	p := m.Problem
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Problem " + p.ID))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf("%d students · %d schools", p.Market.NumStudents(), p.Market.RealSchools())))
	b.WriteString("\n\n")

	if len(m.Names) == 0 {
		b.WriteString(helpStyle.Render("No matchings stored."))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("esc back  q quit"))
		return b.String()
	}

	tabs := make([]string, len(m.Names))
	for i, name := range m.Names {
		if i == m.Tab {
			tabs[i] = tabActiveStyle.Render(mechanismTitle(name))
		} else {
			tabs[i] = tabInactiveStyle.Render(mechanismTitle(name))
		}
	}
	b.WriteString(strings.Join(tabs, "   "))
	b.WriteString("\n\n")

	name := m.Names[m.Tab]
	mt := p.Matchings[name]
	b.WriteString(runLine(name, len(mt.Unassigned()), len(market.BlockingPairs(p.Market, mt)), true))
	b.WriteString("\n")
	if m.ByStudent {
		b.WriteString(studentTable(p.Market, mt))
	} else {
		b.WriteString(matchingTable(p.Market, mt))
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("←/→ mechanism  s schools/students  esc back  q quit"))
	return b.String()
}
