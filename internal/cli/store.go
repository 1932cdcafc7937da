package cli

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/lnsongxf/gametheory/pkg/errors"
	pkgio "github.com/lnsongxf/gametheory/pkg/io"
	"github.com/lnsongxf/gametheory/pkg/market"
	"github.com/lnsongxf/gametheory/pkg/mechanism"
	"github.com/lnsongxf/gametheory/pkg/store"
)

var errNoStore = errors.New(errors.ErrCodeUnsupported, "problem store disabled (store.backend = \"none\")")

// storeCommand creates the store management command.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage saved problems",
	}

	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeShowCommand())
	cmd.AddCommand(c.storeDeleteCommand())

	return cmd
}

func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved problems, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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
				printNextStep("Save one", appName+" solve --dir market/ --save")
				return nil
			}
			fmt.Println(summaryTable(summaries, -1))
			return nil
		},
	}
}

func (c *CLI) storeShowCommand() *cobra.Command {
	var (
		byStudent bool
		jsonOut   string
	)
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a saved problem's matchings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.loadProblem(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			printKeyValue("ID", p.ID)
			printKeyValue("Created", p.CreatedAt.Local().Format(time.DateTime))
			printKeyValue("Students", strconv.Itoa(p.Market.NumStudents()))
			printKeyValue("Schools", strconv.Itoa(p.Market.RealSchools()))
			for _, name := range orderedMechanisms(p.Matchings) {
				mt := p.Matchings[name]
				fmt.Println()
				fmt.Println(StyleTitle.Render(mechanismTitle(name)))
				fmt.Println("  " + runLine(name, len(mt.Unassigned()), len(market.BlockingPairs(p.Market, mt)), true))
				fmt.Println(matchingTable(p.Market, mt))
				if byStudent {
					fmt.Println(studentTable(p.Market, mt))
				}
			}

			if jsonOut != "" {
				if err := pkgio.ExportJSON(p.Document(), jsonOut); err != nil {
					return err
				}
				printFile(jsonOut)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&byStudent, "by-student", false, "also print each student's assignment")
	cmd.Flags().StringVar(&jsonOut, "json-out", "", "write the problem as a JSON document")
	return cmd
}

func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete saved problems",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.requireStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			for _, id := range args {
				if err := st.Delete(cmd.Context(), id); err != nil {
					return err
				}
				printSuccess("Deleted %s", id)
			}
			return nil
		},
	}
}

func (c *CLI) loadProblem(ctx context.Context, id string) (*store.Problem, error) {
	st, err := c.requireStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Load(ctx, id)
}

// orderedMechanisms returns the names in matchings, registry order first
// and unknown names last.
func orderedMechanisms(matchings map[string]*market.Matching) []string {
	var names []string
	for _, name := range mechanism.Names() {
		if _, ok := matchings[name]; ok {
			names = append(names, name)
		}
	}
	var extra []string
	for name := range matchings {
		if _, err := mechanism.ByName(name); err != nil {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	return append(names, extra...)
}

func mechanismTitle(name string) string {
	if mech, err := mechanism.ByName(name); err == nil {
		return mech.Title()
	}
	return name
}

// summaryTable renders stored problems. The row at cursor, if any, is
// highlighted.
func summaryTable(summaries []store.Summary, cursor int) string {
	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = []string{
			s.ID,
			s.CreatedAt.Local().Format(time.DateTime),
			strconv.Itoa(s.Students),
			strconv.Itoa(s.Schools),
			strings.Join(s.Mechanisms, ", "),
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Created", "Students", "Schools", "Mechanisms").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == headerRow:
				return styleHeader
			case row == cursor:
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			case col == 0:
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
