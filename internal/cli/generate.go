package cli

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lnsongxf/gametheory/pkg/generate"
	pkgio "github.com/lnsongxf/gametheory/pkg/io"
	"github.com/lnsongxf/gametheory/pkg/store"
)

// generateCommand creates the generate command for random markets.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		gopts   generate.Options
		output  string
		jsonOut string
	)
	gopts.Schools = 5
	gopts.Students = 50

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Draw a random market",
		Long: `Draw a random market with triangular capacities and uniformly random
priority and preference lists.

The market is written as school.txt and student.txt into --output, or as a
JSON problem document with --json-out. The same --seed always yields the
same market; without it a seed is drawn and printed.`,
		Example: `  schoolchoice generate --schools 5 --students 50 -o market/
  schoolchoice generate --students 200 --overcap --seed 7 --json-out market.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" && jsonOut == "" {
				return fmt.Errorf("nothing to write: use --output or --json-out")
			}
			if !cmd.Flags().Changed("seed") {
				gopts.Seed = rand.Uint64()
			}

			prog := newProgress(c.Logger)
			m, err := generate.Market(gopts)
			if err != nil {
				return err
			}
			prog.done("Generated market", "seed", gopts.Seed, "seats", m.TotalCapacity())

			if output != "" {
				if err := pkgio.ExportMarket(m, output); err != nil {
					return err
				}
				printSuccess("Wrote market with %d students and %d schools", m.NumStudents(), m.RealSchools())
				printFile(output)
			}
			if jsonOut != "" {
				if err := pkgio.ExportJSON(store.NewProblem(m, nil).Document(), jsonOut); err != nil {
					return err
				}
				printFile(jsonOut)
			}
			printDetail("seed %s", strconv.FormatUint(gopts.Seed, 10))
			if output != "" {
				printNextStep("Solve it", appName+" solve --dir "+output)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&gopts.Schools, "schools", gopts.Schools, "number of schools")
	cmd.Flags().IntVar(&gopts.Students, "students", gopts.Students, "number of students")
	cmd.Flags().Uint64Var(&gopts.Seed, "seed", 0, "random seed")
	cmd.Flags().BoolVar(&gopts.OverCapacity, "overcap", false, "redraw until seats cover every student")
	cmd.Flags().IntVar(&gopts.MaxOverCapacity, "max-overcap", 0, "redraw until spare seats are at most this many (0: no bound)")
	cmd.Flags().Float64Var(&gopts.Eligibility, "eligibility", 0, "probability a school lists a student (0: every student)")
	cmd.Flags().BoolVar(&gopts.OutsideOption, "outside", false, "add the outside option even when seats suffice")
	cmd.Flags().IntVar(&gopts.MaxAttempts, "max-attempts", generate.DefaultMaxAttempts, "capacity redraw limit")
	cmd.Flags().StringVarP(&output, "output", "o", "", "directory for "+pkgio.SchoolFile+" and "+pkgio.StudentFile)
	cmd.Flags().StringVar(&jsonOut, "json-out", "", "write the market as a JSON problem document")

	return cmd
}
