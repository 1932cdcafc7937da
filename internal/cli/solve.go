package cli

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	pkgio "github.com/lnsongxf/gametheory/pkg/io"
	"github.com/lnsongxf/gametheory/pkg/mechanism"
	"github.com/lnsongxf/gametheory/pkg/pipeline"
	"github.com/lnsongxf/gametheory/pkg/store"
)

// solveOpts holds the flags of the solve command.
type solveOpts struct {
	market     marketFlags
	mechanisms string
	output     string // directory for matching files and artifacts
	jsonOut    string
	formats    string
	trace      bool
	ranks      bool
	students   bool // print the per-student table
	save       bool
	noCache    bool
	refresh    bool
}

// solveCommand creates the solve command.
func (c *CLI) solveCommand() *cobra.Command {
	var opts solveOpts

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Assign students to schools",
		Long: `Run one or more mechanisms over a market and compare the matchings.

Mechanisms: da (Deferred Acceptance), boston (Boston / immediate acceptance)
and ttc (Top Trading Cycles). Each matching is reported with the number of
unassigned students and blocking pairs, and cached locally so solving the
same market again is instant.

With --output, each matching is written as <mechanism>_match_school.txt and
<mechanism>_match_student.txt, plus any diagrams requested with --format.`,
		Example: `  schoolchoice solve --dir market/
  schoolchoice solve --schools school.txt --students student.txt -m da,ttc --trace
  schoolchoice solve --json problem.json -o out/ --format svg --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSolve(cmd.Context(), opts)
		},
	}

	opts.market.register(cmd)
	cmd.Flags().StringVarP(&opts.mechanisms, "mechanism", "m", "", "mechanisms to run, comma-separated (default from config: all)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "directory for matching files")
	cmd.Flags().StringVar(&opts.jsonOut, "json-out", "", "write market and matchings as a JSON problem document")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "diagram formats written to --output: dot, svg (comma-separated)")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "print the Top Trading Cycles trace")
	cmd.Flags().BoolVar(&opts.ranks, "ranks", false, "label diagram edges with preference ranks")
	cmd.Flags().BoolVar(&opts.students, "by-student", false, "also print each student's assignment")
	cmd.Flags().BoolVar(&opts.save, "save", false, "save the problem to the store")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute cached matchings")

	return cmd
}

func (c *CLI) runSolve(ctx context.Context, opts solveOpts) error {
	m, err := c.loadMarket(opts.market)
	if err != nil {
		return err
	}
	formats := parseList(opts.formats)
	if len(formats) > 0 && opts.output == "" {
		return fmt.Errorf("--format needs --output")
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	popts := pipeline.Options{
		Mechanisms: c.mechanismsOrDefault(opts.mechanisms),
		Trace:      opts.trace,
		Refresh:    opts.refresh,
		Formats:    formats,
		Ranks:      opts.ranks,
	}

	spinner := newSpinner(ctx, "Solving...")
	if c.Logger.GetLevel() > LogDebug {
		spinner.Start()
	}
	prog := newProgress(c.Logger)
	result, err := runner.Solve(ctx, m, popts)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done("Solved market", "mechanisms", len(result.Matchings))

	printResult(result, opts.students)

	if opts.output != "" {
		if err := writeOutputs(result, opts.output); err != nil {
			return err
		}
	}
	if opts.jsonOut != "" {
		if err := pkgio.ExportJSON(result.Problem(), opts.jsonOut); err != nil {
			return err
		}
		printFile(opts.jsonOut)
	}
	if opts.save {
		st, err := c.requireStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Save(ctx, store.NewProblemWithID(result.ID, result.Market, result.Matchings)); err != nil {
			return fmt.Errorf("save problem: %w", err)
		}
		printSuccess("Saved problem %s", result.ID)
		printNextStep("Inspect it", appName+" store show "+result.ID)
	}
	return nil
}

// printResult prints every matching in registry order, then the trace.
func printResult(result *pipeline.Result, byStudent bool) {
	m := result.Market
	for _, name := range mechanism.Names() {
		mt, ok := result.Matchings[name]
		if !ok {
			continue
		}
		mech, _ := mechanism.ByName(name)
		run := result.Stats.Runs[name]

		fmt.Println()
		fmt.Println(StyleTitle.Render(mech.Title()))
		fmt.Println("  " + runLine(name, run.Unassigned, run.BlockingPairs, result.CacheInfo.Matchings[name]))
		fmt.Println(matchingTable(m, mt))
		if byStudent {
			fmt.Println(studentTable(m, mt))
		}
	}
	if result.Trace != nil {
		fmt.Println()
		fmt.Println(StyleTitle.Render("Top Trading Cycles trace"))
		fmt.Print(cyclesText(m, result.Trace))
	}
	fmt.Println()
}

// writeOutputs writes matching files and artifacts into dir.
func writeOutputs(result *pipeline.Result, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, name := range mechanism.Names() {
		mt, ok := result.Matchings[name]
		if !ok {
			continue
		}
		if err := pkgio.ExportMatching(mt, dir, name); err != nil {
			return err
		}
		printFile(filepath.Join(dir, name+"_"+pkgio.MatchStudentFile))
	}
	for _, artifact := range slices.Sorted(maps.Keys(result.Artifacts)) {
		path := filepath.Join(dir, artifact)
		if err := os.WriteFile(path, result.Artifacts[artifact], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}
