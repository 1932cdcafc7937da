package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lnsongxf/gametheory/pkg/errors"
	"github.com/lnsongxf/gametheory/pkg/mechanism"
	"github.com/lnsongxf/gametheory/pkg/pipeline"
	"github.com/lnsongxf/gametheory/pkg/render"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	market    marketFlags
	mechanism string
	output    string
	format    string
	cycles    bool
	ranks     bool
	noCache   bool
}

// renderCommand creates the render command for matching diagrams.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{mechanism: mechanism.NameTopTradingCycles}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw a matching as a Graphviz diagram",
		Long: `Draw one mechanism's matching, or with --cycles the cycles Top Trading
Cycles cleared, as DOT source or SVG.

The format follows the --output extension (.dot or .svg) unless --format is
given. Diagrams are cached alongside matchings.`,
		Example: `  schoolchoice render --dir market/ -m da -o da.svg
  schoolchoice render --dir market/ --cycles -o cycles.dot`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), opts)
		},
	}

	opts.market.register(cmd)
	cmd.Flags().StringVarP(&opts.mechanism, "mechanism", "m", opts.mechanism, "mechanism whose matching is drawn")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: dot, svg (default from --output extension)")
	cmd.Flags().BoolVar(&opts.cycles, "cycles", false, "draw the Top Trading Cycles trace")
	cmd.Flags().BoolVar(&opts.ranks, "ranks", false, "label edges with preference ranks")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

// formatFor picks the output format from the flag or the file extension.
func formatFor(flag, output string) (string, error) {
	format := flag
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
	}
	if format == "" {
		format = render.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		return "", err
	}
	return format, nil
}

func (c *CLI) runRender(ctx context.Context, opts renderOpts) error {
	format, err := formatFor(opts.format, opts.output)
	if err != nil {
		return err
	}
	mech, err := mechanism.ByName(opts.mechanism)
	if err != nil {
		return err
	}
	name := mech.Name()
	if opts.cycles {
		if name != mechanism.NameTopTradingCycles {
			return errors.New(errors.ErrCodeInvalidInput, "--cycles draws the %s trace, not %s", mechanism.NameTopTradingCycles, name)
		}
		name = pipeline.CyclesArtifact
	}

	m, err := c.loadMarket(opts.market)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	result, err := runner.Solve(ctx, m, pipeline.Options{
		Mechanisms: []string{mech.Name()},
		Trace:      opts.cycles,
		Formats:    []string{format},
		Ranks:      opts.ranks,
	})
	if err != nil {
		return err
	}
	data, ok := result.Artifacts[pipeline.ArtifactName(name, format)]
	if !ok {
		return errors.New(errors.ErrCodeInternal, "no %s artifact rendered", pipeline.ArtifactName(name, format))
	}
	prog.done("Rendered "+name, "format", format, "cached", result.CacheInfo.RenderHit)

	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Rendered %s", mech.Title())
	printFile(opts.output)
	return nil
}
