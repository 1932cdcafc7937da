package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lnsongxf/gametheory/pkg/errors"
	pkgio "github.com/lnsongxf/gametheory/pkg/io"
	"github.com/lnsongxf/gametheory/pkg/market"
)

// marketFlags selects where a command reads its market from: a directory
// with school.txt and student.txt, two explicit text files, or a JSON
// problem document.
type marketFlags struct {
	dir      string
	schools  string
	students string
	json     string
	outside  bool
}

func (f *marketFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.dir, "dir", "d", "", "directory holding "+pkgio.SchoolFile+" and "+pkgio.StudentFile)
	cmd.Flags().StringVar(&f.schools, "schools", "", "school file (capacity, then priority list, per line)")
	cmd.Flags().StringVar(&f.students, "students", "", "student file (preference list per line)")
	cmd.Flags().StringVar(&f.json, "json", "", "JSON problem document")
	cmd.Flags().BoolVar(&f.outside, "outside", false, "add the outside option even when seats suffice")
	cmd.MarkFlagsMutuallyExclusive("dir", "json", "schools")
	cmd.MarkFlagsMutuallyExclusive("dir", "json", "students")
	cmd.MarkFlagsRequiredTogether("schools", "students")
}

// loadMarket reads the market selected by f. Matchings stored in a JSON
// document are ignored.
func (c *CLI) loadMarket(f marketFlags) (*market.Market, error) {
	var opts []market.Option
	outside := f.outside || c.Config.Solve.Outside
	if outside {
		opts = append(opts, market.WithOutsideOption())
	}

	prog := newProgress(c.Logger)
	var (
		m      *market.Market
		source string
		err    error
	)
	switch {
	case f.json != "":
		source = f.json
		var p *pkgio.Problem
		if p, err = pkgio.ImportJSON(f.json); err == nil {
			m = p.Market
			if outside && !m.OutsideForced() {
				capacity, priority, preference := m.Input()
				m, err = market.New(capacity, priority, preference, opts...)
			}
		}
	case f.schools != "":
		source = f.schools + ", " + f.students
		m, err = pkgio.ImportMarketFiles(f.schools, f.students, opts...)
	case f.dir != "":
		source = f.dir
		m, err = pkgio.ImportMarket(f.dir, opts...)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "no market given: use --dir, --schools/--students or --json")
	}
	if err != nil {
		return nil, fmt.Errorf("load market %s: %w", source, err)
	}

	if m.HasOutsideOption() && !m.OutsideForced() {
		printWarning("%d seats for %d students: unplaced students go to the outside option", m.TotalCapacity(), m.NumStudents())
	}
	prog.done("Loaded market",
		"students", m.NumStudents(),
		"schools", m.RealSchools(),
		"outside_option", m.HasOutsideOption())
	return m, nil
}
