// Package generate draws random school choice markets.
//
// Capacities follow a triangular distribution on [avg/10, 3·avg] with mode
// 0.2·avg, where avg is the number of students per school, truncated to
// integers. Priorities and preferences are uniform random permutations. The
// same seed always yields the same market.
//
//	m, err := generate.Market(generate.Options{Schools: 5, Students: 40, Seed: 7})
package generate

import (
	"math"
	"math/rand/v2"

	"github.com/lnsongxf/gametheory/pkg/errors"
	"github.com/lnsongxf/gametheory/pkg/market"
)

// DefaultMaxAttempts bounds how often capacities are redrawn to satisfy the
// capacity constraints in [Options].
const DefaultMaxAttempts = 10000

// Options configures [Market].
type Options struct {
	Schools  int
	Students int

	// OverCapacity redraws capacities until they cover every student.
	OverCapacity bool
	// MaxOverCapacity, when positive, redraws capacities until their total
	// exceeds the number of students by at most this much.
	MaxOverCapacity int

	// Eligibility is the probability that a school lists a given student.
	// Zero means every school lists every student. Each school keeps at
	// least one student.
	Eligibility float64

	// OutsideOption forces the outside option onto the market.
	OutsideOption bool

	Seed        uint64
	MaxAttempts int
}

// Lists holds the raw input of a generated market.
type Lists struct {
	Capacity   []int
	Priority   [][]int
	Preference [][]int
}

// Market draws a random market.
func Market(opts Options) (*market.Market, error) {
	l, err := Draw(opts)
	if err != nil {
		return nil, err
	}
	var mopts []market.Option
	if opts.OutsideOption {
		mopts = append(mopts, market.WithOutsideOption())
	}
	return market.New(l.Capacity, l.Priority, l.Preference, mopts...)
}

// Draw draws the raw lists of a random market without validating them.
func Draw(opts Options) (Lists, error) {
	if opts.Schools <= 0 || opts.Students <= 0 {
		return Lists{}, errors.New(errors.ErrCodeInvalidInput,
			"need at least one school and one student, got %d and %d", opts.Schools, opts.Students)
	}
	if opts.Eligibility < 0 || opts.Eligibility > 1 {
		return Lists{}, errors.New(errors.ErrCodeInvalidInput, "eligibility %v outside [0, 1]", opts.Eligibility)
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0xdeadbeef))

	capacity, err := drawCapacities(rng, opts)
	if err != nil {
		return Lists{}, err
	}

	priority := make([][]int, opts.Schools)
	for k := range priority {
		priority[k] = eligible(rng, rng.Perm(opts.Students), opts.Eligibility)
	}
	preference := make([][]int, opts.Students)
	for i := range preference {
		preference[i] = rng.Perm(opts.Schools)
	}
	return Lists{Capacity: capacity, Priority: priority, Preference: preference}, nil
}

func drawCapacities(rng *rand.Rand, opts Options) ([]int, error) {
	avg := float64(opts.Students) / float64(opts.Schools)
	low, high, mode := avg/10, 3*avg, 0.2*avg

	capacity := make([]int, opts.Schools)
	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		total := 0
		for k := range capacity {
			capacity[k] = int(Triangular(rng, low, high, mode))
			total += capacity[k]
		}
		if opts.OverCapacity && total < opts.Students {
			continue
		}
		if opts.MaxOverCapacity > 0 && total > opts.Students+opts.MaxOverCapacity {
			continue
		}
		return capacity, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput,
		"no capacity draw met the constraints in %d attempts", opts.MaxAttempts)
}

// eligible keeps each student with probability p, preserving order and
// keeping at least the first.
func eligible(rng *rand.Rand, order []int, p float64) []int {
	if p == 0 || p >= 1 {
		return order
	}
	kept := order[:1]
	for _, i := range order[1:] {
		if rng.Float64() < p {
			kept = append(kept, i)
		}
	}
	return kept
}

// Triangular draws from the triangular distribution on [low, high] with the
// given mode by inverting its CDF.
func Triangular(rng *rand.Rand, low, high, mode float64) float64 {
	if high <= low {
		return low
	}
	u := rng.Float64()
	c := (mode - low) / (high - low)
	if u < c {
		return low + math.Sqrt(u*(high-low)*(mode-low))
	}
	return high - math.Sqrt((1-u)*(high-low)*(high-mode))
}
