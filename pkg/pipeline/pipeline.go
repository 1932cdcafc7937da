// Package pipeline runs mechanisms over a market with caching, logging and
// rendering, so that the CLI and the HTTP server behave the same way.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Solve(ctx, m, pipeline.Options{
//	    Mechanisms: []string{"da", "ttc"},
//	    Trace:      true,
//	    Formats:    []string{"svg"},
//	})
//	da := result.Matchings["da"]
//	svg := result.Artifacts["da.svg"]
//
// Mechanisms run concurrently; each result is cached under the market's
// content hash, so solving the same market twice reads the second result
// from the cache.
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lnsongxf/gametheory/pkg/cache"
	"github.com/lnsongxf/gametheory/pkg/errors"
	pkgio "github.com/lnsongxf/gametheory/pkg/io"
	"github.com/lnsongxf/gametheory/pkg/market"
	"github.com/lnsongxf/gametheory/pkg/mechanism"
	"github.com/lnsongxf/gametheory/pkg/render"
)

// ValidFormats is the set of supported artifact formats.
var ValidFormats = map[string]bool{
	render.FormatDOT: true,
	render.FormatSVG: true,
}

// CyclesArtifact names the Top Trading Cycles trace diagram in
// [Result.Artifacts].
const CyclesArtifact = "ttc-cycles"

// Options configures a solve.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Mechanisms to run, by registry name or alias. Empty means all.
	Mechanisms []string `json:"mechanisms,omitempty"`
	// Trace records the Top Trading Cycles trace when ttc is selected.
	Trace bool `json:"trace,omitempty"`
	// Refresh ignores cached matchings. Fresh results are still cached.
	Refresh bool `json:"refresh,omitempty"`

	// Formats lists the artifact formats to render. Empty renders nothing.
	Formats []string `json:"formats,omitempty"`
	// Ranks labels rendered assignment edges with preference ranks.
	Ranks bool `json:"ranks,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	selected  []mechanism.Mechanism
	validated bool
}

// Result contains the outputs of a solve.
type Result struct {
	// ID identifies this solve; stored problems reuse it.
	ID string
	// MarketHash is the content hash used in cache keys.
	MarketHash string

	Market    *market.Market
	Matchings map[string]*market.Matching
	// Trace holds the cleared cycles when Options.Trace was set.
	Trace []mechanism.Cycle
	// Artifacts are keyed "<mechanism>.<format>", plus
	// "ttc-cycles.<format>" for the trace.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains solve statistics.
type Stats struct {
	Students      int
	Schools       int
	OutsideOption bool
	Runs          map[string]RunStats
	Total         time.Duration
}

// RunStats describes one mechanism's matching.
type RunStats struct {
	Duration      time.Duration
	Unassigned    int
	BlockingPairs int
}

// CacheInfo tracks which results came from the cache.
type CacheInfo struct {
	Matchings map[string]bool
	TraceHit  bool
	RenderHit bool
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults resolves mechanism names and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	selected, err := mechanism.Parse(o.Mechanisms)
	if err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.selected = selected
	o.Mechanisms = make([]string, len(selected))
	for i, mech := range selected {
		o.Mechanisms[i] = mech.Name()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Selected returns the resolved mechanisms. Call ValidateAndSetDefaults first.
func (o *Options) Selected() []mechanism.Mechanism {
	return o.selected
}

// WantsTrace reports whether the Top Trading Cycles trace should be
// recorded.
func (o *Options) WantsTrace() bool {
	return o.Trace && slices.Contains(o.Mechanisms, mechanism.NameTopTradingCycles)
}

// ArtifactKeyOpts returns cache key options for one artifact.
func (o *Options) ArtifactKeyOpts(name, format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Mechanism: name,
		Format:    format,
		Cycles:    name == CyclesArtifact,
		Ranks:     o.Ranks && name != CyclesArtifact,
	}
}

// ArtifactName returns the key of an artifact in [Result.Artifacts].
func ArtifactName(name, format string) string {
	return name + "." + format
}

// SplitArtifactName reverses [ArtifactName].
func SplitArtifactName(artifact string) (name, format string, ok bool) {
	i := strings.LastIndexByte(artifact, '.')
	if i <= 0 || i == len(artifact)-1 {
		return "", "", false
	}
	return artifact[:i], artifact[i+1:], true
}

// Problem returns the market and matchings as a persistable document.
func (r *Result) Problem() *pkgio.Problem {
	return &pkgio.Problem{Market: r.Market, Matchings: r.Matchings}
}

// MarketHash returns the content hash of a market.
func MarketHash(m *market.Market) (string, error) {
	return cache.HashJSON(m)
}
