package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lnsongxf/gametheory/pkg/cache"
	"github.com/lnsongxf/gametheory/pkg/market"
	"github.com/lnsongxf/gametheory/pkg/mechanism"
	"github.com/lnsongxf/gametheory/pkg/observability"
	"github.com/lnsongxf/gametheory/pkg/render"
)

// Runner encapsulates solving with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger; it doesn't store
// results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Solve runs the selected mechanisms concurrently, records the trace and
// renders artifacts as requested.
func (r *Runner) Solve(ctx context.Context, m *market.Market, opts Options) (_ *Result, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	start := time.Now()
	hash, err := MarketHash(m)
	if err != nil {
		return nil, err
	}
	result := &Result{
		ID:         uuid.NewString(),
		MarketHash: hash,
		Market:     m,
		Matchings:  make(map[string]*market.Matching),
		Artifacts:  make(map[string][]byte),
		Stats: Stats{
			Students:      m.NumStudents(),
			Schools:       m.RealSchools(),
			OutsideOption: m.HasOutsideOption(),
			Runs:          make(map[string]RunStats),
		},
		CacheInfo: CacheInfo{Matchings: make(map[string]bool)},
	}

	id := result.ID
	hooks := observability.Solve()
	hooks.OnSolveStart(ctx, id, opts.Mechanisms)
	defer func() {
		hooks.OnSolveComplete(ctx, id, time.Since(start), err)
	}()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, mech := range opts.Selected() {
		g.Go(func() error {
			runStart := time.Now()
			mt, hit, err := r.MatchingWithCacheInfo(gctx, m, hash, mech, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", mech.Name(), err)
			}
			stats := RunStats{
				Duration:      time.Since(runStart),
				Unassigned:    len(mt.Unassigned()),
				BlockingPairs: len(market.BlockingPairs(m, mt)),
			}
			opts.Logger.Info("solved",
				"mechanism", mech.Name(),
				"unassigned", stats.Unassigned,
				"blocking_pairs", stats.BlockingPairs,
				"cached", hit,
				"duration", stats.Duration)

			mu.Lock()
			defer mu.Unlock()
			result.Matchings[mech.Name()] = mt
			result.Stats.Runs[mech.Name()] = stats
			result.CacheInfo.Matchings[mech.Name()] = hit
			return nil
		})
	}
	if opts.WantsTrace() {
		g.Go(func() error {
			trace, hit, err := r.TraceWithCacheInfo(gctx, m, hash, opts)
			if err != nil {
				return fmt.Errorf("%s trace: %w", mechanism.NameTopTradingCycles, err)
			}
			opts.Logger.Debug("recorded trace", "cycles", len(trace), "cached", hit)
			mu.Lock()
			defer mu.Unlock()
			result.Trace, result.CacheInfo.TraceHit = trace, hit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(opts.Formats) > 0 {
		artifacts, hit, err := r.RenderWithCacheInfo(ctx, result, opts)
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		result.Artifacts, result.CacheInfo.RenderHit = artifacts, hit
	}

	result.Stats.Total = time.Since(start)
	return result, nil
}

// MatchingWithCacheInfo runs one mechanism, consulting the cache first, and
// reports whether the matching came from the cache.
func (r *Runner) MatchingWithCacheInfo(ctx context.Context, m *market.Market, hash string, mech mechanism.Mechanism, opts Options) (*market.Matching, bool, error) {
	r.applyLogger(&opts)
	key := r.Keyer.MatchingKey(hash, mech.Name())

	if !opts.Refresh {
		if data, ok := r.lookup(ctx, key, "matching", opts.Logger); ok {
			var mt market.Matching
			if err := json.Unmarshal(data, &mt); err == nil {
				if attached, err := market.Attach(m, &mt); err == nil {
					return attached, true, nil
				}
			}
			// stale or corrupt entry, recompute
			opts.Logger.Debug("discarding cached matching", "mechanism", mech.Name())
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	hooks := observability.Solve()
	hooks.OnMechanismStart(ctx, mech.Name(), m.NumStudents(), m.NumSchools())
	start := time.Now()
	mt, err := mech.Run(m)
	unassigned := 0
	if mt != nil {
		unassigned = len(mt.Unassigned())
	}
	hooks.OnMechanismComplete(ctx, mech.Name(), unassigned, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(mt); err == nil {
		r.store(ctx, key, "matching", data, cache.TTLMatching, opts.Logger)
	}
	return mt, false, nil
}

// TraceWithCacheInfo records the Top Trading Cycles trace, consulting the
// cache first.
func (r *Runner) TraceWithCacheInfo(ctx context.Context, m *market.Market, hash string, opts Options) ([]mechanism.Cycle, bool, error) {
	r.applyLogger(&opts)
	key := r.Keyer.TraceKey(hash)

	if !opts.Refresh {
		if data, ok := r.lookup(ctx, key, "trace", opts.Logger); ok {
			var trace []mechanism.Cycle
			if err := json.Unmarshal(data, &trace); err == nil {
				return trace, true, nil
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	_, trace, err := mechanism.TopTradingCycles{}.RunWithTrace(m)
	if err != nil {
		return nil, false, err
	}
	if data, err := json.Marshal(trace); err == nil {
		r.store(ctx, key, "trace", data, cache.TTLTrace, opts.Logger)
	}
	return trace, false, nil
}

// RenderWithCacheInfo renders every matching of result, and the trace when
// present, in every requested format. It reports whether all artifacts came
// from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, result *Result, opts Options) (map[string][]byte, bool, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	names := make([]string, 0, len(result.Matchings)+1)
	for name := range result.Matchings {
		names = append(names, name)
	}
	slices.Sort(names)
	if result.Trace != nil {
		names = append(names, CyclesArtifact)
	}

	artifacts := make(map[string][]byte)
	allCached := true
	for _, name := range names {
		dot := ""
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(result.MarketHash, opts.ArtifactKeyOpts(name, format))
			if data, ok := r.lookup(ctx, key, "artifact", opts.Logger); ok {
				artifacts[ArtifactName(name, format)] = data
				continue
			}
			allCached = false

			if dot == "" {
				dot = r.dot(result, name, opts)
			}
			data, err := render.Render(ctx, dot, format)
			if err != nil {
				return nil, false, fmt.Errorf("%s: %w", ArtifactName(name, format), err)
			}
			artifacts[ArtifactName(name, format)] = data
			r.store(ctx, key, "artifact", data, cache.TTLArtifact, opts.Logger)
		}
	}
	return artifacts, allCached, nil
}

func (r *Runner) dot(result *Result, name string, opts Options) string {
	if name == CyclesArtifact {
		return render.CyclesDOT(result.Market, result.Trace, render.Options{Title: "Top Trading Cycles"})
	}
	title := name
	if mech, err := mechanism.ByName(name); err == nil {
		title = mech.Title()
	}
	return render.MatchingDOT(result.Market, result.Matchings[name], render.Options{Title: title, Ranks: opts.Ranks})
}

// lookup reads key from the cache. Read errors count as misses.
func (r *Runner) lookup(ctx context.Context, key, keyType string, logger *log.Logger) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("cache read failed", "type", keyType, "err", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

// store writes to the cache. Write errors are logged and otherwise ignored.
func (r *Runner) store(ctx context.Context, key, keyType string, data []byte, ttl time.Duration, logger *log.Logger) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		logger.Warn("cache write failed", "type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
