package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/lnsongxf/gametheory/pkg/buildinfo"
	"github.com/lnsongxf/gametheory/pkg/cache"
	"github.com/lnsongxf/gametheory/pkg/config"
	"github.com/lnsongxf/gametheory/pkg/pipeline"
	"github.com/lnsongxf/gametheory/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
}

// New creates a new CLI instance with a default logger and the default
// configuration. The config file is read when a command runs.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Schoolchoice assigns students to schools",
		Long: `Schoolchoice assigns students to school seats with Deferred Acceptance,
the Boston mechanism and Top Trading Cycles, and compares the results.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/schoolchoice/config.toml)")

	// Register all subcommands
	root.AddCommand(c.solveCommand())
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.Debug("loaded config", "path", c.configPath, "cache", cfg.Cache.Backend, "store", cfg.Store.Backend)
	return nil
}

// =============================================================================
// Backend Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if scope := c.Config.Cache.Scope; scope != "" {
		keyer = cache.NewScopedKeyer(nil, scope+":")
	}
	return pipeline.NewRunner(cc, keyer, c.Logger), nil
}

// newCache opens the configured cache. An unreachable Redis degrades to no
// caching with a warning rather than failing the command.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, c.Config.RedisCacheConfig())
		if err != nil {
			c.Logger.Warn("redis cache unavailable, caching disabled", "addr", c.Config.Redis.Addr, "err", err)
			return cache.NewNullCache(), nil
		}
		return rc, nil
	default:
		dir, err := c.Config.CacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// newStore opens the configured problem store. It returns nil, nil when the
// store is disabled.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	switch c.Config.Store.Backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendMongo:
		return store.NewMongoStore(ctx, c.Config.MongoConfig())
	default:
		dir, err := c.Config.StoreDir()
		if err != nil {
			return nil, err
		}
		return store.NewFileStore(dir)
	}
}

// requireStore is newStore for commands that cannot work without one.
func (c *CLI) requireStore(ctx context.Context) (store.Store, error) {
	st, err := c.newStore(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, errNoStore
	}
	return st, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseList splits a comma-separated flag value, dropping empty entries.
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// mechanismsOrDefault returns the flag's mechanisms, or the configured
// defaults when the flag is empty.
func (c *CLI) mechanismsOrDefault(flag string) []string {
	if names := parseList(flag); len(names) > 0 {
		return names
	}
	return c.Config.Solve.Mechanisms
}
