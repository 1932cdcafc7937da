// Package config loads the schoolchoice TOML configuration.
//
// The file lives at $XDG_CONFIG_HOME/schoolchoice/config.toml (or
// ~/.config/schoolchoice/config.toml) unless a path is given explicitly.
// A missing default file is not an error: every field has a default.
//
//	[cache]
//	backend = "file"      # file, redis or none
//	dir = ""              # defaults to $XDG_CACHE_HOME/schoolchoice
//	scope = ""            # optional key prefix
//
//	[redis]
//	addr = "localhost:6379"
//	prefix = "schoolchoice:"
//
//	[store]
//	backend = "file"      # file, mongo or none
//	uri = "mongodb://localhost:27017"
//
//	[server]
//	addr = ":8080"
//
//	[solve]
//	mechanisms = ["da", "boston", "ttc"]
//	outside = false
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lnsongxf/gametheory/pkg/cache"
	"github.com/lnsongxf/gametheory/pkg/errors"
	"github.com/lnsongxf/gametheory/pkg/mechanism"
	"github.com/lnsongxf/gametheory/pkg/store"
)

// AppName names the config, cache and data directories.
const AppName = "schoolchoice"

// Backend names.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Config is the full configuration file.
type Config struct {
	Cache  CacheConfig  `toml:"cache"`
	Redis  RedisConfig  `toml:"redis"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
	Solve  SolveConfig  `toml:"solve"`
}

// CacheConfig selects the result cache.
type CacheConfig struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
	// Scope prefixes every cache key, so deployments sharing one cache
	// never read each other's entries.
	Scope string `toml:"scope"`
}

// RedisConfig configures the redis cache backend.
type RedisConfig struct {
	Addr     string   `toml:"addr"`
	Password string   `toml:"password"`
	DB       int      `toml:"db"`
	Prefix   string   `toml:"prefix"`
	Timeout  Duration `toml:"timeout"`
}

// StoreConfig selects where solved problems are kept.
type StoreConfig struct {
	Backend    string   `toml:"backend"`
	Dir        string   `toml:"dir"`
	URI        string   `toml:"uri"`
	Database   string   `toml:"database"`
	Collection string   `toml:"collection"`
	Timeout    Duration `toml:"timeout"`
}

// ServerConfig configures `schoolchoice serve`.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `toml:"max_body_bytes"`
}

// SolveConfig holds defaults for solve commands and requests.
type SolveConfig struct {
	Mechanisms []string `toml:"mechanisms"`
	Outside    bool     `toml:"outside"`
}

// Duration is a time.Duration written as a string such as "5s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	redis := cache.DefaultRedisConfig()
	mongo := store.DefaultMongoConfig()
	return Config{
		Cache: CacheConfig{Backend: BackendFile},
		Redis: RedisConfig{
			Addr:    redis.Addr,
			DB:      redis.DB,
			Prefix:  redis.Prefix,
			Timeout: Duration{redis.DialTimeout},
		},
		Store: StoreConfig{
			Backend:    BackendFile,
			URI:        mongo.URI,
			Database:   mongo.Database,
			Collection: mongo.Collection,
			Timeout:    Duration{mongo.Timeout},
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: Duration{10 * time.Second},
			MaxBodyBytes:    8 << 20,
		},
		Solve: SolveConfig{Mechanisms: mechanism.Names()},
	}
}

// Load reads the file at path over the defaults. An empty path means
// [DefaultPath], which may be absent.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidInput, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks backend names and mechanism names.
func (c *Config) Validate() error {
	if err := oneOf("cache.backend", c.Cache.Backend, BackendFile, BackendRedis, BackendNone); err != nil {
		return err
	}
	if err := oneOf("store.backend", c.Store.Backend, BackendFile, BackendMongo, BackendNone); err != nil {
		return err
	}
	if _, err := mechanism.Parse(c.Solve.Mechanisms); err != nil {
		return fmt.Errorf("solve.mechanisms: %w", err)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "server.max_body_bytes must be positive")
	}
	return nil
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidInput, "%s: invalid value %q (must be one of: %s)",
		key, value, strings.Join(allowed, ", "))
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// CacheDir returns the file cache directory: the configured one, or the
// XDG cache directory.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// StoreDir returns the file store directory: the configured one, or
// [store.DefaultDir].
func (c Config) StoreDir() (string, error) {
	if c.Store.Dir != "" {
		return c.Store.Dir, nil
	}
	return store.DefaultDir()
}

// RedisCacheConfig converts the [redis] section.
func (c Config) RedisCacheConfig() cache.RedisConfig {
	cfg := cache.DefaultRedisConfig()
	cfg.Addr = c.Redis.Addr
	cfg.Password = c.Redis.Password
	cfg.DB = c.Redis.DB
	cfg.Prefix = c.Redis.Prefix
	if c.Redis.Timeout.Duration > 0 {
		cfg.DialTimeout = c.Redis.Timeout.Duration
	}
	return cfg
}

// MongoConfig converts the mongo fields of the [store] section.
func (c Config) MongoConfig() store.MongoConfig {
	return store.MongoConfig{
		URI:        c.Store.URI,
		Database:   c.Store.Database,
		Collection: c.Store.Collection,
		Timeout:    c.Store.Timeout.Duration,
	}
}

// DefaultPath returns the config file location using the XDG standard
// (~/.config/schoolchoice/config.toml).
func DefaultPath() (string, error) {
	dir, err := xdgDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, AppName), nil
}
