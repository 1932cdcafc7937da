package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lnsongxf/gametheory/pkg/buildinfo"
	"github.com/lnsongxf/gametheory/pkg/cache"
	"github.com/lnsongxf/gametheory/pkg/config"
	"github.com/lnsongxf/gametheory/pkg/store"
)

func TestParseList(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"da", "da"},
		{"da, ttc", "da|ttc"},
		{" ,da,,boston, ", "da|boston"},
	}
	for _, tt := range tests {
		if got := strings.Join(parseList(tt.in), "|"); got != tt.want {
			t.Errorf("parseList(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMechanismsOrDefault(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.Config.Solve.Mechanisms = []string{"ttc"}

	if got := c.mechanismsOrDefault(""); len(got) != 1 || got[0] != "ttc" {
		t.Errorf("empty flag should use config, got %v", got)
	}
	if got := c.mechanismsOrDefault("da,boston"); len(got) != 2 || got[0] != "da" {
		t.Errorf("flag should win over config, got %v", got)
	}
}

func TestNewCacheBackends(t *testing.T) {
	ctx := context.Background()
	c := New(io.Discard, LogInfo)

	c.Config.Cache.Backend = config.BackendNone
	cc, err := c.newCache(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cc.(cache.NullCache); !ok {
		t.Errorf("backend none: got %T, want NullCache", cc)
	}

	c.Config.Cache.Backend = config.BackendFile
	c.Config.Cache.Dir = t.TempDir()
	cc, err = c.newCache(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if fc, ok := cc.(*cache.FileCache); !ok || fc.Dir() != c.Config.Cache.Dir {
		t.Errorf("backend file: got %T", cc)
	}

	cc, err = c.newCache(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cc.(cache.NullCache); !ok {
		t.Errorf("--no-cache: got %T, want NullCache", cc)
	}
}

func TestNewRunnerScope(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.Config.Cache.Backend = config.BackendNone

	r, err := c.newRunner(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.Keyer.(cache.DefaultKeyer); !ok {
		t.Errorf("unscoped runner keyer = %T, want DefaultKeyer", r.Keyer)
	}

	c.Config.Cache.Scope = "staging"
	if r, err = c.newRunner(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if key := r.Keyer.MatchingKey("abc", "da"); !strings.HasPrefix(key, "staging:") {
		t.Errorf("scoped key = %q, want staging: prefix", key)
	}
}

func TestNewStoreBackends(t *testing.T) {
	ctx := context.Background()
	c := New(io.Discard, LogInfo)

	c.Config.Store.Backend = config.BackendNone
	st, err := c.newStore(ctx)
	if err != nil || st != nil {
		t.Errorf("backend none: got %v, %v; want nil, nil", st, err)
	}
	if _, err := c.requireStore(ctx); err != errNoStore {
		t.Errorf("requireStore with no store = %v, want errNoStore", err)
	}

	c.Config.Store.Backend = config.BackendFile
	c.Config.Store.Dir = t.TempDir()
	st, err = c.newStore(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if fs, ok := st.(*store.FileStore); !ok || fs.Path() != c.Config.Store.Dir {
		t.Errorf("backend file: got %T", st)
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	want := []string{"solve", "generate", "render", "browse", "serve", "store", "cache", "config", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestVersionFlag(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})

	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), buildinfo.Version) {
		t.Errorf("--version output %q should contain %q", out.String(), buildinfo.Version)
	}
}

// testEnv writes a config file that keeps the cache and store under a
// temporary directory.
func testEnv(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	cfgPath = filepath.Join(dir, "config.toml")
	cfg := fmt.Sprintf("[cache]\ndir = '%s'\n\n[store]\ndir = '%s'\n",
		filepath.Join(dir, "cache"), filepath.Join(dir, "store"))
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, cfgPath
}

func run(t *testing.T, cfgPath string, args ...string) string {
	t.Helper()
	root := New(io.Discard, LogInfo).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--config", cfgPath))
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestGenerateSolveSave(t *testing.T) {
	dir, cfgPath := testEnv(t)
	marketDir := filepath.Join(dir, "market")
	outDir := filepath.Join(dir, "out")

	run(t, cfgPath, "generate", "--schools", "3", "--students", "12", "--seed", "7", "-o", marketDir)
	run(t, cfgPath, "solve", "--dir", marketDir, "-o", outDir, "--format", "dot", "--trace", "--save")

	for _, name := range []string{"da_match_student.txt", "boston_match_school.txt", "ttc.dot", "ttc-cycles.dot"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}

	fs, err := store.NewFileStore(filepath.Join(dir, "store"))
	if err != nil {
		t.Fatal(err)
	}
	summaries, err := fs.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 1 || summaries[0].Students != 12 {
		t.Fatalf("store should hold the solved problem, got %+v", summaries)
	}

	run(t, cfgPath, "store", "delete", summaries[0].ID)
	if summaries, _ = fs.List(context.Background()); len(summaries) != 0 {
		t.Errorf("store delete left %d problems", len(summaries))
	}

	run(t, cfgPath, "cache", "clear")
	if got := strings.TrimSpace(run(t, cfgPath, "cache", "path")); got != filepath.Join(dir, "cache") {
		t.Errorf("cache path = %q", got)
	}
}

func TestConfigCommands(t *testing.T) {
	_, cfgPath := testEnv(t)

	if got := strings.TrimSpace(run(t, cfgPath, "config", "path")); got != cfgPath {
		t.Errorf("config path = %q, want %q", got, cfgPath)
	}

	shown := run(t, cfgPath, "config", "show")
	cfg, err := config.Parse(shown)
	if err != nil {
		t.Fatalf("config show output does not parse: %v\n%s", err, shown)
	}
	if !strings.HasSuffix(cfg.Store.Dir, "store") {
		t.Errorf("config show lost store.dir: %q", cfg.Store.Dir)
	}
}

func TestSolveRequiresMarket(t *testing.T) {
	_, cfgPath := testEnv(t)
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"solve", "--config", cfgPath})

	if err := root.Execute(); err == nil {
		t.Error("solve without a market should fail")
	}
}
