package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var (
	errNetwork  = errors.New("network error")
	errNotFound = errors.New("not found")
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get after Set = %q, %v, %v; want a clean miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	h := Hash([]byte("hello"))
	if len(h) != 64 {
		t.Errorf("len(Hash) = %d, want 64", len(h))
	}
	if h != Hash([]byte("hello")) || h == Hash([]byte("world")) {
		t.Error("Hash should be deterministic and input-sensitive")
	}

	type market struct {
		Capacity []int `json:"capacity"`
	}
	a, err := HashJSON(market{Capacity: []int{1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := HashJSON(market{Capacity: []int{2, 1}})
	if a == b {
		t.Error("HashJSON should depend on slice order")
	}
	if _, err := HashJSON(make(chan int)); err == nil {
		t.Error("HashJSON of an unencodable value should fail")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	tests := []struct {
		got, want string
	}{
		{k.MatchingKey("h1", "da"), "matching:h1:da"},
		{k.TraceKey("h1"), "trace:h1"},
		{k.ArtifactKey("h1", ArtifactKeyOpts{Mechanism: "boston", Format: "svg"}), "artifact:h1:boston.svg"},
		{k.ArtifactKey("h1", ArtifactKeyOpts{Mechanism: "da", Format: "dot", Ranks: true}), "artifact:h1:da.dot+ranks"},
		{k.ArtifactKey("h1", ArtifactKeyOpts{Mechanism: "ttc-cycles", Format: "svg", Cycles: true}), "artifact:h1:ttc-cycles.svg+cycles"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("key = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "staging:")
	inner := NewDefaultKeyer()
	opts := ArtifactKeyOpts{Mechanism: "ttc", Format: "svg"}

	if got := scoped.MatchingKey("h", "da"); got != "staging:"+inner.MatchingKey("h", "da") {
		t.Errorf("MatchingKey = %q", got)
	}
	if got := scoped.TraceKey("h"); !strings.HasPrefix(got, "staging:trace:") {
		t.Errorf("TraceKey = %q", got)
	}
	if got := scoped.ArtifactKey("h", opts); got != "staging:"+inner.ArtifactKey("h", opts) {
		t.Errorf("ArtifactKey = %q", got)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("Get on empty cache should miss")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || !hit || string(data) != "value" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete of missing key should succeed: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("Expired entry should miss")
	}

	if err := c.Set(ctx, "forever", []byte("x"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("Entry without TTL should hit")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := os.WriteFile(c.path("key"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "key"); hit || err != nil {
		t.Errorf("Corrupt entry should be a clean miss, got hit=%v err=%v", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	for _, key := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, key, []byte(key), 0); err != nil {
			t.Fatalf("Set error: %v", err)
		}
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	entries, _ := os.ReadDir(filepath.Clean(dir))
	if len(entries) != 0 {
		t.Errorf("Clear should leave an empty directory, found %d entries", len(entries))
	}
}

func TestRedisCacheUnavailable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := DefaultRedisConfig()
	cfg.Addr = "127.0.0.1:1"
	cfg.DialTimeout = 100 * time.Millisecond
	_, err := NewRedisCache(ctx, cfg)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("NewRedisCache should fail with ErrUnavailable, got %v", err)
	}
}

func TestRedisCacheLive(t *testing.T) {
	addr := os.Getenv("SCHOOLCHOICE_TEST_REDIS")
	if addr == "" {
		t.Skip("SCHOOLCHOICE_TEST_REDIS not set")
	}
	ctx := context.Background()
	cfg := DefaultRedisConfig()
	cfg.Addr = addr
	cfg.Prefix = "schoolchoice-test:"
	c, err := NewRedisCache(ctx, cfg)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || !hit || string(data) != "value" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}
	if _, err := c.Clear(ctx); err != nil {
		t.Errorf("Clear error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("Get after Clear should miss")
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
	err := Retryable(errNetwork)
	if !IsRetryable(err) || !errors.Is(err, errNetwork) || err.Error() != errNetwork.Error() {
		t.Errorf("Retryable(errNetwork) = %v", err)
	}
	if IsRetryable(errNotFound) {
		t.Error("plain errors are not retryable")
	}
}

func TestBackoff(t *testing.T) {
	ctx := context.Background()
	b := Backoff{Attempts: 3, Delay: time.Millisecond}

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{"success", 0, nil, 1, nil},
		{"permanent", 5, errNotFound, 1, errNotFound},
		{"recovers", 2, Retryable(errNetwork), 3, nil},
		{"exhausted", 5, Retryable(errNetwork), 3, errNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := b.Do(ctx, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := DefaultBackoff.Do(ctx, func() error {
		return Retryable(errNetwork)
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRetryWithBackoffStopsOnSuccess(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("RetryWithBackoff = %v after %d calls", err, calls)
	}
}
