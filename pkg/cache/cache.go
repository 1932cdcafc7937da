// Package cache stores computed matchings and rendered artifacts.
//
// A [Cache] is a byte store with per-entry TTLs. Three backends exist:
// [FileCache] for the CLI, [RedisCache] for the HTTP server and [NullCache]
// to disable caching. Keys come from a [Keyer] and always embed the market's
// content hash, so a hit is safe to reuse: mechanisms are deterministic
// functions of the market.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with expiry.
type Cache interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl <= 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Entry lifetimes. Results never go stale, so these only bound storage.
const (
	TTLMatching = 30 * 24 * time.Hour
	TTLTrace    = 30 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// NullCache misses on every read and drops every write. It backs
// --no-cache runs and the "none" backend.
type NullCache struct{}

// NewNullCache returns a NullCache.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error { return nil }
func (NullCache) Close() error { return nil }

var _ Cache = NullCache{}
