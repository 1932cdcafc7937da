package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Keyer derives cache keys from a market hash and what was computed
// from it.
type Keyer interface {
	MatchingKey(marketHash, mechanism string) string
	TraceKey(marketHash string) string
	ArtifactKey(marketHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts holds the render options that change an artifact.
type ArtifactKeyOpts struct {
	Mechanism string `json:"mechanism"`
	Format    string `json:"format"`
	Cycles    bool   `json:"cycles,omitempty"`
	Ranks     bool   `json:"ranks,omitempty"`
}

// DefaultKeyer builds readable keys such as "matching:<hash>:da" or
// "artifact:<hash>:ttc.svg+ranks", which keeps redis SCAN output legible.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) MatchingKey(marketHash, mechanism string) string {
	return "matching:" + marketHash + ":" + mechanism
}

func (DefaultKeyer) TraceKey(marketHash string) string {
	return "trace:" + marketHash
}

func (DefaultKeyer) ArtifactKey(marketHash string, opts ArtifactKeyOpts) string {
	var b strings.Builder
	b.WriteString("artifact:")
	b.WriteString(marketHash)
	b.WriteString(":")
	b.WriteString(opts.Mechanism)
	b.WriteString(".")
	b.WriteString(opts.Format)
	if opts.Cycles {
		b.WriteString("+cycles")
	}
	if opts.Ranks {
		b.WriteString("+ranks")
	}
	return b.String()
}

// ScopedKeyer prefixes every key of an inner Keyer.
//
//	keyer := NewScopedKeyer(nil, "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or [DefaultKeyer] when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) MatchingKey(marketHash, mechanism string) string {
	return k.prefix + k.inner.MatchingKey(marketHash, mechanism)
}

func (k *ScopedKeyer) TraceKey(marketHash string) string {
	return k.prefix + k.inner.TraceKey(marketHash)
}

func (k *ScopedKeyer) ArtifactKey(marketHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(marketHash, opts)
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashJSON hashes the JSON encoding of v. Markets encode canonically, so
// equal markets hash equally.
func HashJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return Hash(data), nil
}
