package io

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/lnsongxf/gametheory/pkg/errors"
	"github.com/lnsongxf/gametheory/pkg/market"
)

// Problem is a market together with the matchings computed for it, keyed by
// mechanism name.
type Problem struct {
	Market    *market.Market
	Matchings map[string]*market.Matching
}

type problemJSON struct {
	Market    *market.Market              `json:"market"`
	Matchings map[string]*market.Matching `json:"matchings,omitempty"`
}

// Mechanisms returns the names of the stored matchings in sorted order.
func (p *Problem) Mechanisms() []string {
	return slices.Sorted(maps.Keys(p.Matchings))
}

// Equal reports whether both problems hold equal markets and matchings.
func (p *Problem) Equal(other *Problem) bool {
	if !p.Market.Equal(other.Market) || len(p.Matchings) != len(other.Matchings) {
		return false
	}
	for name, mt := range p.Matchings {
		o, ok := other.Matchings[name]
		if !ok || !mt.Equal(o) {
			return false
		}
	}
	return true
}

// WriteJSON encodes p as indented JSON and writes it to w.
func WriteJSON(p *Problem, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(problemJSON{Market: p.Market, Matchings: p.Matchings}); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a Problem from r. The market is validated and every
// matching is checked against it.
func ReadJSON(r io.Reader) (*Problem, error) {
	var data problemJSON
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode")
	}
	if data.Market == nil {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "missing market")
	}

	p := &Problem{Market: data.Market, Matchings: make(map[string]*market.Matching, len(data.Matchings))}
	for name, mt := range data.Matchings {
		if mt == nil {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "matching %s: null", name)
		}
		attached, err := market.Attach(data.Market, mt)
		if err != nil {
			return nil, fmt.Errorf("matching %s: %w", name, err)
		}
		p.Matchings[name] = attached
	}
	return p, nil
}

// ExportJSON writes p to a JSON file at path.
func ExportJSON(p *Problem, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(p, f)
}

// ImportJSON reads a Problem from the JSON file at path.
func ImportJSON(path string) (*Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
