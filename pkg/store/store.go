// Package store persists solved problems: a market together with the
// matchings computed for it.
//
// Two backends are provided:
//   - file: one JSON document per problem, for the CLI
//   - mongo: a MongoDB collection, for servers shared between users
//
// # Usage
//
//	st, err := store.NewFileStore("")  // Uses ~/.config/schoolchoice/problems/
//	if err != nil {
//	    return err
//	}
//	p := store.NewProblem(m, matchings)
//	if err := st.Save(ctx, p); err != nil {
//	    return err
//	}
//	p, err = st.Load(ctx, p.ID)
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // No such problem
//	}
package store

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lnsongxf/gametheory/pkg/errors"
	pkgio "github.com/lnsongxf/gametheory/pkg/io"
	"github.com/lnsongxf/gametheory/pkg/market"
)

// Problem is a stored market and its matchings, keyed by mechanism name.
type Problem struct {
	ID        string
	CreatedAt time.Time
	Market    *market.Market
	Matchings map[string]*market.Matching
}

type problemJSON struct {
	ID        string                      `json:"id"`
	CreatedAt time.Time                   `json:"created_at"`
	Market    *market.Market              `json:"market"`
	Matchings map[string]*market.Matching `json:"matchings,omitempty"`
}

// Summary describes a stored problem without its lists.
type Summary struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Students   int       `json:"students"`
	Schools    int       `json:"schools"`
	Mechanisms []string  `json:"mechanisms"`
}

// Store is the interface for problem storage backends.
type Store interface {
	// Save inserts or replaces the problem with p.ID.
	Save(ctx context.Context, p *Problem) error

	// Load returns the problem with the given ID, or a NOT_FOUND error.
	Load(ctx context.Context, id string) (*Problem, error)

	// List returns summaries of every stored problem, newest first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes a problem. Missing problems return a NOT_FOUND error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// NewProblem wraps a market and its matchings with a fresh ID.
func NewProblem(m *market.Market, matchings map[string]*market.Matching) *Problem {
	return NewProblemWithID(uuid.NewString(), m, matchings)
}

// NewProblemWithID is NewProblem with a caller-chosen ID, such as a
// pipeline run ID.
func NewProblemWithID(id string, m *market.Market, matchings map[string]*market.Matching) *Problem {
	if matchings == nil {
		matchings = make(map[string]*market.Matching)
	}
	return &Problem{
		ID:        id,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		Market:    m,
		Matchings: matchings,
	}
}

// FromDocument converts an [pkgio.Problem] read from a JSON document.
func FromDocument(doc *pkgio.Problem) *Problem {
	return NewProblem(doc.Market, doc.Matchings)
}

// Document returns p without its storage metadata.
func (p *Problem) Document() *pkgio.Problem {
	return &pkgio.Problem{Market: p.Market, Matchings: p.Matchings}
}

// Summary describes p.
func (p *Problem) Summary() Summary {
	return Summary{
		ID:         p.ID,
		CreatedAt:  p.CreatedAt,
		Students:   p.Market.NumStudents(),
		Schools:    p.Market.RealSchools(),
		Mechanisms: slices.Sorted(maps.Keys(p.Matchings)),
	}
}

// MarshalJSON encodes p with its market and matchings.
func (p *Problem) MarshalJSON() ([]byte, error) {
	return json.Marshal(problemJSON{
		ID:        p.ID,
		CreatedAt: p.CreatedAt,
		Market:    p.Market,
		Matchings: p.Matchings,
	})
}

// UnmarshalJSON decodes p and checks every matching against the market.
func (p *Problem) UnmarshalJSON(data []byte) error {
	var raw problemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Market == nil {
		return errors.New(errors.ErrCodeInvalidFormat, "problem %s: missing market", raw.ID)
	}
	matchings := make(map[string]*market.Matching, len(raw.Matchings))
	for name, mt := range raw.Matchings {
		if mt == nil {
			return errors.New(errors.ErrCodeInvalidFormat, "problem %s: matching %s: null", raw.ID, name)
		}
		attached, err := market.Attach(raw.Market, mt)
		if err != nil {
			return err
		}
		matchings[name] = attached
	}
	*p = Problem{ID: raw.ID, CreatedAt: raw.CreatedAt, Market: raw.Market, Matchings: matchings}
	return nil
}

// ValidateID rejects IDs that are empty or not safe as file names.
func ValidateID(id string) error {
	if id == "" || len(id) > 128 {
		return errors.New(errors.ErrCodeInvalidInput, "invalid problem id %q", id)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return errors.New(errors.ErrCodeInvalidInput, "invalid problem id %q", id)
		}
	}
	return nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "problem %s not found", id)
}

func sortSummaries(s []Summary) {
	slices.SortFunc(s, func(a, b Summary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
