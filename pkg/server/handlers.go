package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lnsongxf/gametheory/pkg/buildinfo"
	"github.com/lnsongxf/gametheory/pkg/errors"
	"github.com/lnsongxf/gametheory/pkg/market"
	"github.com/lnsongxf/gametheory/pkg/mechanism"
	"github.com/lnsongxf/gametheory/pkg/pipeline"
	"github.com/lnsongxf/gametheory/pkg/store"
)

// SolveRequest is the body of POST /v1/solve.
type SolveRequest struct {
	Market     *market.Market `json:"market"`
	Mechanisms []string       `json:"mechanisms,omitempty"`
	// Outside forces the outside option even when seats suffice.
	Outside bool     `json:"outside,omitempty"`
	Trace   bool     `json:"trace,omitempty"`
	Formats []string `json:"formats,omitempty"`
	Ranks   bool     `json:"ranks,omitempty"`
	Refresh bool     `json:"refresh,omitempty"`
}

// SolveResponse is the body returned by POST /v1/solve.
type SolveResponse struct {
	ID         string                      `json:"id"`
	MarketHash string                      `json:"market_hash"`
	Matchings  map[string]*market.Matching `json:"matchings"`
	Stats      map[string]RunStats         `json:"stats"`
	Trace      []mechanism.Cycle           `json:"trace,omitempty"`
	// Artifacts hold rendered DOT or SVG text keyed "<mechanism>.<format>".
	Artifacts map[string]string `json:"artifacts,omitempty"`
	Stored    bool              `json:"stored"`
}

// RunStats summarizes one mechanism's matching.
type RunStats struct {
	Unassigned    int     `json:"unassigned"`
	BlockingPairs int     `json:"blocking_pairs"`
	Cached        bool    `json:"cached"`
	DurationMS    float64 `json:"duration_ms"`
}

type mechanismInfo struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

type problemList struct {
	Problems []store.Summary `json:"problems"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleMechanisms(w http.ResponseWriter, r *http.Request) {
	all := mechanism.All()
	infos := make([]mechanismInfo, len(all))
	for i, mech := range all {
		infos[i] = mechanismInfo{Name: mech.Name(), Title: mech.Title()}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := decodeJSON(w, r, s.maxBody, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Market == nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "missing market"))
		return
	}

	m := req.Market
	if (req.Outside || s.outside) && !m.OutsideForced() {
		capacity, priority, preference := m.Input()
		forced, err := market.New(capacity, priority, preference, market.WithOutsideOption())
		if err != nil {
			writeError(w, err)
			return
		}
		m = forced
	}

	mechanisms := req.Mechanisms
	if len(mechanisms) == 0 {
		mechanisms = s.mechanisms
	}
	opts := pipeline.Options{
		Mechanisms: mechanisms,
		Trace:      req.Trace,
		Refresh:    req.Refresh,
		Formats:    req.Formats,
		Ranks:      req.Ranks,
		Logger:     s.logger,
	}
	result, err := s.runner.Solve(r.Context(), m, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := SolveResponse{
		ID:         result.ID,
		MarketHash: result.MarketHash,
		Matchings:  result.Matchings,
		Stats:      make(map[string]RunStats, len(result.Stats.Runs)),
		Trace:      result.Trace,
	}
	for name, run := range result.Stats.Runs {
		resp.Stats[name] = RunStats{
			Unassigned:    run.Unassigned,
			BlockingPairs: run.BlockingPairs,
			Cached:        result.CacheInfo.Matchings[name],
			DurationMS:    float64(run.Duration) / float64(time.Millisecond),
		}
	}
	if len(result.Artifacts) > 0 {
		resp.Artifacts = make(map[string]string, len(result.Artifacts))
		for name, data := range result.Artifacts {
			resp.Artifacts[name] = string(data)
		}
	}

	if s.store != nil {
		p := store.NewProblemWithID(result.ID, result.Market, result.Matchings)
		if err := s.store.Save(r.Context(), p); err != nil {
			s.logger.Warn("store problem failed", "id", result.ID, "err", err)
		} else {
			resp.Stored = true
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListProblems(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if summaries == nil {
		summaries = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, problemList{Problems: summaries})
}

func (s *Server) handleGetProblem(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProblem(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.GetCode(err) != "" {
			return err
		}
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request")
	}
	return nil
}
