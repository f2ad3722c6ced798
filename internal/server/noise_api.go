package server

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/perlin2d/internal/noise"
)

// NoiseAPI exposes point evaluation and reseeding of a shared table.
type NoiseAPI struct {
	noise  *noise.Shared
	logger *slog.Logger
}

// NoiseValue is the body returned by the evaluate endpoint.
type NoiseValue struct {
	Seed  string  `json:"seed"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Value float64 `json:"value"`
}

// ReseedResponse is the body returned by the reseed endpoint.
type ReseedResponse struct {
	Seed    string `json:"seed"`
	Warning string `json:"warning,omitempty"`
}

// TableResponse is the body returned by the table endpoint.
type TableResponse struct {
	Seed   string `json:"seed"`
	Values []int  `json:"values"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewNoiseAPI(shared *noise.Shared, logger *slog.Logger) *NoiseAPI {
	return &NoiseAPI{noise: shared, logger: logger}
}

// EvaluateHandler serves GET ?x=&y=.
func (a *NoiseAPI) EvaluateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{"method not allowed"}, a.log())
			return
		}
		q := r.URL.Query()
		x, err := parseCoordinate(q.Get("x"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{"x: " + err.Error()}, a.log())
			return
		}
		y, err := parseCoordinate(q.Get("y"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{"y: " + err.Error()}, a.log())
			return
		}

		table, seed, seeded := a.noise.Snapshot()
		writeJSON(w, http.StatusOK, NoiseValue{
			Seed:  noise.SeedLabel(seed, seeded),
			X:     x,
			Y:     y,
			Value: noise.Evaluate(x, y, table),
		}, a.log())
	}
}

// ReseedHandler serves POST ?seed=. An empty seed restores the canonical
// table. A malformed seed also restores it and the response carries a
// warning, matching the command line behavior.
func (a *NoiseAPI) ReseedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{"method not allowed"}, a.log())
			return
		}

		raw := r.URL.Query().Get("seed")
		resp := ReseedResponse{}
		seed, ok := noise.ParseSeed(raw)
		if ok {
			a.noise.Reseed(seed)
		} else {
			a.noise.Reset()
			if strings.TrimSpace(raw) != "" {
				resp.Warning = fmt.Sprintf("invalid seed %q, using the default table", raw)
				a.log().Warn("Invalid seed; using default table", "seed", raw)
			}
		}
		resp.Seed = a.noise.Label()
		a.log().Info("Reseeded noise table", "seed", resp.Seed)
		writeJSON(w, http.StatusOK, resp, a.log())
	}
}

// TableHandler serves the first half of the current permutation table.
func (a *NoiseAPI) TableHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		table, seed, seeded := a.noise.Snapshot()
		vals := table.Values()
		out := make([]int, len(vals))
		for i, v := range vals {
			out[i] = int(v)
		}
		writeJSON(w, http.StatusOK, TableResponse{Seed: noise.SeedLabel(seed, seeded), Values: out}, a.log())
	}
}

func (a *NoiseAPI) log() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.Default()
}

func parseCoordinate(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("missing")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("must be finite")
	}
	return v, nil
}
