// Package server serves noise tiles and point evaluations over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/perlin2d/internal/export"
	"github.com/MeKo-Tech/perlin2d/internal/noise"
	"github.com/MeKo-Tech/perlin2d/internal/pipeline"
	"github.com/MeKo-Tech/perlin2d/internal/raster"
	"github.com/MeKo-Tech/perlin2d/internal/tile"
)

type OnDemandTilesConfig struct {
	TilesDir                 string
	CacheControl             string
	Layout                   tile.Layout
	Raster                   raster.Options
	Export                   export.Options
	MaxConcurrentGenerations int
	GenerationTimeout        time.Duration
	GenerateMissing          bool
	DisableCache             bool
}

// OnDemandTiles serves tiles from TilesDir/<seed label>/, rendering missing
// ones from the shared table. A reseed switches to a new label directory, so
// cached tiles of an older table are never served for the current one.
type OnDemandTiles struct {
	noise   *noise.Shared
	logger  *slog.Logger
	sem     chan struct{}
	locks   sync.Map
	current atomic.Pointer[labeledGenerator]
	cfg     OnDemandTilesConfig

	activeRenders  atomic.Int32
	totalRendered  atomic.Int64
	totalFailed    atomic.Int64
	currentRenders sync.Map // tile key -> start time
	queuedRenders  atomic.Int32
}

type labeledGenerator struct {
	gen   *pipeline.Generator
	label string
}

// RenderStatus is the JSON body of the status endpoint.
type RenderStatus struct {
	Seed          string   `json:"seed"`
	CurrentTiles  []string `json:"current_tiles"`
	ActiveRenders int      `json:"active_renders"`
	QueuedRenders int      `json:"queued_renders"`
	MaxConcurrent int      `json:"max_concurrent"`
	TotalRendered int64    `json:"total_rendered"`
	TotalFailed   int64    `json:"total_failed"`
}

func NewOnDemandTiles(shared *noise.Shared, cfg OnDemandTilesConfig, logger *slog.Logger) (*OnDemandTiles, error) {
	if shared == nil {
		return nil, fmt.Errorf("shared noise table is required")
	}
	if cfg.TilesDir == "" {
		cfg.TilesDir = "./tiles"
	}
	if cfg.Layout.TileSize <= 0 {
		cfg.Layout.TileSize = 256
	}
	if cfg.Layout.BasePxPerGrid <= 0 {
		cfg.Layout.BasePxPerGrid = noise.DefaultPxPerGrid
	}
	if cfg.MaxConcurrentGenerations <= 0 {
		cfg.MaxConcurrentGenerations = 1
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 30 * time.Second
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}
	if err := cfg.Export.Validate(); err != nil {
		return nil, err
	}

	return &OnDemandTiles{
		noise:  shared,
		cfg:    cfg,
		logger: logger,
		sem:    make(chan struct{}, cfg.MaxConcurrentGenerations),
	}, nil
}

// Status returns a snapshot of render activity.
func (t *OnDemandTiles) Status() RenderStatus {
	var current []string
	t.currentRenders.Range(func(key, _ any) bool {
		current = append(current, key.(string))
		return true
	})
	sort.Strings(current)

	return RenderStatus{
		Seed:          t.noise.Label(),
		CurrentTiles:  current,
		ActiveRenders: int(t.activeRenders.Load()),
		QueuedRenders: int(t.queuedRenders.Load()),
		MaxConcurrent: t.cfg.MaxConcurrentGenerations,
		TotalRendered: t.totalRendered.Load(),
		TotalFailed:   t.totalFailed.Load(),
	}
}

// StatusHandler serves Status as JSON.
func (t *OnDemandTiles) StatusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, t.Status(), t.log())
	})
}

func (t *OnDemandTiles) Handler() http.Handler {
	return http.HandlerFunc(t.serveTile)
}

func (t *OnDemandTiles) serveTile(w http.ResponseWriter, r *http.Request) {
	coords, suffix, ok := parseTilePath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	gen, label, err := t.generator()
	if err != nil {
		t.log().Error("failed to init generator", "error", err)
		http.Error(w, "failed to init generator", http.StatusInternalServerError)
		return
	}
	fullPath := gen.TilePath(coords, suffix)
	key := label + "/" + coords.String() + suffix

	w.Header().Set("Cache-Control", t.cfg.CacheControl)

	if !t.cfg.DisableCache && fileExists(fullPath) {
		http.ServeFile(w, r, fullPath)
		return
	}
	if !t.cfg.GenerateMissing {
		http.Error(w, fmt.Sprintf("tile not found: %s", key), http.StatusNotFound)
		return
	}

	mu := t.getLock(key)
	mu.Lock()
	defer mu.Unlock()

	// Another request may have rendered the tile while we waited.
	if !t.cfg.DisableCache && fileExists(fullPath) {
		http.ServeFile(w, r, fullPath)
		return
	}

	t.queuedRenders.Add(1)
	select {
	case t.sem <- struct{}{}:
		t.queuedRenders.Add(-1)
		defer func() { <-t.sem }()
	case <-r.Context().Done():
		t.queuedRenders.Add(-1)
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), t.cfg.GenerationTimeout)
	defer cancel()

	start := time.Now()
	t.activeRenders.Add(1)
	t.currentRenders.Store(key, start)
	_, err = gen.Generate(ctx, coords, t.cfg.DisableCache, suffix)
	t.activeRenders.Add(-1)
	t.currentRenders.Delete(key)

	if err != nil {
		t.totalFailed.Add(1)
		t.log().Error("failed to generate tile", "coords", coords.String(), "suffix", suffix, "seed", label, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		http.Error(w, fmt.Sprintf("failed to generate tile %s: %v", key, err), status)
		return
	}
	t.totalRendered.Add(1)
	t.log().Info("tile generated on-demand", "coords", coords.String(), "suffix", suffix, "seed", label, "ms", time.Since(start).Milliseconds())

	http.ServeFile(w, r, fullPath)
}

// generator returns a generator for the current table, rebuilding it after
// a reseed.
func (t *OnDemandTiles) generator() (*pipeline.Generator, string, error) {
	table, seed, seeded := t.noise.Snapshot()
	label := noise.SeedLabel(seed, seeded)
	if cur := t.current.Load(); cur != nil && cur.label == label {
		return cur.gen, label, nil
	}

	g, err := pipeline.NewGenerator(table, t.cfg.Layout, filepath.Join(t.cfg.TilesDir, label), t.logger, pipeline.GeneratorOptions{
		Raster: t.cfg.Raster,
		Export: t.cfg.Export,
	})
	if err != nil {
		return nil, "", err
	}
	t.current.Store(&labeledGenerator{gen: g, label: label})
	return g, label, nil
}

func (t *OnDemandTiles) getLock(key string) *sync.Mutex {
	if v, ok := t.locks.Load(key); ok {
		return v.(*sync.Mutex)
	}
	mu := &sync.Mutex{}
	actual, _ := t.locks.LoadOrStore(key, mu)
	return actual.(*sync.Mutex)
}

func (t *OnDemandTiles) log() *slog.Logger {
	if t.logger != nil {
		return t.logger
	}
	return slog.Default()
}

// parseTilePath accepts /tiles/z{z}_x{x}_y{y}.png and the @2x variant.
func parseTilePath(requestPath string) (tile.Coords, string, bool) {
	if !strings.HasPrefix(requestPath, "/tiles/") {
		return tile.Coords{}, "", false
	}
	base := path.Base(requestPath)
	if !strings.HasSuffix(base, ".png") {
		return tile.Coords{}, "", false
	}
	name := strings.TrimSuffix(base, ".png")
	suffix := ""
	if strings.HasSuffix(name, pipeline.HiDPISuffix) {
		suffix = pipeline.HiDPISuffix
		name = strings.TrimSuffix(name, pipeline.HiDPISuffix)
	}

	coords, err := tile.ParseCoords(name)
	if err != nil {
		return tile.Coords{}, "", false
	}
	return coords, suffix, true
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	if err != nil {
		return false
	}
	return !st.IsDir()
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
