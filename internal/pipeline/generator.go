// Package pipeline renders single noise tiles to disk or to a tile store.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/perlin2d/internal/export"
	"github.com/MeKo-Tech/perlin2d/internal/noise"
	"github.com/MeKo-Tech/perlin2d/internal/raster"
	"github.com/MeKo-Tech/perlin2d/internal/tile"
)

// TileWriter stores encoded tiles, e.g. an MBTiles writer.
type TileWriter interface {
	WriteTile(coords tile.Coords, data []byte) error
}

// HiDPISuffix marks tiles rendered at twice the tile size over the same
// region of grid space.
const HiDPISuffix = "@2x"

// Folder layouts for the folder output format.
const (
	FolderFlat   = "flat"   // z{z}_x{x}_y{y}.png
	FolderNested = "nested" // {z}/{x}/{y}.png
)

// GeneratorOptions holds optional generator settings.
type GeneratorOptions struct {
	Raster          raster.Options
	Export          export.Options
	FolderStructure string
	// TileWriter, when set, receives encoded tiles instead of the output dir.
	TileWriter TileWriter
}

// Generator renders tiles of one permutation table.
type Generator struct {
	table     *noise.Table
	layout    tile.Layout
	outputDir string
	opts      GeneratorOptions
	logger    *slog.Logger
}

// NewGenerator prepares a generator. The table is cloned, so later reseeds
// of t do not affect tiles rendered by the generator.
func NewGenerator(t *noise.Table, layout tile.Layout, outputDir string, logger *slog.Logger, opts GeneratorOptions) (*Generator, error) {
	if t == nil {
		return nil, fmt.Errorf("permutation table is required")
	}
	if layout.TileSize <= 0 {
		return nil, fmt.Errorf("tile size must be positive")
	}
	if layout.BasePxPerGrid <= 0 {
		layout.BasePxPerGrid = noise.DefaultPxPerGrid
	}
	switch opts.FolderStructure {
	case "":
		opts.FolderStructure = FolderFlat
	case FolderFlat, FolderNested:
	default:
		return nil, fmt.Errorf("invalid folder structure %q: must be %q or %q", opts.FolderStructure, FolderFlat, FolderNested)
	}
	if err := opts.Export.Validate(); err != nil {
		return nil, err
	}

	return &Generator{
		table:     t.Clone(),
		layout:    layout,
		outputDir: outputDir,
		opts:      opts,
		logger:    logger,
	}, nil
}

// Layout returns the tile layout used for rendering.
func (g *Generator) Layout() tile.Layout {
	return g.layout
}

// TilePath returns where Generate writes the tile in folder mode.
func (g *Generator) TilePath(coords tile.Coords, suffix string) string {
	if g.opts.FolderStructure == FolderNested {
		return filepath.Join(g.outputDir, fmt.Sprint(coords.Z), fmt.Sprint(coords.X), fmt.Sprintf("%d%s.png", coords.Y, suffix))
	}
	return filepath.Join(g.outputDir, coords.String()+suffix+".png")
}

// RenderTile paints the tile. With the HiDPI suffix the tile is rendered at
// twice the size and twice the pixels per grid cell so it covers the same
// grid region as the base tile.
func (g *Generator) RenderTile(coords tile.Coords, suffix string) *image.Gray {
	img, _ := g.RenderTileContext(context.Background(), coords, suffix)
	return img
}

// RenderTileContext is RenderTile that stops painting once ctx is done.
func (g *Generator) RenderTileContext(ctx context.Context, coords tile.Coords, suffix string) (*image.Gray, error) {
	layout := g.layout
	if suffix == HiDPISuffix {
		layout.TileSize *= 2
		layout.BasePxPerGrid *= 2
	}
	ox, oy := layout.Origin(coords)
	r := raster.NewRenderer(g.table, g.opts.Raster)
	return r.RenderContext(ctx, raster.Viewport{
		Width:     layout.TileSize,
		Height:    layout.TileSize,
		OffsetX:   ox,
		OffsetY:   oy,
		PxPerGrid: layout.PxPerGrid(coords.Z),
	})
}

// EncodeTile renders the tile and returns the PNG bytes. A done ctx aborts
// the render and nothing is encoded.
func (g *Generator) EncodeTile(ctx context.Context, coords tile.Coords, suffix string) ([]byte, error) {
	img, err := g.RenderTileContext(ctx, coords, suffix)
	if err != nil {
		return nil, fmt.Errorf("render of tile %s interrupted: %w", coords, err)
	}
	data, err := export.EncodeBytes(img, g.opts.Export)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tile %s: %w", coords, err)
	}
	return data, nil
}

// Generate renders one tile and stores it. In folder mode an existing file is
// kept unless force is set, and the returned path is the tile file. With a
// TileWriter the returned path is empty.
func (g *Generator) Generate(ctx context.Context, coords tile.Coords, force bool, suffix string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if coords.Z > tile.MaxZoom {
		return "", fmt.Errorf("zoom %d exceeds maximum %d", coords.Z, tile.MaxZoom)
	}

	if g.opts.TileWriter != nil {
		data, err := g.EncodeTile(ctx, coords, suffix)
		if err != nil {
			return "", err
		}
		if err := g.opts.TileWriter.WriteTile(coords, data); err != nil {
			return "", fmt.Errorf("failed to store tile %s: %w", coords, err)
		}
		g.log().Debug("Stored tile", "coords", coords.String(), "bytes", len(data))
		return "", nil
	}

	path := g.TilePath(coords, suffix)
	if !force {
		if _, err := os.Stat(path); err == nil {
			g.log().Debug("Tile already exists; skipping", "coords", coords.String(), "path", path)
			return path, nil
		}
	}

	data, err := g.EncodeTile(ctx, coords, suffix)
	if err != nil {
		return "", err
	}
	if err := export.WriteBytes(path, data); err != nil {
		return "", err
	}
	g.log().Debug("Wrote tile", "coords", coords.String(), "path", path)
	return path, nil
}

func (g *Generator) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}
