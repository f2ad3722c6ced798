package cmd

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/perlin2d/internal/export"
	"github.com/MeKo-Tech/perlin2d/internal/mbtiles"
	"github.com/MeKo-Tech/perlin2d/internal/noise"
	"github.com/MeKo-Tech/perlin2d/internal/pipeline"
	"github.com/MeKo-Tech/perlin2d/internal/raster"
	"github.com/MeKo-Tech/perlin2d/internal/tile"
	"github.com/MeKo-Tech/perlin2d/internal/worker"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate noise tiles",
	Long: `Generate renders square noise tiles. At zoom z one grid cell spans
px-per-grid * 2^z pixels, and tile (x, y) covers global pixels
[x*tile-size, (x+1)*tile-size) in each direction.

Without --bbox a single tile is rendered. With --bbox (in grid units) every
tile intersecting the box is rendered for each zoom in the range.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	// Single tile flags
	generateCmd.Flags().IntP("zoom", "z", 0, "Zoom level (for single tile mode)")
	generateCmd.Flags().IntP("x", "x", 0, "X tile coordinate (for single tile mode)")
	generateCmd.Flags().IntP("y", "y", 0, "Y tile coordinate (for single tile mode)")

	// Batch generation flags
	generateCmd.Flags().String("bbox", "", "Grid-space box: minX,minY,maxX,maxY (e.g., \"0,0,16,9\")")
	generateCmd.Flags().Int("zoom-min", 0, "Minimum zoom level for batch generation")
	generateCmd.Flags().Int("zoom-max", 0, "Maximum zoom level for batch generation")
	generateCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	generateCmd.Flags().Bool("progress", true, "Show progress bar during batch generation")
	generateCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some tiles fail")

	// Common flags
	generateCmd.Flags().Bool("force", false, "Force regeneration even if tile exists")
	generateCmd.Flags().Int("tile-size", 256, "Tile size in pixels")
	generateCmd.Flags().Bool("hidpi", false, "Also generate a 2x (@2x) tile covering the same region")
	generateCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")
	generateCmd.Flags().Bool("grid", false, "Draw grid cell boundaries on tiles")

	// Output format flags
	generateCmd.Flags().String("format", "folder", "Output format: folder or mbtiles")
	generateCmd.Flags().String("output-file", "", "Output file path for MBTiles format (e.g., noise.mbtiles)")
	generateCmd.Flags().String("folder-structure", pipeline.FolderFlat, "Folder structure for folder format: flat (z{z}_x{x}_y{y}.png) or nested ({z}/{x}/{y}.png)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"generate.zoom", "zoom"},
		{"generate.x", "x"},
		{"generate.y", "y"},
		{"generate.bbox", "bbox"},
		{"generate.zoom_min", "zoom-min"},
		{"generate.zoom_max", "zoom-max"},
		{"generate.workers", "workers"},
		{"generate.progress", "progress"},
		{"generate.allow_failures", "allow-failures"},
		{"generate.force", "force"},
		{"generate.tile_size", "tile-size"},
		{"generate.hidpi", "hidpi"},
		{"generate.png_compression", "png-compression"},
		{"generate.grid", "grid"},
		{"generate.format", "format"},
		{"generate.output_file", "output-file"},
		{"generate.folder_structure", "folder-structure"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, generateCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

// generateConfig collects the generate settings shared by both modes.
type generateConfig struct {
	table           *noise.Table
	seedLabel       string
	layout          tile.Layout
	outputDir       string
	outputFile      string
	format          string
	folderStructure string
	pngCompression  string
	workers         int
	force           bool
	hidpi           bool
	grid            bool
	showProgress    bool
	allowFailures   bool
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	table, label := resolveTable()
	cfg := generateConfig{
		table:           table,
		seedLabel:       label,
		layout:          tile.Layout{TileSize: viper.GetInt("generate.tile_size"), BasePxPerGrid: float64(resolvePxPerGrid())},
		outputDir:       viper.GetString("output-dir"),
		outputFile:      viper.GetString("generate.output_file"),
		format:          viper.GetString("generate.format"),
		folderStructure: viper.GetString("generate.folder_structure"),
		pngCompression:  viper.GetString("generate.png_compression"),
		workers:         viper.GetInt("generate.workers"),
		force:           viper.GetBool("generate.force"),
		hidpi:           viper.GetBool("generate.hidpi"),
		grid:            viper.GetBool("generate.grid"),
		showProgress:    viper.GetBool("generate.progress"),
		allowFailures:   viper.GetBool("generate.allow_failures"),
	}
	bbox := viper.GetString("generate.bbox")

	if cfg.format != "folder" && cfg.format != "mbtiles" {
		return fmt.Errorf("invalid format %q: must be 'folder' or 'mbtiles'", cfg.format)
	}
	if cfg.folderStructure != pipeline.FolderFlat && cfg.folderStructure != pipeline.FolderNested {
		return fmt.Errorf("invalid folder-structure %q: must be 'flat' or 'nested'", cfg.folderStructure)
	}
	if cfg.layout.TileSize <= 0 {
		return fmt.Errorf("tile-size must be positive, got %d", cfg.layout.TileSize)
	}
	if cfg.format == "mbtiles" {
		if cfg.outputFile == "" {
			return fmt.Errorf("--output-file is required when using --format=mbtiles")
		}
		if bbox == "" {
			return fmt.Errorf("mbtiles format requires batch generation (use --bbox)")
		}
	}

	if bbox != "" {
		b, err := parseBBox(bbox)
		if err != nil {
			return fmt.Errorf("invalid bbox: %w", err)
		}
		return runBatchGenerate(cfg, b, viper.GetInt("generate.zoom_min"), viper.GetInt("generate.zoom_max"))
	}

	zoom, x, y := viper.GetInt("generate.zoom"), viper.GetInt("generate.x"), viper.GetInt("generate.y")
	if zoom < 0 || x < 0 || y < 0 {
		return fmt.Errorf("invalid coordinates: zoom/x/y must be non-negative")
	}
	if zoom > tile.MaxZoom {
		return fmt.Errorf("zoom %d exceeds maximum %d", zoom, tile.MaxZoom)
	}
	return runSingleGenerate(cfg, tile.NewCoords(uint32(zoom), uint32(x), uint32(y)))
}

func (c generateConfig) generator(w pipeline.TileWriter) (*pipeline.Generator, error) {
	opts := raster.DefaultOptions()
	opts.Grid = c.grid
	return pipeline.NewGenerator(c.table, c.layout, c.outputDir, logger, pipeline.GeneratorOptions{
		Raster:          opts,
		Export:          export.Options{Compression: c.pngCompression},
		FolderStructure: c.folderStructure,
		TileWriter:      w,
	})
}

// generatePass renders every tile once with one suffix.
type generatePass struct {
	writer *mbtiles.Writer
	suffix string
	label  string
}

func runSingleGenerate(cfg generateConfig, coords tile.Coords) error {
	logger.Info("Starting tile generation",
		"coords", coords.String(),
		"output_dir", cfg.outputDir,
		"force", cfg.force,
		"tile_size", cfg.layout.TileSize,
		"px_per_grid", cfg.layout.PxPerGrid(coords.Z),
		"seed", cfg.seedLabel,
		"hidpi", cfg.hidpi,
	)

	gen, err := cfg.generator(nil)
	if err != nil {
		return fmt.Errorf("failed to init generator: %w", err)
	}

	path, err := gen.Generate(context.Background(), coords, cfg.force, "")
	if err != nil {
		return fmt.Errorf("failed to generate tile: %w", err)
	}
	logger.Info("Tile generated", "coords", coords.String(), "path", path)

	if cfg.hidpi {
		path2x, err := gen.Generate(context.Background(), coords, cfg.force, pipeline.HiDPISuffix)
		if err != nil {
			return fmt.Errorf("failed to generate hidpi tile: %w", err)
		}
		logger.Info("HiDPI tile generated", "coords", coords.String(), "path", path2x)
	}
	return nil
}

func runBatchGenerate(cfg generateConfig, bbox orb.Bound, zoomMin, zoomMax int) error {
	if zoomMin < 0 || zoomMax < 0 {
		return fmt.Errorf("--zoom-min and --zoom-max must be non-negative")
	}
	if zoomMin > zoomMax {
		return fmt.Errorf("--zoom-min (%d) must be <= --zoom-max (%d)", zoomMin, zoomMax)
	}
	if zoomMax > tile.MaxZoom {
		return fmt.Errorf("--zoom-max %d exceeds maximum %d", zoomMax, tile.MaxZoom)
	}
	if cfg.workers <= 0 {
		cfg.workers = runtime.NumCPU()
	}

	tiles, err := cfg.layout.TilesInBound(bbox, zoomMin, zoomMax)
	if err != nil {
		return fmt.Errorf("bbox %s: %w (narrow --bbox or lower --zoom-max)", formatBound(bbox), err)
	}
	if len(tiles) == 0 {
		return fmt.Errorf("bbox %v contains no tiles (grid space left of or above the origin is not tiled)", bbox)
	}

	logger.Info("Starting batch tile generation",
		"bbox", formatBound(bbox),
		"zoom_range", fmt.Sprintf("%d-%d", zoomMin, zoomMax),
		"tiles", len(tiles),
		"hidpi", cfg.hidpi,
		"workers", cfg.workers,
		"seed", cfg.seedLabel,
		"format", cfg.format,
	)

	var writer, writerHiDPI *mbtiles.Writer
	if cfg.format == "mbtiles" {
		meta := mbtiles.Metadata{
			Name:        "perlin2d " + cfg.seedLabel,
			Description: "Single-octave 2D Perlin noise",
			Format:      "png",
			Type:        "overlay",
			Version:     "1.0",
			Seed:        cfg.seedLabel,
			Bounds:      bbox,
			MinZoom:     zoomMin,
			MaxZoom:     zoomMax,
			TileSize:    cfg.layout.TileSize,
			PxPerGrid:   cfg.layout.BasePxPerGrid,
		}

		writer, err = mbtiles.New(cfg.outputFile, meta)
		if err != nil {
			return fmt.Errorf("failed to create MBTiles writer: %w", err)
		}
		defer writer.Close()

		if cfg.hidpi {
			metaHiDPI := meta
			metaHiDPI.TileSize *= 2
			hidpiFile := strings.TrimSuffix(cfg.outputFile, ".mbtiles") + pipeline.HiDPISuffix + ".mbtiles"
			writerHiDPI, err = mbtiles.New(hidpiFile, metaHiDPI)
			if err != nil {
				return fmt.Errorf("failed to create HiDPI MBTiles writer: %w", err)
			}
			defer writerHiDPI.Close()
		}
		logger.Info("MBTiles writers created", "base", cfg.outputFile, "hidpi", cfg.hidpi)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	passes := []generatePass{{writer: writer, label: "tiles"}}
	if cfg.hidpi {
		passes = append(passes, generatePass{writer: writerHiDPI, suffix: pipeline.HiDPISuffix, label: "@2x tiles"})
	}

	for _, pass := range passes {
		var tw pipeline.TileWriter
		if pass.writer != nil {
			tw = pass.writer
		}
		gen, err := cfg.generator(tw)
		if err != nil {
			return fmt.Errorf("failed to init generator: %w", err)
		}

		tasks := make([]worker.Task, 0, len(tiles))
		for _, coords := range tiles {
			tasks = append(tasks, worker.Task{Coords: coords, Force: cfg.force, Suffix: pass.suffix})
		}

		progress := worker.NewProgress(len(tasks), cfg.showProgress).WithLabel(pass.label)
		pool := worker.New(worker.Config{
			Workers:    cfg.workers,
			Generator:  gen,
			OnProgress: progress.Callback(),
		})

		logger.Info("Generating "+pass.label, "count", len(tasks))
		results := pool.Run(ctx, tasks)
		progress.Done()

		failed := worker.Failed(results)
		for _, r := range failed {
			logger.Error("Tile generation failed", "coords", r.Task.Coords.String(), "suffix", r.Task.Suffix, "error", r.Err)
		}
		logger.Info(progress.Summary())

		if ctx.Err() != nil {
			return fmt.Errorf("generation cancelled: %w", ctx.Err())
		}
		if len(failed) > 0 {
			if !cfg.allowFailures {
				return fmt.Errorf("%d of %d %s failed to generate", len(failed), len(tasks), pass.label)
			}
			logger.Warn("Some tiles failed to generate, continuing due to --allow-failures", "failed_count", len(failed))
		}

		if pass.writer != nil {
			if err := pass.writer.Flush(); err != nil {
				return fmt.Errorf("failed to flush MBTiles: %w", err)
			}
		}
	}

	if cfg.format == "mbtiles" {
		logger.Info("MBTiles generation complete", "base", cfg.outputFile)
	}
	return nil
}

// parseBBox parses "minX,minY,maxX,maxY" in grid units.
func parseBBox(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("expected 4 comma-separated values, got %d", len(parts))
	}

	var v [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("invalid number at position %d: %w", i, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return orb.Bound{}, fmt.Errorf("value at position %d must be finite", i)
		}
		v[i] = f
	}

	if v[0] >= v[2] {
		return orb.Bound{}, fmt.Errorf("minX (%.4f) must be < maxX (%.4f)", v[0], v[2])
	}
	if v[1] >= v[3] {
		return orb.Bound{}, fmt.Errorf("minY (%.4f) must be < maxY (%.4f)", v[1], v[3])
	}

	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}

func formatBound(b orb.Bound) string {
	return fmt.Sprintf("%g,%g,%g,%g", b.Min[0], b.Min[1], b.Max[0], b.Max[1])
}
