package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/perlin2d/internal/mbtiles"
	"github.com/MeKo-Tech/perlin2d/internal/tile"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert folder tiles to MBTiles format",
	Long: `Convert packs tiles written by "generate --format folder" (flat or nested)
into an MBTiles database. @2x tiles are skipped; convert them separately with
--hidpi.`,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().String("input-dir", "./tiles", "Input directory containing tiles")
	convertCmd.Flags().StringP("output", "o", "", "Output MBTiles file path (required)")
	convertCmd.Flags().String("name", "perlin2d", "Tileset name")
	convertCmd.Flags().String("description", "Single-octave 2D Perlin noise", "Tileset description")
	convertCmd.Flags().Int("tile-size", 256, "Tile size recorded in metadata")
	convertCmd.Flags().String("bounds", "", "Grid-space box recorded in metadata: minX,minY,maxX,maxY (optional)")
	convertCmd.Flags().Bool("hidpi", false, "Convert @2x tiles instead of base tiles")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"convert.input_dir", "input-dir"},
		{"convert.output", "output"},
		{"convert.name", "name"},
		{"convert.description", "description"},
		{"convert.tile_size", "tile-size"},
		{"convert.bounds", "bounds"},
		{"convert.hidpi", "hidpi"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, convertCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	inputDir := viper.GetString("convert.input_dir")
	outputFile := viper.GetString("convert.output")
	hidpi := viper.GetBool("convert.hidpi")

	if outputFile == "" {
		return fmt.Errorf("--output is required")
	}
	if _, err := os.Stat(inputDir); os.IsNotExist(err) {
		return fmt.Errorf("input directory does not exist: %s", inputDir)
	}

	tiles, minZoom, maxZoom, err := scanTilesDirectory(inputDir, hidpi)
	if err != nil {
		return fmt.Errorf("failed to scan tiles directory: %w", err)
	}
	if len(tiles) == 0 {
		return fmt.Errorf("no tiles found in %s", inputDir)
	}
	logger.Info("Found tiles", "count", len(tiles), "min_zoom", minZoom, "max_zoom", maxZoom)

	_, label := resolveTable()
	meta := mbtiles.Metadata{
		Name:        viper.GetString("convert.name"),
		Description: viper.GetString("convert.description"),
		Format:      "png",
		Type:        "overlay",
		Version:     "1.0",
		Seed:        label,
		MinZoom:     minZoom,
		MaxZoom:     maxZoom,
		TileSize:    viper.GetInt("convert.tile_size"),
		PxPerGrid:   float64(resolvePxPerGrid()),
	}
	if s := viper.GetString("convert.bounds"); s != "" {
		b, err := parseBBox(s)
		if err != nil {
			return fmt.Errorf("invalid bounds: %w", err)
		}
		meta.Bounds = b
	}

	writer, err := mbtiles.New(outputFile, meta)
	if err != nil {
		return fmt.Errorf("failed to create MBTiles writer: %w", err)
	}
	defer writer.Close()

	var failed int
	for i, ti := range tiles {
		data, err := os.ReadFile(ti.path)
		if err == nil {
			err = writer.WriteTile(ti.coords, data)
		}
		if err != nil {
			failed++
			logger.Error("Failed to convert tile", "path", ti.path, "error", err)
			continue
		}
		if (i+1)%100 == 0 {
			logger.Info("Progress", "converted", i+1, "total", len(tiles))
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush tiles: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tiles failed to convert", failed, len(tiles))
	}

	logger.Info("Conversion complete", "output", outputFile, "tiles", len(tiles))
	return nil
}

type tileFile struct {
	path   string
	coords tile.Coords
}

var (
	flatTilePattern   = regexp.MustCompile(`^z(\d+)_x(\d+)_y(\d+)(@2x)?\.png$`)
	nestedTilePattern = regexp.MustCompile(`(?:^|/)(\d+)/(\d+)/(\d+)(@2x)?\.png$`)
)

// scanTilesDirectory finds flat (z{z}_x{x}_y{y}.png) and nested
// ({z}/{x}/{y}.png) tiles below dir. hidpi selects @2x tiles instead of base
// tiles.
func scanTilesDirectory(dir string, hidpi bool) ([]tileFile, int, int, error) {
	var tiles []tileFile
	minZoom, maxZoom := tile.MaxZoom+1, -1

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		m := flatTilePattern.FindStringSubmatch(filepath.Base(rel))
		if m == nil {
			m = nestedTilePattern.FindStringSubmatch(rel)
		}
		if m == nil || (m[4] != "") != hidpi {
			return nil
		}

		z, errZ := strconv.ParseUint(m[1], 10, 32)
		x, errX := strconv.ParseUint(m[2], 10, 32)
		y, errY := strconv.ParseUint(m[3], 10, 32)
		if errZ != nil || errX != nil || errY != nil || z > tile.MaxZoom {
			return nil
		}

		tiles = append(tiles, tileFile{path: path, coords: tile.NewCoords(uint32(z), uint32(x), uint32(y))})
		minZoom = min(minZoom, int(z))
		maxZoom = max(maxZoom, int(z))
		return nil
	})
	if err != nil {
		return nil, 0, 0, err
	}

	if len(tiles) == 0 {
		return nil, 0, 0, nil
	}
	return tiles, minZoom, maxZoom, nil
}
