package cmd

import (
	"fmt"
	"image/color"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/perlin2d/internal/export"
	"github.com/MeKo-Tech/perlin2d/internal/raster"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the noise field to a grayscale PNG",
	Long: `Render paints one noise sample per pixel: pixel (px, py) shows the field at
(px/px-per-grid, py/px-per-grid), shaded as 255*value.`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().Int("width", 1920, "Image width in pixels")
	renderCmd.Flags().Int("height", 1080, "Image height in pixels")
	renderCmd.Flags().Int("offset-x", 0, "Global pixel column of the left edge")
	renderCmd.Flags().Int("offset-y", 0, "Global pixel row of the top edge")
	renderCmd.Flags().Bool("grid", false, "Draw grid cell boundaries")
	renderCmd.Flags().Float32("grid-width", 1, "Grid line width in pixels")
	renderCmd.Flags().Uint8("grid-gray", 0, "Grid line gray level (0 black .. 255 white)")
	renderCmd.Flags().Bool("fit-grid", false, "Round the height down to whole grid cells")
	renderCmd.Flags().StringP("out", "o", "perlin.png", "Output PNG path")
	renderCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")
	renderCmd.Flags().Float64("scale", 1, "Resize factor applied after rendering")
	renderCmd.Flags().String("resampling", "lanczos", "Resampling filter for --scale (nearest, linear, cubic, lanczos)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"render.width", "width"},
		{"render.height", "height"},
		{"render.offset_x", "offset-x"},
		{"render.offset_y", "offset-y"},
		{"render.grid", "grid"},
		{"render.grid_width", "grid-width"},
		{"render.grid_gray", "grid-gray"},
		{"render.fit_grid", "fit-grid"},
		{"render.out", "out"},
		{"render.png_compression", "png-compression"},
		{"render.scale", "scale"},
		{"render.resampling", "resampling"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, renderCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runRender(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	width := viper.GetInt("render.width")
	height := viper.GetInt("render.height")
	out := viper.GetString("render.out")
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid size %dx%d: width and height must be positive", width, height)
	}
	if out == "" {
		return fmt.Errorf("--out is required")
	}

	pxPerGrid := resolvePxPerGrid()
	if viper.GetBool("render.fit_grid") {
		height = raster.FitToGrid(height, pxPerGrid)
	}

	table, label := resolveTable()
	opts := raster.DefaultOptions()
	opts.Grid = viper.GetBool("render.grid")
	opts.GridWidth = float32(viper.GetFloat64("render.grid_width"))
	opts.GridColor = color.Gray{Y: uint8(viper.GetUint("render.grid_gray"))}

	exportOpts := export.Options{
		Compression: viper.GetString("render.png_compression"),
		Scale:       viper.GetFloat64("render.scale"),
		Resampling:  viper.GetString("render.resampling"),
	}
	if err := exportOpts.Validate(); err != nil {
		return err
	}

	logger.Info("Rendering noise image",
		"width", width,
		"height", height,
		"px_per_grid", pxPerGrid,
		"seed", label,
		"grid", opts.Grid,
		"out", out,
	)

	img := raster.NewRenderer(table, opts).Render(raster.Viewport{
		Width:     width,
		Height:    height,
		OffsetX:   viper.GetInt("render.offset_x"),
		OffsetY:   viper.GetInt("render.offset_y"),
		PxPerGrid: float64(pxPerGrid),
	})
	if err := export.WriteFile(out, img, exportOpts); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}

	logger.Info("Image written", "path", out)
	return nil
}
