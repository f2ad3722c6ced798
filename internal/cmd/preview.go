package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/perlin2d/internal/preview"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print a shaded text rendering of the field",
	RunE:  runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().Int("cols", 80, "Columns")
	previewCmd.Flags().Int("rows", 24, "Rows")
	previewCmd.Flags().Float64("x", 0, "Grid x of the top-left cell")
	previewCmd.Flags().Float64("y", 0, "Grid y of the top-left cell")
	previewCmd.Flags().Float64("cells-per-grid", 8, "Columns per grid unit")
	previewCmd.Flags().Bool("grid", false, "Mark grid lines")
	previewCmd.Flags().Bool("color", false, "Shade cells with gray foreground colors")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"preview.cols", "cols"},
		{"preview.rows", "rows"},
		{"preview.x", "x"},
		{"preview.y", "y"},
		{"preview.cells_per_grid", "cells-per-grid"},
		{"preview.grid", "grid"},
		{"preview.color", "color"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, previewCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runPreview(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	f := preview.Frame{
		Cols:         viper.GetInt("preview.cols"),
		Rows:         viper.GetInt("preview.rows"),
		X:            viper.GetFloat64("preview.x"),
		Y:            viper.GetFloat64("preview.y"),
		CellsPerGrid: viper.GetFloat64("preview.cells_per_grid"),
	}
	if f.Cols <= 0 || f.Rows <= 0 {
		return fmt.Errorf("invalid size %dx%d: cols and rows must be positive", f.Cols, f.Rows)
	}
	if f.CellsPerGrid <= 0 {
		return fmt.Errorf("cells-per-grid must be positive, got %g", f.CellsPerGrid)
	}

	table, _ := resolveTable()
	_, err := fmt.Fprintln(cmd.OutOrStdout(), preview.Render(table, f, preview.Options{
		Grid:  viper.GetBool("preview.grid"),
		Color: viper.GetBool("preview.color"),
	}))
	return err
}
