package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/perlin2d/internal/preview"
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Pan, zoom and reseed the field interactively in the terminal",
	Long: `Explore opens a full-screen view of the field.

Keys: arrows or hjkl pan, + and - zoom, r next seed, d default table,
g grid lines, c color, q quit.`,
	RunE: runExplore,
}

func init() {
	rootCmd.AddCommand(exploreCmd)
	exploreCmd.Flags().Bool("color", true, "Shade cells with gray foreground colors")
}

func runExplore(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	color, err := cmd.Flags().GetBool("color")
	if err != nil {
		return err
	}
	seed, ok := resolveSeed()

	p := tea.NewProgram(preview.NewExplorer(seed, ok, preview.Options{Color: color}), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("explorer failed: %w", err)
	}
	return nil
}
