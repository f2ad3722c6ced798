package cmd

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/MeKo-Tech/perlin2d/internal/noise"
)

const defaultPxPerGrid = noise.DefaultPxPerGrid

// resolveSeed reads the --seed setting. Malformed seeds fall back to the
// canonical table with a warning.
func resolveSeed() (int64, bool) {
	raw := viper.GetString("seed")
	seed, ok := noise.ParseSeed(raw)
	if !ok && strings.TrimSpace(raw) != "" {
		logger.Warn("Invalid seed; using the default permutation table", "seed", raw)
	}
	return seed, ok
}

// resolvePxPerGrid reads the --px-per-grid setting, falling back to the
// default with a warning when it is not a positive integer.
func resolvePxPerGrid() int {
	n := viper.GetInt("px_per_grid")
	if n <= 0 {
		logger.Warn("Invalid px-per-grid; using default", "px_per_grid", viper.GetString("px_per_grid"), "default", defaultPxPerGrid)
	}
	return noise.ResolvePxPerGrid(n)
}

// resolveTable builds the permutation table selected by --seed.
func resolveTable() (*noise.Table, string) {
	seed, ok := resolveSeed()
	return noise.TableFor(seed, ok), noise.SeedLabel(seed, ok)
}
