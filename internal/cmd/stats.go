package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/perlin2d/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Sample the field over a grid-space box and print statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().String("bbox", "0,0,50,50", "Grid-space box: minX,minY,maxX,maxY")
	statsCmd.Flags().Float64("step", 0.1, "Sample spacing in grid units")
	statsCmd.Flags().Int("bins", 10, "Histogram bins over [0,1] (0 disables the histogram)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"stats.bbox", "bbox"},
		{"stats.step", "step"},
		{"stats.bins", "bins"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, statsCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	b, err := parseBBox(viper.GetString("stats.bbox"))
	if err != nil {
		return fmt.Errorf("invalid bbox: %w", err)
	}
	step := viper.GetFloat64("stats.step")
	table, label := resolveTable()

	logger.Debug("Sampling field", "bbox", formatBound(b), "step", step, "seed", label)
	values, err := stats.Sample(table, b, step)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "seed:     %s\n", label)
	fmt.Fprintf(out, "bbox:     %s (step %g)\n", formatBound(b), step)
	writeSummary(out, stats.Summarize(values))
	fmt.Fprintf(out, "lattice:  max |v-0.5| = %g\n", stats.LatticeDeviation(table, b))

	if bins := viper.GetInt("stats.bins"); bins > 0 {
		writeHistogram(out, stats.Histogram(values, bins), len(values))
	}
	return nil
}

func writeSummary(w io.Writer, s stats.Summary) {
	fmt.Fprintf(w, "samples:  %d\n", s.Count)
	fmt.Fprintf(w, "min:      %.6f\n", s.Min)
	fmt.Fprintf(w, "max:      %.6f\n", s.Max)
	fmt.Fprintf(w, "mean:     %.6f\n", s.Mean)
	fmt.Fprintf(w, "stddev:   %.6f\n", s.StdDev)
	for _, p := range stats.Quantiles {
		fmt.Fprintf(w, "p%02.0f:      %.6f\n", p*100, s.Quantiles[p])
	}
	fmt.Fprintf(w, "outside:  %d values outside [0,1]\n", s.OutOfRange)
}

func writeHistogram(w io.Writer, counts []float64, total int) {
	const width = 40
	n := float64(len(counts))
	for i, c := range counts {
		frac := 0.0
		if total > 0 {
			frac = c / float64(total)
		}
		fmt.Fprintf(w, "[%.2f,%.2f) %7.3f%% %s\n", float64(i)/n, float64(i+1)/n, frac*100, strings.Repeat("#", int(frac*width+0.5)))
	}
}
