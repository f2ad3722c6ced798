package cmd

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/perlin2d/internal/noise"
)

var evalCmd = &cobra.Command{
	Use:   "eval [x,y ...]",
	Short: "Print noise values for grid coordinates",
	Long: `Eval prints Evaluate(x, y) for each coordinate pair, one per line.

Pairs are given as arguments ("0.37,0.81") or, with no arguments, read from
stdin one pair per line. Use "--" before pairs starting with a minus sign.
--raw prints the unshifted value in [-1, 1].`,
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().Bool("raw", false, "Print the unshifted value")
}

func runEval(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	raw, err := cmd.Flags().GetBool("raw")
	if err != nil {
		return err
	}
	table, _ := resolveTable()

	if len(args) > 0 {
		return evalPairs(cmd.OutOrStdout(), table, args, raw)
	}

	var lines []string
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return evalPairs(cmd.OutOrStdout(), table, lines, raw)
}

func evalPairs(w io.Writer, table *noise.Table, pairs []string, raw bool) error {
	for _, p := range pairs {
		x, y, err := parsePair(p)
		if err != nil {
			return err
		}
		v := noise.Evaluate(x, y, table)
		if raw {
			v = noise.Raw(x, y, table)
		}
		if _, err := fmt.Fprintln(w, strconv.FormatFloat(v, 'g', 17, 64)); err != nil {
			return err
		}
	}
	return nil
}

// parsePair parses "x,y" or "x y".
func parsePair(s string) (float64, float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("invalid coordinate %q: expected x,y", s)
	}
	var out [2]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, fmt.Errorf("invalid coordinate %q: %q is not a finite number", s, f)
		}
		out[i] = v
	}
	return out[0], out[1], nil
}
