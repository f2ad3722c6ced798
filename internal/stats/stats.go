// Package stats samples the noise field over a region of grid space and
// summarizes the values.
package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/MeKo-Tech/perlin2d/internal/noise"
)

// MaxSamples caps a single sampling run.
const MaxSamples = 25_000_000

// Quantiles reported by Summarize.
var Quantiles = []float64{0.05, 0.25, 0.5, 0.75, 0.95}

// Summary describes a set of noise values.
type Summary struct {
	Quantiles  map[float64]float64
	Count      int
	Min        float64
	Max        float64
	Mean       float64
	StdDev     float64
	OutOfRange int // values outside [0,1]
}

// Grid returns the sample count per axis for bound b sampled every step
// units, inclusive of both edges.
func Grid(b orb.Bound, step float64) (nx, ny int, err error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return 0, 0, fmt.Errorf("step must be a positive number, got %v", step)
	}
	if b.Max[0] < b.Min[0] || b.Max[1] < b.Min[1] {
		return 0, 0, fmt.Errorf("invalid bound %v", b)
	}
	// Counts stay in float64 until they are known to fit, since a huge span
	// would overflow int.
	axis := func(lo, hi float64) float64 {
		return math.Floor((hi-lo)/step+1e-9) + 1
	}
	fx, fy := axis(b.Min[0], b.Max[0]), axis(b.Min[1], b.Max[1])
	if !(fx >= 1 && fy >= 1) {
		return 0, 0, fmt.Errorf("invalid bound %v", b)
	}
	if fx > MaxSamples || fy > MaxSamples || fx*fy > MaxSamples {
		return 0, 0, fmt.Errorf("%g x %g samples exceeds limit of %d", fx, fy, MaxSamples)
	}
	return int(fx), int(fy), nil
}

// Sample evaluates t on a regular grid over b, row by row.
func Sample(t *noise.Table, b orb.Bound, step float64) ([]float64, error) {
	nx, ny, err := Grid(b, step)
	if err != nil {
		return nil, err
	}
	values := make([]float64, 0, nx*ny)
	for j := 0; j < ny; j++ {
		y := b.Min[1] + float64(j)*step
		for i := 0; i < nx; i++ {
			values = append(values, noise.Evaluate(b.Min[0]+float64(i)*step, y, t))
		}
	}
	return values, nil
}

// Summarize computes summary statistics. values is not modified.
func Summarize(values []float64) Summary {
	s := Summary{Count: len(values), Quantiles: make(map[float64]float64, len(Quantiles))}
	if len(values) == 0 {
		return s
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s.Min = floats.Min(sorted)
	s.Max = floats.Max(sorted)
	s.Mean, s.StdDev = stat.MeanStdDev(sorted, nil)
	if len(sorted) == 1 {
		s.StdDev = 0
	}
	for _, p := range Quantiles {
		s.Quantiles[p] = stat.Quantile(p, stat.Empirical, sorted, nil)
	}
	for _, v := range sorted {
		if v < 0 || v > 1 {
			s.OutOfRange++
		}
	}
	return s
}

// Histogram counts values in bins equal-width bins spanning [0,1]. Values
// outside the range land in the first or last bin.
func Histogram(values []float64, bins int) []float64 {
	if bins <= 0 {
		bins = 10
	}
	counts := make([]float64, bins)
	if len(values) == 0 {
		return counts
	}

	sorted := make([]float64, len(values))
	for i, v := range values {
		sorted[i] = math.Min(math.Max(v, 0), 1)
	}
	sort.Float64s(sorted)

	dividers := floats.Span(make([]float64, bins+1), 0, 1)
	dividers[bins] = math.Nextafter(1, 2)
	return stat.Histogram(counts, dividers, sorted, nil)
}

// LatticeDeviation returns the largest |Evaluate - 0.5| over the integer
// points inside b. It is zero for every table.
func LatticeDeviation(t *noise.Table, b orb.Bound) float64 {
	var worst float64
	for y := math.Ceil(b.Min[1]); y <= b.Max[1]; y++ {
		for x := math.Ceil(b.Min[0]); x <= b.Max[0]; x++ {
			worst = math.Max(worst, math.Abs(noise.Evaluate(x, y, t)-0.5))
		}
	}
	return worst
}
