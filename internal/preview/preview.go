// Package preview draws the noise field as text for terminals.
package preview

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/MeKo-Tech/perlin2d/internal/noise"
)

// Ramp maps noise values to characters from dark to bright.
const Ramp = " .:-=+*#%@"

// CellAspect is the height of a terminal cell relative to its width.
const CellAspect = 2.0

// Frame is a window of Cols x Rows terminal cells whose top-left cell
// samples grid point (X, Y). CellsPerGrid cells span one grid unit
// horizontally.
type Frame struct {
	Cols         int
	Rows         int
	X            float64
	Y            float64
	CellsPerGrid float64
}

// Options controls how a frame is drawn.
type Options struct {
	Grid  bool // mark grid lines with | - +
	Color bool // shade cells with a gray foreground
}

// Point returns the grid coordinate sampled by cell (col, row).
func (f Frame) Point(col, row int) (float64, float64) {
	return f.X + float64(col)/f.CellsPerGrid, f.Y + float64(row)*CellAspect/f.CellsPerGrid
}

// Shade maps v to a Ramp character. Values outside [0,1] are clamped.
func Shade(v float64) byte {
	if math.IsNaN(v) || v <= 0 {
		return Ramp[0]
	}
	i := int(v * float64(len(Ramp)))
	if i >= len(Ramp) {
		i = len(Ramp) - 1
	}
	return Ramp[i]
}

var grayStyles [256]lipgloss.Style

func init() {
	for i := range grayStyles {
		grayStyles[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", i, i, i)))
	}
}

// Render draws f from t, one line per row.
func Render(t *noise.Table, f Frame, opts Options) string {
	if f.Cols <= 0 || f.Rows <= 0 {
		return ""
	}
	if f.CellsPerGrid <= 0 {
		f.CellsPerGrid = 8
	}

	var b strings.Builder
	for row := 0; row < f.Rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		for col := 0; col < f.Cols; col++ {
			x, y := f.Point(col, row)
			v := noise.Evaluate(x, y, t)
			ch := Shade(v)
			if opts.Grid {
				if g, ok := f.gridMark(col, row); ok {
					ch = g
				}
			}
			if opts.Color {
				gray := uint8(math.Round(math.Min(math.Max(v, 0), 1) * 255))
				b.WriteString(grayStyles[gray].Render(string(ch)))
				continue
			}
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// gridMark reports whether a grid line passes through the cell, which
// covers [x0, x1) x [y0, y1).
func (f Frame) gridMark(col, row int) (byte, bool) {
	x0, y0 := f.Point(col, row)
	x1, y1 := f.Point(col+1, row+1)
	vertical := math.Ceil(x0) < x1
	horizontal := math.Ceil(y0) < y1
	switch {
	case vertical && horizontal:
		return '+', true
	case vertical:
		return '|', true
	case horizontal:
		return '-', true
	}
	return 0, false
}
