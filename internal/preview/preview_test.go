package preview

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/perlin2d/internal/noise"
)

func TestShade(t *testing.T) {
	tests := []struct {
		v    float64
		want byte
	}{
		{-0.2, ' '},
		{0, ' '},
		{0.05, ' '},
		{0.5, '+'},
		{0.99, '@'},
		{1, '@'},
		{1.3, '@'},
		{math.NaN(), ' '},
	}
	for _, tt := range tests {
		assert.Equal(t, string(tt.want), string(Shade(tt.v)), "Shade(%v)", tt.v)
	}
}

func TestRender_Dimensions(t *testing.T) {
	out := Render(noise.NewTable(), Frame{Cols: 40, Rows: 12, CellsPerGrid: 8}, Options{})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 12)
	for i, line := range lines {
		assert.Len(t, line, 40, "line %d", i)
	}

	assert.Empty(t, Render(noise.NewTable(), Frame{}, Options{}))
}

func TestRender_MatchesEvaluate(t *testing.T) {
	table := noise.NewSeededTable(2)
	f := Frame{Cols: 10, Rows: 5, X: 1.5, Y: -2, CellsPerGrid: 4}
	lines := strings.Split(Render(table, f, Options{}), "\n")

	for _, cell := range [][2]int{{0, 0}, {3, 1}, {9, 4}} {
		x, y := f.Point(cell[0], cell[1])
		want := Shade(noise.Evaluate(x, y, table))
		assert.Equal(t, want, lines[cell[1]][cell[0]], "cell %v", cell)
	}
}

func TestRender_Lattice(t *testing.T) {
	// Cell (0,0) samples a lattice point, whose value is exactly 0.5.
	out := Render(noise.NewSeededTable(9), Frame{Cols: 1, Rows: 1, X: 3, Y: 4, CellsPerGrid: 8}, Options{})
	assert.Equal(t, "+", out)
}

func TestRender_Grid(t *testing.T) {
	f := Frame{Cols: 9, Rows: 5, CellsPerGrid: 4}
	lines := strings.Split(Render(noise.NewTable(), f, Options{Grid: true}), "\n")

	// Grid lines fall on columns 0, 4, 8 and rows 0, 2, 4.
	assert.Equal(t, byte('+'), lines[0][0])
	assert.Equal(t, byte('+'), lines[2][4])
	assert.Equal(t, byte('-'), lines[0][1])
	assert.Equal(t, byte('|'), lines[1][8])
	x, y := f.Point(1, 1)
	assert.Equal(t, Shade(noise.Evaluate(x, y, noise.NewTable())), lines[1][1])
}

func TestRender_ColorKeepsText(t *testing.T) {
	table := noise.NewTable()
	f := Frame{Cols: 6, Rows: 2, CellsPerGrid: 3}
	colored := Render(table, f, Options{Color: true})
	plain := Render(table, f, Options{})
	assert.Equal(t, 2, strings.Count(colored, "\n")+1)
	assert.GreaterOrEqual(t, len(colored), len(plain))
}
