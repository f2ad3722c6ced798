package noise

import "math"

// gradients are the four lattice gradient directions, selected by hash & 3.
var gradients = [4][2]float64{
	{1, 1},
	{-1, 1},
	{1, -1},
	{-1, -1},
}

// Evaluate returns the noise value at (x, y) shifted into roughly [0, 1].
// The result is not clamped. Integer coordinates always yield exactly 0.5.
func Evaluate(x, y float64, t *Table) float64 {
	return (Raw(x, y, t) + 1) / 2
}

// Raw returns the unshifted noise value at (x, y), roughly in [-1, 1].
func Raw(x, y float64, t *Table) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	ix := int(x0)
	iy := int(y0)

	// Order is top-left, top-right, bottom-left, bottom-right.
	corners := [4][2]int{
		{ix, iy},
		{ix + 1, iy},
		{ix, iy + 1},
		{ix + 1, iy + 1},
	}

	var dots [4]float64
	for i, c := range corners {
		g := gradients[t.hash(c[0], c[1])&3]
		dx := x - float64(c[0])
		dy := y - float64(c[1])
		dots[i] = dx*g[0] + dy*g[1]
	}

	u := fade(x - x0)
	v := fade(y - y0)

	top := lerp(u, dots[0], dots[1])
	bottom := lerp(u, dots[2], dots[3])
	return lerp(v, top, bottom)
}

// fade is Perlin's quintic 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(frac, a, b float64) float64 {
	return a + frac*(b-a)
}

// DefaultPxPerGrid is the grid cell size in pixels used when none is given.
const DefaultPxPerGrid = 100

// Field samples a table at pixel positions, with PxPerGrid pixels per
// lattice cell.
type Field struct {
	Table     *Table
	PxPerGrid float64
}

// NewField returns a Field over t. Non-positive pxPerGrid falls back to
// DefaultPxPerGrid.
func NewField(t *Table, pxPerGrid float64) Field {
	if pxPerGrid <= 0 {
		pxPerGrid = DefaultPxPerGrid
	}
	return Field{Table: t, PxPerGrid: pxPerGrid}
}

// At evaluates the field at pixel (px, py).
func (f Field) At(px, py int) float64 {
	return Evaluate(float64(px)/f.PxPerGrid, float64(py)/f.PxPerGrid, f.Table)
}
