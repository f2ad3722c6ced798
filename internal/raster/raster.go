// Package raster paints viewports of the noise field into grayscale images.
package raster

import (
	"context"
	"image"
	"image/color"
	"math"

	"github.com/dgravesa/go-parallel/parallel"
	"golang.org/x/image/vector"

	"github.com/MeKo-Tech/perlin2d/internal/noise"
)

// Viewport selects a Width x Height window of global pixel space whose
// top-left pixel is (OffsetX, OffsetY). Pixel (px, py) samples the field at
// (px/PxPerGrid, py/PxPerGrid).
type Viewport struct {
	Width     int
	Height    int
	OffsetX   int
	OffsetY   int
	PxPerGrid float64
}

// Options controls the grid-line overlay.
type Options struct {
	Grid      bool
	GridColor color.Gray
	GridWidth float32
}

// DefaultOptions draws no grid; when enabled the grid is 1px black.
func DefaultOptions() Options {
	return Options{
		GridColor: color.Gray{Y: 0},
		GridWidth: 1,
	}
}

// Renderer paints a noise table.
type Renderer struct {
	table *noise.Table
	opts  Options
}

// NewRenderer creates a renderer over t. The table must not be reseeded while
// Render runs.
func NewRenderer(t *noise.Table, opts Options) *Renderer {
	if opts.GridWidth <= 0 {
		opts.GridWidth = 1
	}
	return &Renderer{table: t, opts: opts}
}

// Render evaluates one noise sample per pixel. Rows are painted in parallel.
func (r *Renderer) Render(vp Viewport) *image.Gray {
	img, _ := r.RenderContext(context.Background(), vp)
	return img
}

// RenderContext is Render with cancellation. ctx is checked before each row;
// once it is done the remaining rows are skipped and ctx.Err() is returned
// with the partially painted image.
func (r *Renderer) RenderContext(ctx context.Context, vp Viewport) (*image.Gray, error) {
	if vp.PxPerGrid <= 0 {
		vp.PxPerGrid = noise.DefaultPxPerGrid
	}
	img := image.NewGray(image.Rect(0, 0, vp.Width, vp.Height))
	if vp.Width <= 0 || vp.Height <= 0 {
		return img, ctx.Err()
	}

	parallel.For(vp.Height, func(y, _ int) {
		if ctx.Err() != nil {
			return
		}
		row := img.Pix[y*img.Stride : y*img.Stride+vp.Width]
		gy := float64(vp.OffsetY+y) / vp.PxPerGrid
		for x := range row {
			gx := float64(vp.OffsetX+x) / vp.PxPerGrid
			row[x] = ToGray(noise.Evaluate(gx, gy, r.table))
		}
	})
	if err := ctx.Err(); err != nil {
		return img, err
	}

	if r.opts.Grid {
		r.drawGrid(img, vp)
	}
	return img, nil
}

// ToGray maps a noise value to a byte by truncating 255*v, clamped to [0,255].
func ToGray(v float64) uint8 {
	b := math.Trunc(255 * v)
	switch {
	case math.IsNaN(b), b <= 0:
		return 0
	case b >= 255:
		return 255
	}
	return uint8(b)
}

// GridLines returns the local pixel offsets of grid lines that fall inside a
// span of n pixels starting at global pixel offset.
func GridLines(offset, n int, pxPerGrid float64) []float64 {
	if n <= 0 || pxPerGrid <= 0 {
		return nil
	}
	var lines []float64
	k := math.Ceil(float64(offset) / pxPerGrid)
	for {
		p := k*pxPerGrid - float64(offset)
		if p >= float64(n) {
			break
		}
		lines = append(lines, p)
		k++
	}
	return lines
}

func (r *Renderer) drawGrid(dst *image.Gray, vp Viewport) {
	w := float32(vp.Width)
	h := float32(vp.Height)
	half := r.opts.GridWidth / 2

	ras := vector.NewRasterizer(vp.Width, vp.Height)
	for _, x := range GridLines(vp.OffsetX, vp.Width, vp.PxPerGrid) {
		fx := float32(x)
		addRect(ras, clamp32(fx-half, 0, w), 0, clamp32(fx+half, 0, w), h)
	}
	for _, y := range GridLines(vp.OffsetY, vp.Height, vp.PxPerGrid) {
		fy := float32(y)
		addRect(ras, 0, clamp32(fy-half, 0, h), w, clamp32(fy+half, 0, h))
	}

	src := image.NewUniform(r.opts.GridColor)
	ras.Draw(dst, dst.Bounds(), src, image.Point{})
}

func addRect(ras *vector.Rasterizer, x0, y0, x1, y1 float32) {
	if x1 <= x0 || y1 <= y0 {
		return
	}
	ras.MoveTo(x0, y0)
	ras.LineTo(x1, y0)
	ras.LineTo(x1, y1)
	ras.LineTo(x0, y1)
	ras.ClosePath()
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FitToGrid rounds n down to a whole number of grid cells, never below one cell.
func FitToGrid(n, pxPerGrid int) int {
	if pxPerGrid <= 0 || n < pxPerGrid {
		return n
	}
	return (n / pxPerGrid) * pxPerGrid
}
