// Package tile addresses square pixel tiles of the noise field across zoom
// levels and maps them to noise grid space.
package tile

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Coords identifies a tile at zoom Z, column X and row Y. Rows grow downward,
// matching image space.
type Coords struct {
	Z uint32
	X uint32
	Y uint32
}

// String returns the tile coordinate as a string in format "z{zoom}_x{x}_y{y}"
func (c Coords) String() string {
	return fmt.Sprintf("z%d_x%d_y%d", c.Z, c.X, c.Y)
}

// Path returns the flat file name for this tile.
func (c Coords) Path(extension string) string {
	return fmt.Sprintf("%s.%s", c.String(), extension)
}

// NestedPath returns "{z}/{x}/{y}.{ext}".
func (c Coords) NestedPath(extension string) string {
	return fmt.Sprintf("%d/%d/%d.%s", c.Z, c.X, c.Y, extension)
}

// NewCoords creates a new Coords from zoom, x, y values
func NewCoords(z, x, y uint32) Coords {
	return Coords{Z: z, X: x, Y: y}
}

// ParseCoords parses a tile string like "z3_x12_y7" into Coords
func ParseCoords(s string) (Coords, error) {
	var c Coords
	var z, x, y int64
	n, err := fmt.Sscanf(s, "z%d_x%d_y%d", &z, &x, &y)
	if err != nil || n != 3 {
		return c, fmt.Errorf("invalid tile coordinate format: %s", s)
	}
	if z < 0 || x < 0 || y < 0 || z > MaxZoom || x > math.MaxUint32 || y > math.MaxUint32 {
		return c, fmt.Errorf("tile coordinate out of range: %s", s)
	}
	if s != fmt.Sprintf("z%d_x%d_y%d", z, x, y) {
		return c, fmt.Errorf("invalid tile coordinate format: %s", s)
	}
	return NewCoords(uint32(z), uint32(x), uint32(y)), nil
}

// MaxZoom bounds zoom levels so that pixel offsets stay well inside int range.
const MaxZoom = 20

// Layout fixes the tile size in pixels and the grid cell size at zoom 0.
// Each zoom level doubles the pixels per grid cell.
type Layout struct {
	TileSize      int
	BasePxPerGrid float64
}

// PxPerGrid returns the grid cell size in pixels at zoom z.
func (l Layout) PxPerGrid(z uint32) float64 {
	return l.BasePxPerGrid * float64(uint64(1)<<z)
}

// Origin returns the global pixel position of the tile's top-left pixel.
func (l Layout) Origin(c Coords) (int, int) {
	return int(c.X) * l.TileSize, int(c.Y) * l.TileSize
}

// Bound returns the region of noise grid space covered by the tile.
func (l Layout) Bound(c Coords) orb.Bound {
	ppg := l.PxPerGrid(c.Z)
	size := float64(l.TileSize)
	return orb.Bound{
		Min: orb.Point{float64(c.X) * size / ppg, float64(c.Y) * size / ppg},
		Max: orb.Point{float64(c.X+1) * size / ppg, float64(c.Y+1) * size / ppg},
	}
}

// Range is an inclusive rectangle of tiles on one zoom level.
type Range struct {
	Z          uint32
	MinX, MaxX uint32
	MinY, MaxY uint32
}

// Count returns the number of tiles in the range.
func (r Range) Count() uint64 {
	return (uint64(r.MaxX) - uint64(r.MinX) + 1) * (uint64(r.MaxY) - uint64(r.MinY) + 1)
}

// ForEach calls fn for each tile in the range, row by row.
func (r Range) ForEach(fn func(Coords)) {
	// uint64 counters so a range ending at math.MaxUint32 cannot wrap.
	for y := uint64(r.MinY); y <= uint64(r.MaxY); y++ {
		for x := uint64(r.MinX); x <= uint64(r.MaxX); x++ {
			fn(NewCoords(r.Z, uint32(x), uint32(y)))
		}
	}
}

// RangeAt returns the tiles at zoom z that intersect b. Grid space left of or
// above the origin is not tiled; ok is false when nothing remains.
func (l Layout) RangeAt(b orb.Bound, z uint32) (Range, bool) {
	if b.Max[0] <= 0 || b.Max[1] <= 0 || b.Max[0] <= b.Min[0] || b.Max[1] <= b.Min[1] {
		return Range{}, false
	}
	scale := l.PxPerGrid(z) / float64(l.TileSize)

	minX := math.Floor(math.Max(b.Min[0], 0) * scale)
	minY := math.Floor(math.Max(b.Min[1], 0) * scale)
	maxX := math.Ceil(b.Max[0]*scale) - 1
	maxY := math.Ceil(b.Max[1]*scale) - 1
	if !(maxX < math.MaxUint32 && maxY < math.MaxUint32) {
		return Range{}, false
	}

	return Range{
		Z:    z,
		MinX: uint32(minX),
		MaxX: uint32(math.Max(minX, maxX)),
		MinY: uint32(minY),
		MaxY: uint32(math.Max(minY, maxY)),
	}, true
}

// MaxTiles caps the number of tiles TilesInBound will enumerate.
const MaxTiles = 1 << 22

// ErrTooManyTiles is returned by TilesInBound when the region holds more than
// MaxTiles tiles.
var ErrTooManyTiles = errors.New("too many tiles")

// TilesInBound returns all tiles intersecting b across the zoom range. Grid
// space is unbounded, so regions above MaxTiles are rejected before anything
// is allocated.
func (l Layout) TilesInBound(b orb.Bound, zoomMin, zoomMax int) ([]Coords, error) {
	n := l.TileCount(b, zoomMin, zoomMax)
	if n > MaxTiles {
		return nil, fmt.Errorf("%w: bound %v at zoom %d-%d holds %d tiles, limit is %d", ErrTooManyTiles, b, zoomMin, zoomMax, n, MaxTiles)
	}
	tiles := make([]Coords, 0, n)
	for z := zoomMin; z <= zoomMax; z++ {
		r, ok := l.RangeAt(b, uint32(z))
		if !ok {
			continue
		}
		r.ForEach(func(c Coords) {
			tiles = append(tiles, c)
		})
	}
	return tiles, nil
}

// TileCount returns the number of tiles intersecting b across the zoom range,
// without allocating them. The sum saturates at math.MaxUint64.
func (l Layout) TileCount(b orb.Bound, zoomMin, zoomMax int) uint64 {
	var count uint64
	for z := zoomMin; z <= zoomMax; z++ {
		if r, ok := l.RangeAt(b, uint32(z)); ok {
			n := r.Count()
			if count > math.MaxUint64-n {
				return math.MaxUint64
			}
			count += n
		}
	}
	return count
}
