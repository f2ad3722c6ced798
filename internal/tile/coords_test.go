package tile

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestCoordsString(t *testing.T) {
	tests := []struct {
		coords   Coords
		expected string
	}{
		{Coords{Z: 3, X: 12, Y: 7}, "z3_x12_y7"},
		{Coords{Z: 0, X: 0, Y: 0}, "z0_x0_y0"},
		{Coords{Z: 18, X: 12345, Y: 67890}, "z18_x12345_y67890"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := tt.coords.String()
			if result != tt.expected {
				t.Errorf("String() = %s, want %s", result, tt.expected)
			}
		})
	}
}

func TestCoordsPaths(t *testing.T) {
	coords := Coords{Z: 2, X: 5, Y: 9}
	if got := coords.Path("png"); got != "z2_x5_y9.png" {
		t.Errorf("Path(png) = %s", got)
	}
	if got := coords.NestedPath("png"); got != "2/5/9.png" {
		t.Errorf("NestedPath(png) = %s", got)
	}
}

func TestParseCoords(t *testing.T) {
	tests := []struct {
		input   string
		want    Coords
		wantErr bool
	}{
		{input: "z3_x12_y7", want: Coords{Z: 3, X: 12, Y: 7}},
		{input: "z0_x0_y0", want: Coords{}},
		{input: "z3_x12", wantErr: true},
		{input: "z3_x-1_y7", wantErr: true},
		{input: "z99_x1_y1", wantErr: true},
		{input: "z3_x12_y7junk", wantErr: true},
		{input: "tile", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCoords(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseCoords(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCoords(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseCoords(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLayoutBound(t *testing.T) {
	l := Layout{TileSize: 256, BasePxPerGrid: 128}

	b := l.Bound(NewCoords(0, 0, 0))
	if b.Min != (orb.Point{0, 0}) || b.Max != (orb.Point{2, 2}) {
		t.Errorf("z0 tile bound = %v, want [0,0]-[2,2]", b)
	}

	b = l.Bound(NewCoords(1, 3, 1))
	if b.Min != (orb.Point{3, 1}) || b.Max != (orb.Point{4, 2}) {
		t.Errorf("z1 tile bound = %v, want [3,1]-[4,2]", b)
	}

	if got := l.PxPerGrid(3); got != 1024 {
		t.Errorf("PxPerGrid(3) = %v, want 1024", got)
	}
	if x, y := l.Origin(NewCoords(1, 3, 1)); x != 768 || y != 256 {
		t.Errorf("Origin = (%d, %d), want (768, 256)", x, y)
	}
}

func TestTilesInBound(t *testing.T) {
	l := Layout{TileSize: 256, BasePxPerGrid: 128}
	b := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{4, 2}}

	// z0: 2 grid cells per tile -> 2x1 tiles; z1: 1 cell per tile -> 4x2 tiles.
	tiles, err := l.TilesInBound(b, 0, 1)
	if err != nil {
		t.Fatalf("TilesInBound: %v", err)
	}
	if len(tiles) != 2+8 {
		t.Fatalf("got %d tiles, want 10: %v", len(tiles), tiles)
	}
	if n := l.TileCount(b, 0, 1); n != uint64(len(tiles)) {
		t.Errorf("TileCount = %d, want %d", n, len(tiles))
	}
	if tiles[0] != NewCoords(0, 0, 0) || tiles[1] != NewCoords(0, 1, 0) {
		t.Errorf("unexpected z0 tiles: %v", tiles[:2])
	}

	seen := map[Coords]bool{}
	for _, c := range tiles {
		if seen[c] {
			t.Errorf("duplicate tile %s", c)
		}
		seen[c] = true
	}
}

func TestRangeAt_PartialAndEmpty(t *testing.T) {
	l := Layout{TileSize: 100, BasePxPerGrid: 100}

	r, ok := l.RangeAt(orb.Bound{Min: orb.Point{-3, 0.5}, Max: orb.Point{1.5, 0.7}}, 0)
	if !ok {
		t.Fatal("expected a range")
	}
	if r.MinX != 0 || r.MaxX != 1 || r.MinY != 0 || r.MaxY != 0 {
		t.Errorf("RangeAt = %+v", r)
	}

	if _, ok := l.RangeAt(orb.Bound{Min: orb.Point{-3, -3}, Max: orb.Point{-1, -1}}, 0); ok {
		t.Error("expected no tiles left of the origin")
	}
	if _, ok := l.RangeAt(orb.Bound{Min: orb.Point{2, 2}, Max: orb.Point{2, 2}}, 0); ok {
		t.Error("expected no tiles for an empty bound")
	}
}

func TestRangeAt_RejectsLastColumn(t *testing.T) {
	l := Layout{TileSize: 1, BasePxPerGrid: 1}

	b := orb.Bound{Min: orb.Point{4294967295, 0}, Max: orb.Point{4294967296, 1}}
	if r, ok := l.RangeAt(b, 0); ok {
		t.Errorf("expected no range ending at math.MaxUint32, got %+v", r)
	}
	b = orb.Bound{Min: orb.Point{0, 4294967295}, Max: orb.Point{1, 4294967296}}
	if r, ok := l.RangeAt(b, 0); ok {
		t.Errorf("expected no range ending at math.MaxUint32, got %+v", r)
	}
	if _, ok := l.RangeAt(orb.Bound{Max: orb.Point{1e300, 1}}, 0); ok {
		t.Error("expected no range for a huge bound")
	}
	if _, ok := l.RangeAt(orb.Bound{Max: orb.Point{math.Inf(1), 1}}, 0); ok {
		t.Error("expected no range for an infinite bound")
	}

	b = orb.Bound{Min: orb.Point{4294967293, 0}, Max: orb.Point{4294967295, 1}}
	r, ok := l.RangeAt(b, 0)
	if !ok {
		t.Fatal("expected a range just below math.MaxUint32")
	}
	if r.MaxX != math.MaxUint32-1 {
		t.Errorf("MaxX = %d, want %d", r.MaxX, uint32(math.MaxUint32-1))
	}
}

func TestRangeForEach_NearUint32Limit(t *testing.T) {
	r := Range{MinX: math.MaxUint32 - 2, MaxX: math.MaxUint32, MinY: 0, MaxY: 0}

	visited := 0
	r.ForEach(func(c Coords) {
		visited++
		if visited > 3 {
			t.Fatalf("ForEach wrapped around at %s", c)
		}
	})
	if visited != 3 {
		t.Errorf("visited %d tiles, want 3", visited)
	}
	if r.Count() != 3 {
		t.Errorf("Count = %d, want 3", r.Count())
	}

	full := Range{MaxX: math.MaxUint32 - 1, MaxY: math.MaxUint32 - 1}
	if want := uint64(math.MaxUint32) * uint64(math.MaxUint32); full.Count() != want {
		t.Errorf("Count = %d, want %d", full.Count(), want)
	}
}

func TestTilesInBound_TooManyTiles(t *testing.T) {
	l := Layout{TileSize: 256, BasePxPerGrid: 100}
	b := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1e6, 1e6}}

	if n := l.TileCount(b, 0, 0); n <= MaxTiles {
		t.Fatalf("TileCount = %d, expected more than %d", n, MaxTiles)
	}
	tiles, err := l.TilesInBound(b, 0, 0)
	if !errors.Is(err, ErrTooManyTiles) {
		t.Fatalf("err = %v, want ErrTooManyTiles", err)
	}
	if tiles != nil {
		t.Errorf("expected no tiles, got %d", len(tiles))
	}

	// Deep zooms over a modest region overflow the cap as well.
	if _, err := l.TilesInBound(orb.Bound{Max: orb.Point{100, 100}}, 0, MaxZoom); !errors.Is(err, ErrTooManyTiles) {
		t.Errorf("err = %v, want ErrTooManyTiles", err)
	}
}
