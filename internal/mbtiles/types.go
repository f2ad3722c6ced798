// Package mbtiles stores noise tile pyramids in MBTiles (SQLite) files.
//
// Rows are stored in XYZ order (row 0 at the top) and the file is tagged
// with scheme=xyz, since a noise pyramid has no fixed world height to flip
// against.
package mbtiles

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// ErrTileNotFound is returned by Reader.ReadTile for missing tiles.
var ErrTileNotFound = errors.New("tile not found")

// Metadata contains MBTiles metadata fields plus the noise parameters needed
// to reproduce the tiles.
type Metadata struct {
	Name        string
	Description string
	Format      string
	Type        string
	Version     string
	Seed        string // seed label, "default" for the canonical table
	Bounds      orb.Bound
	MinZoom     int
	MaxZoom     int
	TileSize    int
	PxPerGrid   float64 // grid cell size in pixels at zoom 0
}

// ToMap converts Metadata to name/value rows.
func (m Metadata) ToMap() map[string]string {
	result := map[string]string{"scheme": "xyz"}

	set := func(k, v string) {
		if v != "" {
			result[k] = v
		}
	}
	set("name", m.Name)
	set("description", m.Description)
	set("format", m.Format)
	set("type", m.Type)
	set("version", m.Version)
	set("seed", m.Seed)

	result["minzoom"] = strconv.Itoa(m.MinZoom)
	result["maxzoom"] = strconv.Itoa(m.MaxZoom)
	if m.TileSize > 0 {
		result["tile_size"] = strconv.Itoa(m.TileSize)
	}
	if m.PxPerGrid > 0 {
		result["px_per_grid"] = strconv.FormatFloat(m.PxPerGrid, 'g', -1, 64)
	}
	if m.Bounds != (orb.Bound{}) {
		result["bounds"] = fmt.Sprintf("%g,%g,%g,%g",
			m.Bounds.Min[0], m.Bounds.Min[1], m.Bounds.Max[0], m.Bounds.Max[1])
	}
	return result
}

// ParseMetadata is the inverse of ToMap. Unparseable numeric fields are left
// at their zero value.
func ParseMetadata(rows map[string]string) Metadata {
	m := Metadata{
		Name:        rows["name"],
		Description: rows["description"],
		Format:      rows["format"],
		Type:        rows["type"],
		Version:     rows["version"],
		Seed:        rows["seed"],
	}
	if v, err := strconv.Atoi(rows["minzoom"]); err == nil {
		m.MinZoom = v
	}
	if v, err := strconv.Atoi(rows["maxzoom"]); err == nil {
		m.MaxZoom = v
	}
	if v, err := strconv.Atoi(rows["tile_size"]); err == nil {
		m.TileSize = v
	}
	if v, err := strconv.ParseFloat(rows["px_per_grid"], 64); err == nil {
		m.PxPerGrid = v
	}
	if parts := strings.Split(rows["bounds"], ","); len(parts) == 4 {
		var vals [4]float64
		ok := true
		for i, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				ok = false
				break
			}
			vals[i] = f
		}
		if ok {
			m.Bounds = orb.Bound{Min: orb.Point{vals[0], vals[1]}, Max: orb.Point{vals[2], vals[3]}}
		}
	}
	return m
}
