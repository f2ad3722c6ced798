package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/perlin2d/internal/mbtiles"
	"github.com/MeKo-Tech/perlin2d/internal/tile"
)

func TestMBTilesHandler(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "noise.mbtiles")
	w, err := mbtiles.New(dbPath, mbtiles.Metadata{Name: "noise", Format: "png", Seed: "seed3", MaxZoom: 1})
	require.NoError(t, err)
	require.NoError(t, w.WriteTile(tile.NewCoords(1, 0, 1), []byte("tile-bytes")))
	require.NoError(t, w.Close())

	h, err := NewMBTilesHandler(MBTilesConfig{MBTilesPath: dbPath}, nil)
	require.NoError(t, err)
	defer h.Close()

	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tiles/z1_x0_y1.png", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "tile-bytes", rec.Body.String())

	for _, target := range []string{"/tiles/z1_x1_y1.png", "/tiles/z1_x0_y1@2x.png", "/tiles/bad.png"} {
		rec = httptest.NewRecorder()
		h.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}

	rec = httptest.NewRecorder()
	h.MetadataHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/metadata", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var meta map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	assert.Equal(t, "seed3", meta["seed"])
	assert.Equal(t, "xyz", meta["scheme"])
}

func TestNewMBTilesHandler_MissingFile(t *testing.T) {
	_, err := NewMBTilesHandler(MBTilesConfig{MBTilesPath: filepath.Join(t.TempDir(), "none.mbtiles")}, nil)
	assert.Error(t, err)
}
