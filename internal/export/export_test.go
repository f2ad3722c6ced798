package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x + y) * 7)})
		}
	}
	return img
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		in      string
		want    png.CompressionLevel
		wantErr bool
	}{
		{"", png.DefaultCompression, false},
		{"default", png.DefaultCompression, false},
		{"speed", png.BestSpeed, false},
		{"BEST", png.BestCompression, false},
		{"none", png.NoCompression, false},
		{"zstd", png.DefaultCompression, true},
	}
	for _, tt := range tests {
		got, err := ParseCompression(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	img := testImage(16, 8)
	data, err := EncodeBytes(img, Options{Compression: "best"})
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	r, _, _, _ := decoded.At(3, 2).RGBA()
	assert.Equal(t, uint32(img.GrayAt(3, 2).Y)*0x101, r)
}

func TestResize(t *testing.T) {
	img := testImage(10, 6)

	out, err := Resize(img, 2, "nearest")
	require.NoError(t, err)
	assert.Equal(t, 20, out.Bounds().Dx())
	assert.Equal(t, 12, out.Bounds().Dy())
	_, isGray := out.(*image.Gray)
	assert.True(t, isGray)

	same, err := Resize(img, 1, "bogus")
	require.NoError(t, err)
	assert.Same(t, img, same)

	_, err = Resize(img, 0.01, "linear")
	assert.Error(t, err)

	_, err = Resize(img, 2, "bogus")
	assert.Error(t, err)
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, Options{}.Validate())
	assert.NoError(t, Options{Compression: "speed", Scale: 0.5, Resampling: "lanczos"}.Validate())
	assert.Error(t, Options{Scale: -1}.Validate())
	assert.Error(t, Options{Resampling: "box"}.Validate())
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "out.png")
	require.NoError(t, WriteFile(path, testImage(4, 4), Options{}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Width)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}
