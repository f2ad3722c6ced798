// Package export encodes rendered noise images.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/gift"
)

// Options controls PNG output.
type Options struct {
	// Compression is one of "default", "speed", "best" or "none".
	Compression string
	// Scale resizes the image before encoding. 0 or 1 leaves it untouched.
	Scale float64
	// Resampling is one of "nearest", "linear", "cubic" or "lanczos".
	Resampling string
}

// ParseCompression maps a compression name to a png level.
func ParseCompression(s string) (png.CompressionLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return png.DefaultCompression, nil
	case "speed", "fast":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	case "none":
		return png.NoCompression, nil
	default:
		return png.DefaultCompression, fmt.Errorf("unknown png compression %q (use default, speed, best, none)", s)
	}
}

func resampling(s string) (gift.Resampling, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nearest":
		return gift.NearestNeighborResampling, nil
	case "linear":
		return gift.LinearResampling, nil
	case "cubic":
		return gift.CubicResampling, nil
	case "lanczos":
		return gift.LanczosResampling, nil
	default:
		return nil, fmt.Errorf("unknown resampling %q (use nearest, linear, cubic, lanczos)", s)
	}
}

// Validate reports option errors without encoding anything.
func (o Options) Validate() error {
	if _, err := ParseCompression(o.Compression); err != nil {
		return err
	}
	if _, err := resampling(o.Resampling); err != nil {
		return err
	}
	if o.Scale < 0 || math.IsNaN(o.Scale) || math.IsInf(o.Scale, 0) {
		return fmt.Errorf("scale must be a positive number, got %v", o.Scale)
	}
	return nil
}

// Resize scales img by factor using the named resampling filter.
func Resize(img image.Image, factor float64, filter string) (image.Image, error) {
	if factor == 0 || factor == 1 {
		return img, nil
	}
	res, err := resampling(filter)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	w := int(math.Round(float64(b.Dx()) * factor))
	h := int(math.Round(float64(b.Dy()) * factor))
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("scale %v shrinks %dx%d image to nothing", factor, b.Dx(), b.Dy())
	}

	g := gift.New(gift.Resize(w, h, res))
	if _, ok := img.(*image.Gray); ok {
		dst := image.NewGray(g.Bounds(b))
		g.Draw(dst, img)
		return dst, nil
	}
	out := image.NewNRGBA(g.Bounds(b))
	g.Draw(out, img)
	return out, nil
}

// Encode writes img as PNG.
func Encode(w io.Writer, img image.Image, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	level, _ := ParseCompression(opts.Compression)

	out, err := Resize(img, opts.Scale, opts.Resampling)
	if err != nil {
		return err
	}

	enc := png.Encoder{CompressionLevel: level}
	if err := enc.Encode(w, out); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// EncodeBytes returns img encoded as PNG.
func EncodeBytes(img image.Image, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile encodes img to path, creating parent directories. The file is
// written to a temporary name first and renamed into place.
func WriteFile(path string, img image.Image, opts Options) error {
	data, err := EncodeBytes(img, opts)
	if err != nil {
		return err
	}
	return WriteBytes(path, data)
}

// WriteBytes writes data to path atomically.
func WriteBytes(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.png")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName) // nolint:errcheck
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) // nolint:errcheck
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName) // nolint:errcheck
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
