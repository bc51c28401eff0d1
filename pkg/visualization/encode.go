package visualization

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// ParseInterpolator maps a config name to an x/image/draw interpolator.
func ParseInterpolator(name string) (draw.Interpolator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "nearest":
		return draw.NearestNeighbor, nil
	case "approxbilinear":
		return draw.ApproxBiLinear, nil
	case "bilinear":
		return draw.BiLinear, nil
	case "catmullrom", "bicubic":
		return draw.CatmullRom, nil
	default:
		return nil, fmt.Errorf("visualization: unknown interpolation %q", name)
	}
}

// Upscale resizes a raster to width x height. A nil interpolator means
// nearest neighbour, which keeps single-frequency stripes crisp.
func Upscale(img *image.Gray, width, height int, interp draw.Interpolator) *image.Gray {
	if interp == nil {
		interp = draw.NearestNeighbor
	}
	dst := image.NewGray(image.Rect(0, 0, width, height))
	interp.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// DataURI returns img as an embeddable data:image/png;base64 URI.
func DataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// SavePNG writes img to path, creating parent directories as needed.
func SavePNG(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer file.Close()

	return EncodePNG(file, img)
}

// SaveSequence writes images as prefix_000.png, prefix_001.png, ... in dir.
func SaveSequence(images []*image.Gray, dir, prefix string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for i, img := range images {
		filename := filepath.Join(dir, fmt.Sprintf("%s_%03d.png", prefix, i))
		if err := SavePNG(img, filename); err != nil {
			return err
		}
	}
	return nil
}
