package visualization

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func stripes(rows, cols int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if x%2 == 0 {
				img.Pix[y*img.Stride+x] = 255
			}
		}
	}
	return img
}

func TestDataURI(t *testing.T) {
	uri, err := DataURI(stripes(4, 4))
	if err != nil {
		t.Fatalf("DataURI failed: %v", err)
	}

	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("Expected %q prefix, got %q", prefix, uri[:30])
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatalf("Invalid base64 payload: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Payload is not a PNG: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
		t.Errorf("Expected 4x4 image, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestUpscaleNearest(t *testing.T) {
	src := stripes(2, 2)
	dst := Upscale(src, 200, 200, nil)
	if b := dst.Bounds(); b.Dx() != 200 || b.Dy() != 200 {
		t.Fatalf("Expected 200x200, got %dx%d", b.Dx(), b.Dy())
	}
	if dst.GrayAt(10, 10).Y != 255 || dst.GrayAt(150, 10).Y != 0 {
		t.Errorf("Expected nearest-neighbour blocks, got %d and %d",
			dst.GrayAt(10, 10).Y, dst.GrayAt(150, 10).Y)
	}
}

func TestParseInterpolator(t *testing.T) {
	for _, name := range []string{"", "nearest", "bilinear", "ApproxBiLinear", "catmullrom", "bicubic"} {
		if _, err := ParseInterpolator(name); err != nil {
			t.Errorf("Expected %q to parse, got %v", name, err)
		}
	}
	if _, err := ParseInterpolator("lanczos9"); err == nil {
		t.Errorf("Expected error for unknown interpolator")
	}
}

func TestSaveSequence(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "previews")
	if err := SaveSequence([]*image.Gray{stripes(3, 3), Uniform(3, 3, 9)}, out, "basis"); err != nil {
		t.Fatalf("SaveSequence failed: %v", err)
	}
	for _, name := range []string{"basis_000.png", "basis_001.png"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("Expected %s to exist: %v", name, err)
		}
	}
}
