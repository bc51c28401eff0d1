// Package visualization turns real-valued grids into 8-bit grayscale
// rasters and encodes them for display.
package visualization

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DefaultEpsilon keeps the rescale denominator away from zero for
// constant grids.
const DefaultEpsilon = 1e-5

// NormalizeSlice min-max rescales a row-major rows x cols grid into [0,255]:
//
//	out = round((v - min) / (max - min + eps) * 255)
//
// Non-finite values are ignored when finding the range and map to 0. A
// constant grid maps to all zeros.
func NormalizeSlice(values []float64, rows, cols int, eps float64) (*image.Gray, error) {
	if rows <= 0 || cols <= 0 || len(values) != rows*cols {
		return nil, fmt.Errorf("visualization: %d values do not form a %dx%d grid", len(values), rows, cols)
	}
	if eps <= 0 {
		eps = DefaultEpsilon
	}

	lo, hi := finiteRange(values)
	scale := 255 / (hi - lo + eps)

	img := image.NewGray(image.Rect(0, 0, cols, rows))
	for r := 0; r < rows; r++ {
		row := img.Pix[r*img.Stride : r*img.Stride+cols]
		for c := range row {
			v := values[r*cols+c]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				row[c] = 0
				continue
			}
			row[c] = toByte((v - lo) * scale)
		}
	}
	return img, nil
}

// NormalizeToU8 rescales any matrix the same way as NormalizeSlice.
func NormalizeToU8(m mat.Matrix, eps float64) *image.Gray {
	rows, cols := m.Dims()
	values := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			values[r*cols+c] = m.At(r, c)
		}
	}
	img, err := NormalizeSlice(values, rows, cols, eps)
	if err != nil {
		// only reachable for an empty matrix
		return image.NewGray(image.Rect(0, 0, cols, rows))
	}
	return img
}

// Uniform returns a rows x cols raster filled with a single gray level.
func Uniform(rows, cols int, level uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	for i := range img.Pix {
		img.Pix[i] = level
	}
	return img
}

// GrayToMatrix converts a grayscale raster back to intensities.
func GrayToMatrix(img *image.Gray) *mat.Dense {
	b := img.Bounds()
	out := mat.NewDense(b.Dy(), b.Dx(), nil)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(y, x, float64(img.GrayAt(b.Min.X+x, b.Min.Y+y).Y))
		}
	}
	return out
}

func finiteRange(values []float64) (lo, hi float64) {
	found := false
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if !found {
			lo, hi = v, v
			found = true
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func toByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
