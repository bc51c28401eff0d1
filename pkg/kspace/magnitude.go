package kspace

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/mat"
)

// MagnitudeFloor bounds spectrum magnitudes from below before taking the
// logarithm, so empty frequencies map to a finite value.
const MagnitudeFloor = 1e-12

// Magnitude returns log2(|F|) of the 2D DFT of img, zero-frequency
// centered. It is a display artifact: it is computed with an FFT and is
// not required to match the Tensor coefficients bit for bit.
func Magnitude(img mat.Matrix) *mat.Dense {
	rows, cols := img.Dims()
	x := make([][]float64, rows)
	for r := range x {
		x[r] = make([]float64, cols)
		for c := range x[r] {
			x[r][c] = img.At(r, c)
		}
	}

	spectrum := fft.FFT2Real(x)

	flat := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			flat[r*cols+c] = math.Log2(math.Max(cmplx.Abs(spectrum[r][c]), MagnitudeFloor))
		}
	}
	return mat.NewDense(rows, cols, roll(flat, rows, cols, rows/2, cols/2))
}
