package kspace

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// fft2D performs an unnormalized forward 2D Fourier transform of a real
// rows x cols image stored row-major. Rows go through gonum's real FFT and
// are completed by conjugate symmetry; columns go through the complex FFT.
//
// The result uses the same sign convention as the direct sum in
// decomposeRow: F(k,l) = sum img(r,c) * exp(-2πi(k*r/rows + l*c/cols)).
func fft2D(data []float64, rows, cols int) []complex128 {
	result := make([]complex128, rows*cols)

	rowFFT := fourier.NewFFT(cols)
	rowOutput := make([]complex128, cols/2+1)
	for r := 0; r < rows; r++ {
		rowFFT.Coefficients(rowOutput, data[r*cols:(r+1)*cols])

		full := result[r*cols : (r+1)*cols]
		copy(full, rowOutput)
		// F(n-k) = F*(k) for real input
		for j := len(rowOutput); j < cols; j++ {
			full[j] = cmplx.Conj(rowOutput[cols-j])
		}
	}

	colFFT := fourier.NewCmplxFFT(rows)
	colInput := make([]complex128, rows)
	colOutput := make([]complex128, rows)
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			colInput[r] = result[r*cols+c]
		}
		colFFT.Coefficients(colOutput, colInput)
		for r := 0; r < rows; r++ {
			result[r*cols+c] = colOutput[r]
		}
	}

	return result
}

// twiddles returns exp(-2πi j/n) for j in [0, n).
func twiddles(n int) []complex128 {
	w := make([]complex128, n)
	for j := range w {
		angle := -2 * math.Pi * float64(j) / float64(n)
		w[j] = complex(math.Cos(angle), math.Sin(angle))
	}
	return w
}
