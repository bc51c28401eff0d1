package kspace

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/dnaligase/kspace-vis/internal/models"
)

// Tensor holds one real contribution image per frequency pair, in natural
// order, together with the complex coefficients they were built from.
//
// Entries are scaled by 1/(rows*cols) so that summing every entry yields
// the source image exactly and the (0,0) entry is the constant image mean.
// A Tensor is never modified after Decompose returns and may be shared by
// any number of readers.
type Tensor struct {
	rows       int
	cols       int
	convention Convention
	coefs      []complex128
	// data[n*rows*cols : (n+1)*rows*cols] is contribution n, row-major
	data []float32
}

// Dims returns the shape of each contribution image.
func (t *Tensor) Dims() (rows, cols int) {
	return t.rows, t.cols
}

// Len returns the number of contribution images, rows*cols.
func (t *Tensor) Len() int {
	return len(t.coefs)
}

// Convention reports which basis sign the contributions were built with.
func (t *Tensor) Convention() Convention {
	return t.convention
}

// Frequency maps a natural index to its (k, l) pair.
func (t *Tensor) Frequency(n int) models.FrequencyIndex {
	return models.FrequencyFromNatural(n, t.cols)
}

// Coefficient returns the unnormalized Fourier coefficient of entry n.
func (t *Tensor) Coefficient(n int) complex128 {
	return t.coefs[n]
}

// Coefficients returns a copy of all coefficients in natural order.
func (t *Tensor) Coefficients() []complex128 {
	out := make([]complex128, len(t.coefs))
	copy(out, t.coefs)
	return out
}

// Values copies contribution n into dst, allocating when dst is too short,
// and returns the filled slice.
func (t *Tensor) Values(n int, dst []float64) []float64 {
	size := t.rows * t.cols
	if cap(dst) < size {
		dst = make([]float64, size)
	}
	dst = dst[:size]
	for i, v := range t.entry(n) {
		dst[i] = float64(v)
	}
	return dst
}

// Contribution returns contribution n as a new matrix.
func (t *Tensor) Contribution(n int) *mat.Dense {
	return mat.NewDense(t.rows, t.cols, t.Values(n, nil))
}

// AddTo accumulates contribution n into dst, which must hold rows*cols values.
func (t *Tensor) AddTo(dst []float64, n int) error {
	if len(dst) != t.rows*t.cols {
		return fmt.Errorf("kspace: accumulator has %d values, want %d", len(dst), t.rows*t.cols)
	}
	for i, v := range t.entry(n) {
		dst[i] += float64(v)
	}
	return nil
}

// Sum adds up the given natural-order entries into a new row-major slice.
func (t *Tensor) Sum(indices []int) ([]float64, error) {
	acc := make([]float64, t.rows*t.cols)
	for _, n := range indices {
		if n < 0 || n >= t.Len() {
			return nil, fmt.Errorf("kspace: index %d outside tensor of %d entries", n, t.Len())
		}
		if err := t.AddTo(acc, n); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func (t *Tensor) entry(n int) []float32 {
	size := t.rows * t.cols
	return t.data[n*size : (n+1)*size]
}
