package kspace

import (
	"errors"
	"fmt"
)

// ErrInvalidSize is returned when a grid dimension is not positive.
var ErrInvalidSize = errors.New("kspace: grid dimensions must be positive")

// IndexGrid is an immutable rows x cols grid of flat natural-order indices
// into a Tensor.
type IndexGrid struct {
	rows int
	cols int
	flat []int
}

// NaturalGrid returns the grid whose cell (k, l) holds k*cols + l.
func NaturalGrid(rows, cols int) (IndexGrid, error) {
	if rows <= 0 || cols <= 0 {
		return IndexGrid{}, fmt.Errorf("%w: got %dx%d", ErrInvalidSize, rows, cols)
	}
	flat := make([]int, rows*cols)
	for i := range flat {
		flat[i] = i
	}
	return IndexGrid{rows: rows, cols: cols, flat: flat}, nil
}

// BuildIndexMaps returns the natural grid and its zero-frequency-centered
// counterpart. The shifted grid is the one to use when translating a
// coordinate on the displayed magnitude map into a Tensor index.
func BuildIndexMaps(rows, cols int) (natural, shifted IndexGrid, err error) {
	natural, err = NaturalGrid(rows, cols)
	if err != nil {
		return IndexGrid{}, IndexGrid{}, err
	}
	return natural, FFTShift(natural), nil
}

// Dims returns the grid shape.
func (g IndexGrid) Dims() (rows, cols int) {
	return g.rows, g.cols
}

// Len is rows*cols.
func (g IndexGrid) Len() int {
	return len(g.flat)
}

// At returns the index stored at cell (r, c). It panics on out-of-range
// coordinates like a slice access does.
func (g IndexGrid) At(r, c int) int {
	if r < 0 || r >= g.rows || c < 0 || c >= g.cols {
		panic(fmt.Sprintf("kspace: cell (%d,%d) outside %dx%d grid", r, c, g.rows, g.cols))
	}
	return g.flat[r*g.cols+c]
}

// Flat returns a row-major copy of the grid.
func (g IndexGrid) Flat() []int {
	out := make([]int, len(g.flat))
	copy(out, g.flat)
	return out
}

// Position returns the cell holding index n, or ok=false when n is absent.
func (g IndexGrid) Position(n int) (r, c int, ok bool) {
	for p, v := range g.flat {
		if v == n {
			return p / g.cols, p % g.cols, true
		}
	}
	return 0, 0, false
}

// FFTShift moves the zero-frequency cell to the grid center by rolling
// rows forward by rows/2 and columns by cols/2.
func FFTShift(g IndexGrid) IndexGrid {
	return IndexGrid{
		rows: g.rows,
		cols: g.cols,
		flat: roll(g.flat, g.rows, g.cols, g.rows/2, g.cols/2),
	}
}

// IFFTShift undoes FFTShift for any grid size.
func IFFTShift(g IndexGrid) IndexGrid {
	return IndexGrid{
		rows: g.rows,
		cols: g.cols,
		flat: roll(g.flat, g.rows, g.cols, -(g.rows / 2), -(g.cols / 2)),
	}
}

// roll circularly shifts a row-major grid so that out[(r+dr)%rows][(c+dc)%cols] = src[r][c].
func roll[T any](src []T, rows, cols, dr, dc int) []T {
	out := make([]T, len(src))
	dr = ((dr % rows) + rows) % rows
	dc = ((dc % cols) + cols) % cols
	for r := 0; r < rows; r++ {
		dstRow := ((r + dr) % rows) * cols
		srcRow := r * cols
		for c := 0; c < cols; c++ {
			out[dstRow+(c+dc)%cols] = src[srcRow+c]
		}
	}
	return out
}
