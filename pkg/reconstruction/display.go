package reconstruction

import (
	"fmt"
	"image"
	"math"

	"github.com/dnaligase/kspace-vis/pkg/kspace"
	"github.com/dnaligase/kspace-vis/pkg/visualization"
)

// DisplaySet holds one ready-to-show 8-bit preview per cell of the
// displayed grid: position p is the contribution of the frequency drawn at
// cell (p / cols, p % cols) of the zero-frequency-centered magnitude map.
type DisplaySet struct {
	rows int
	cols int
	// pix[p*rows*cols : (p+1)*rows*cols] is preview p, row-major
	pix []uint8
}

// DisplayParams controls how previews are rendered.
type DisplayParams struct {
	Epsilon float64
	// SubstituteDCMean replaces the DC preview, which normalizes to a flat
	// black raster, with a flat raster at the source mean intensity.
	SubstituteDCMean bool
	Mean             float64
}

// BuildDisplaySet reorders and normalizes every contribution of t into
// display order using the shifted index grid.
func BuildDisplaySet(t *kspace.Tensor, shifted kspace.IndexGrid, params DisplayParams) (*DisplaySet, error) {
	rows, cols := t.Dims()
	gr, gc := shifted.Dims()
	if rows != gr || cols != gc {
		return nil, fmt.Errorf("reconstruction: index grid %dx%d does not match tensor %dx%d", gr, gc, rows, cols)
	}

	size := rows * cols
	d := &DisplaySet{rows: rows, cols: cols, pix: make([]uint8, size*size)}
	order := shifted.Flat()
	scratch := make([]float64, size)

	for p, n := range order {
		out := d.pix[p*size : (p+1)*size]
		if n == 0 && params.SubstituteDCMean {
			level := uint8(math.Max(0, math.Min(255, math.Round(params.Mean))))
			for i := range out {
				out[i] = level
			}
			continue
		}

		scratch = t.Values(n, scratch)
		img, err := visualization.NormalizeSlice(scratch, rows, cols, params.Epsilon)
		if err != nil {
			return nil, err
		}
		copy(out, img.Pix)
	}
	return d, nil
}

// Len returns the number of previews.
func (d *DisplaySet) Len() int {
	return d.rows * d.cols
}

// At returns a copy of preview p.
func (d *DisplaySet) At(p int) (*image.Gray, error) {
	if p < 0 || p >= d.Len() {
		return nil, fmt.Errorf("reconstruction: preview %d outside set of %d", p, d.Len())
	}
	size := d.rows * d.cols
	img := image.NewGray(image.Rect(0, 0, d.cols, d.rows))
	copy(img.Pix, d.pix[p*size:(p+1)*size])
	return img, nil
}

// AtCell returns the preview for displayed cell (row, col), clamped to the grid.
func (d *DisplaySet) AtCell(row, col int) *image.Gray {
	row = clampIndex(row, d.rows)
	col = clampIndex(col, d.cols)
	img, _ := d.At(row*d.cols + col)
	return img
}
