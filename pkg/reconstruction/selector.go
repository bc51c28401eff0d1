package reconstruction

import (
	"errors"
	"fmt"
	"image"

	"github.com/dnaligase/kspace-vis/internal/models"
	"github.com/dnaligase/kspace-vis/pkg/kspace"
	"github.com/dnaligase/kspace-vis/pkg/visualization"
)

// ErrUnknownSelection is returned for a Selection with an unknown Kind.
var ErrUnknownSelection = errors.New("reconstruction: unknown selection kind")

// PlaceholderLevel is the gray level of the raster returned for an empty
// selection.
const PlaceholderLevel uint8 = 128

// Result is one rendered selection.
type Result struct {
	Image *image.Gray
	// Placeholder is true when the selection covered no frequencies.
	Placeholder bool
	// Indices are the natural-order tensor entries that were used.
	Indices []int
}

// Selector resolves selections made on the displayed magnitude map into
// tensor entries and renders their sum. Display coordinates are always
// translated through the shifted index grid because the map is shown
// zero-frequency centered while the tensor stays in natural order.
//
// A Selector only reads its tensor and grid and is safe for concurrent use.
type Selector struct {
	tensor      *kspace.Tensor
	shifted     kspace.IndexGrid
	eps         float64
	placeholder uint8
}

// NewSelector creates a Selector over tensor using the shifted index grid.
func NewSelector(tensor *kspace.Tensor, shifted kspace.IndexGrid, eps float64, placeholder uint8) (*Selector, error) {
	tr, tc := tensor.Dims()
	gr, gc := shifted.Dims()
	if tr != gr || tc != gc {
		return nil, fmt.Errorf("reconstruction: index grid %dx%d does not match tensor %dx%d", gr, gc, tr, tc)
	}
	if eps <= 0 {
		eps = visualization.DefaultEpsilon
	}
	return &Selector{tensor: tensor, shifted: shifted, eps: eps, placeholder: placeholder}, nil
}

// Resolve returns the natural-order tensor indices addressed by sel.
// Out-of-range and inverted bounds are clamped to the grid; a rectangle
// covers [RowMin,RowMax) x [ColMin,ColMax).
func (s *Selector) Resolve(sel models.Selection) ([]int, error) {
	rows, cols := s.shifted.Dims()

	switch sel.Kind {
	case models.SelectPoint:
		r := clampIndex(sel.Point.Row, rows)
		c := clampIndex(sel.Point.Col, cols)
		return []int{s.shifted.At(r, c)}, nil

	case models.SelectRect:
		rect := sel.Rect.Clamp(rows, cols)
		indices := make([]int, 0, rect.Cells())
		for r := rect.RowMin; r < rect.RowMax; r++ {
			for c := rect.ColMin; c < rect.ColMax; c++ {
				indices = append(indices, s.shifted.At(r, c))
			}
		}
		return indices, nil

	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownSelection, sel.Kind)
	}
}

// Sum returns the element-wise sum of the contributions addressed by sel,
// row-major. It returns nil for an empty selection.
func (s *Selector) Sum(sel models.Selection) ([]float64, error) {
	indices, err := s.Resolve(sel)
	if err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		return nil, nil
	}
	return s.tensor.Sum(indices)
}

// Reconstruct renders sel. A point selection yields the single
// contribution of that frequency; a rectangle yields the normalized sum of
// every covered frequency; an empty rectangle yields the placeholder.
func (s *Selector) Reconstruct(sel models.Selection) (Result, error) {
	indices, err := s.Resolve(sel)
	if err != nil {
		return Result{}, err
	}
	rows, cols := s.tensor.Dims()

	if len(indices) == 0 {
		return Result{
			Image:       visualization.Uniform(rows, cols, s.placeholder),
			Placeholder: true,
		}, nil
	}

	var values []float64
	if len(indices) == 1 {
		values = s.tensor.Values(indices[0], nil)
	} else {
		values, err = s.tensor.Sum(indices)
		if err != nil {
			return Result{}, err
		}
	}

	img, err := visualization.NormalizeSlice(values, rows, cols, s.eps)
	if err != nil {
		return Result{}, err
	}
	return Result{Image: img, Indices: indices}, nil
}

// Placeholder returns the raster used for empty selections.
func (s *Selector) Placeholder() *image.Gray {
	rows, cols := s.tensor.Dims()
	return visualization.Uniform(rows, cols, s.placeholder)
}

func clampIndex(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
