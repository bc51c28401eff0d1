package models

import "fmt"

// FrequencyIndex is a spatial frequency pair (K, L) with 0 <= K < rows and
// 0 <= L < cols.
type FrequencyIndex struct {
	K int
	L int
}

// Natural returns the flat natural-order index of the pair for a grid
// with the given number of columns.
func (f FrequencyIndex) Natural(cols int) int {
	return f.K*cols + f.L
}

// FrequencyFromNatural is the inverse of FrequencyIndex.Natural.
func FrequencyFromNatural(n, cols int) FrequencyIndex {
	return FrequencyIndex{K: n / cols, L: n % cols}
}

// Point is a single cell on the displayed (zero-frequency-centered) grid.
type Point struct {
	Row int
	Col int
}

// Rect is an axis-aligned selection on the displayed grid.
// RowMax and ColMax are exclusive.
type Rect struct {
	RowMin int
	RowMax int
	ColMin int
	ColMax int
}

// Ordered returns the rectangle with inverted bounds swapped.
func (r Rect) Ordered() Rect {
	if r.RowMin > r.RowMax {
		r.RowMin, r.RowMax = r.RowMax, r.RowMin
	}
	if r.ColMin > r.ColMax {
		r.ColMin, r.ColMax = r.ColMax, r.ColMin
	}
	return r
}

// Clamp orders the rectangle and restricts it to [0,rows]x[0,cols].
func (r Rect) Clamp(rows, cols int) Rect {
	r = r.Ordered()
	r.RowMin = clamp(r.RowMin, 0, rows)
	r.RowMax = clamp(r.RowMax, 0, rows)
	r.ColMin = clamp(r.ColMin, 0, cols)
	r.ColMax = clamp(r.ColMax, 0, cols)
	return r
}

// Empty reports whether the rectangle covers no cells.
func (r Rect) Empty() bool {
	return r.RowMax <= r.RowMin || r.ColMax <= r.ColMin
}

// Cells returns the number of covered cells.
func (r Rect) Cells() int {
	if r.Empty() {
		return 0
	}
	return (r.RowMax - r.RowMin) * (r.ColMax - r.ColMin)
}

// Contains reports whether o lies entirely inside r.
func (r Rect) Contains(o Rect) bool {
	return o.RowMin >= r.RowMin && o.RowMax <= r.RowMax &&
		o.ColMin >= r.ColMin && o.ColMax <= r.ColMax
}

// SelectionKind tells which field of a Selection is meaningful.
type SelectionKind int

const (
	SelectPoint SelectionKind = iota
	SelectRect
)

func (k SelectionKind) String() string {
	switch k {
	case SelectPoint:
		return "point"
	case SelectRect:
		return "rect"
	default:
		return fmt.Sprintf("SelectionKind(%d)", int(k))
	}
}

// Selection addresses frequencies on the displayed grid, either a single
// point (hover) or a rectangle (drag selection).
type Selection struct {
	Kind  SelectionKind
	Point Point
	Rect  Rect
}

// PointSelection selects one displayed cell.
func PointSelection(row, col int) Selection {
	return Selection{Kind: SelectPoint, Point: Point{Row: row, Col: col}}
}

// RectSelection selects the displayed cells [rowMin,rowMax) x [colMin,colMax).
func RectSelection(rowMin, rowMax, colMin, colMax int) Selection {
	return Selection{Kind: SelectRect, Rect: Rect{
		RowMin: rowMin,
		RowMax: rowMax,
		ColMin: colMin,
		ColMax: colMax,
	}}
}

// InteractionMode is the state of the user's pointer over the magnitude map.
type InteractionMode int

const (
	Idle InteractionMode = iota
	Hovering
	Selecting
)

func (m InteractionMode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Hovering:
		return "hovering"
	case Selecting:
		return "selecting"
	default:
		return fmt.Sprintf("InteractionMode(%d)", int(m))
	}
}

// Interaction is the typed interaction state handed in by the event layer.
// Point is used when Mode is Hovering, Rect when Mode is Selecting.
type Interaction struct {
	Mode  InteractionMode
	Point Point
	Rect  Rect
}

// Hover builds a Hovering interaction.
func Hover(row, col int) Interaction {
	return Interaction{Mode: Hovering, Point: Point{Row: row, Col: col}}
}

// Select builds a Selecting interaction.
func Select(rowMin, rowMax, colMin, colMax int) Interaction {
	return Interaction{Mode: Selecting, Rect: Rect{
		RowMin: rowMin,
		RowMax: rowMax,
		ColMin: colMin,
		ColMax: colMax,
	}}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
