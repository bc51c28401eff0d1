package kspace

import (
	"errors"
	"testing"
)

// TestNaturalGrid verifies cell (k,l) holds k*cols+l
func TestNaturalGrid(t *testing.T) {
	natural, err := NaturalGrid(4, 6)
	if err != nil {
		t.Fatalf("NaturalGrid failed: %v", err)
	}
	for k := 0; k < 4; k++ {
		for l := 0; l < 6; l++ {
			if got := natural.At(k, l); got != k*6+l {
				t.Errorf("Expected natural(%d,%d)=%d, got %d", k, l, k*6+l, got)
			}
		}
	}
}

func TestBuildIndexMapsInvalidSize(t *testing.T) {
	for _, dims := range [][2]int{{0, 4}, {4, 0}, {-1, -1}} {
		if _, _, err := BuildIndexMaps(dims[0], dims[1]); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("Expected ErrInvalidSize for %v, got %v", dims, err)
		}
	}
}

// TestShiftedIsPermutation checks every natural index appears exactly once
// in the shifted grid, for even and odd shapes.
func TestShiftedIsPermutation(t *testing.T) {
	shapes := [][2]int{{8, 8}, {86, 86}, {5, 7}, {6, 3}, {1, 1}}
	for _, shape := range shapes {
		_, shifted, err := BuildIndexMaps(shape[0], shape[1])
		if err != nil {
			t.Fatalf("BuildIndexMaps(%v) failed: %v", shape, err)
		}

		seen := make([]int, shape[0]*shape[1])
		for _, v := range shifted.Flat() {
			if v < 0 || v >= len(seen) {
				t.Fatalf("Shape %v: index %d out of range", shape, v)
			}
			seen[v]++
		}
		for n, count := range seen {
			if count != 1 {
				t.Errorf("Shape %v: index %d appears %d times", shape, n, count)
			}
		}
	}
}

// TestShiftPlacesDCAtCenter checks the zero frequency lands on (rows/2, cols/2)
func TestShiftPlacesDCAtCenter(t *testing.T) {
	shapes := [][2]int{{86, 86}, {8, 8}, {5, 7}, {6, 9}}
	for _, shape := range shapes {
		_, shifted, _ := BuildIndexMaps(shape[0], shape[1])
		r, c, ok := shifted.Position(0)
		if !ok {
			t.Fatalf("Shape %v: DC index missing", shape)
		}
		if r != shape[0]/2 || c != shape[1]/2 {
			t.Errorf("Shape %v: expected DC at (%d,%d), got (%d,%d)",
				shape, shape[0]/2, shape[1]/2, r, c)
		}
	}
}

// TestShiftMatchesFormula checks shifted(r,c) = natural((r-rows/2) mod rows, (c-cols/2) mod cols)
func TestShiftMatchesFormula(t *testing.T) {
	rows, cols := 7, 10
	natural, shifted, _ := BuildIndexMaps(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			k := (r - rows/2 + rows) % rows
			l := (c - cols/2 + cols) % cols
			if shifted.At(r, c) != natural.At(k, l) {
				t.Errorf("Expected shifted(%d,%d)=%d, got %d", r, c, natural.At(k, l), shifted.At(r, c))
			}
		}
	}
}

func TestShiftSelfInverseEven(t *testing.T) {
	natural, shifted, _ := BuildIndexMaps(8, 12)
	twice := FFTShift(shifted).Flat()
	for i, v := range natural.Flat() {
		if twice[i] != v {
			t.Fatalf("Expected double shift to restore index %d at %d, got %d", v, i, twice[i])
		}
	}
}

func TestInverseShiftOdd(t *testing.T) {
	natural, shifted, _ := BuildIndexMaps(5, 7)
	back := IFFTShift(shifted).Flat()
	for i, v := range natural.Flat() {
		if back[i] != v {
			t.Fatalf("Expected IFFTShift to restore index %d at %d, got %d", v, i, back[i])
		}
	}

	// A second forward shift is not the inverse for odd sizes.
	twice := FFTShift(shifted).Flat()
	same := true
	for i, v := range natural.Flat() {
		if twice[i] != v {
			same = false
			break
		}
	}
	if same {
		t.Errorf("Expected FFTShift applied twice to differ from identity on a 5x7 grid")
	}
}

func TestFlatIsCopy(t *testing.T) {
	natural, _, _ := BuildIndexMaps(3, 3)
	flat := natural.Flat()
	flat[0] = 42
	if natural.At(0, 0) != 0 {
		t.Errorf("Expected grid to be unaffected by edits to Flat()")
	}
}
