package reconstruction

import (
	"context"
	"testing"

	"github.com/dnaligase/kspace-vis/pkg/kspace"
	"github.com/dnaligase/kspace-vis/pkg/visualization"
)

func TestBuildDisplaySetOrder(t *testing.T) {
	src := createTestGrid(6, 8, 5)
	tensor, err := kspace.NewDecomposer(kspace.Params{}).Decompose(context.Background(), src)
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}
	_, shifted, _ := kspace.BuildIndexMaps(6, 8)

	set, err := BuildDisplaySet(tensor, shifted, DisplayParams{Epsilon: visualization.DefaultEpsilon})
	if err != nil {
		t.Fatalf("BuildDisplaySet failed: %v", err)
	}
	if set.Len() != 48 {
		t.Fatalf("Expected 48 previews, got %d", set.Len())
	}

	for p, n := range shifted.Flat() {
		got, err := set.At(p)
		if err != nil {
			t.Fatalf("At(%d) failed: %v", p, err)
		}
		want, _ := visualization.NormalizeSlice(tensor.Values(n, nil), 6, 8, visualization.DefaultEpsilon)
		for i := range want.Pix {
			if got.Pix[i] != want.Pix[i] {
				t.Fatalf("Preview %d pixel %d: expected %d, got %d", p, i, want.Pix[i], got.Pix[i])
			}
		}
	}

	// Without substitution the DC preview is flat black.
	dc := set.AtCell(3, 4)
	for _, v := range dc.Pix {
		if v != 0 {
			t.Fatalf("Expected black DC preview, got level %d", v)
		}
	}
}

func TestBuildDisplaySetSubstitutesMean(t *testing.T) {
	src := createTestGrid(4, 4, 9)
	tensor, _ := kspace.NewDecomposer(kspace.Params{}).Decompose(context.Background(), src)
	_, shifted, _ := kspace.BuildIndexMaps(4, 4)

	set, err := BuildDisplaySet(tensor, shifted, DisplayParams{SubstituteDCMean: true, Mean: 141.6})
	if err != nil {
		t.Fatalf("BuildDisplaySet failed: %v", err)
	}
	for _, v := range set.AtCell(2, 2).Pix {
		if v != 142 {
			t.Fatalf("Expected DC preview at mean level 142, got %d", v)
		}
	}
	// other previews are untouched
	if img := set.AtCell(0, 0); img.Pix[0] == 142 && img.Pix[1] == 142 && img.Pix[2] == 142 {
		t.Errorf("Non-DC preview looks substituted")
	}
}

func TestDisplaySetBounds(t *testing.T) {
	src := createTestGrid(3, 3, 1)
	tensor, _ := kspace.NewDecomposer(kspace.Params{}).Decompose(context.Background(), src)
	_, shifted, _ := kspace.BuildIndexMaps(3, 3)
	set, _ := BuildDisplaySet(tensor, shifted, DisplayParams{})

	if _, err := set.At(-1); err == nil {
		t.Errorf("Expected error for negative preview")
	}
	if _, err := set.At(9); err == nil {
		t.Errorf("Expected error for preview past the end")
	}

	last, _ := set.At(8)
	clamped := set.AtCell(50, 50)
	for i := range last.Pix {
		if last.Pix[i] != clamped.Pix[i] {
			t.Fatalf("Expected clamped cell to match the last preview")
		}
	}

	// previews are copies
	clamped.Pix[0] ^= 0xff
	again := set.AtCell(2, 2)
	if again.Pix[0] == clamped.Pix[0] {
		t.Errorf("Preview shares memory with the set")
	}

	_, other, _ := kspace.BuildIndexMaps(3, 4)
	if _, err := BuildDisplaySet(tensor, other, DisplayParams{}); err == nil {
		t.Errorf("Expected error for mismatched grid")
	}
}
