package regions

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"
)

func threeSquareMask() gocv.Mat {
	mask := gocv.Zeros(120, 300, gocv.MatTypeCV8UC1)
	white := color.RGBA{R: 255, G: 255, B: 255}
	// Deliberately not in left-to-right drawing order.
	gocv.Rectangle(&mask, image.Rect(200, 40, 229, 69), white, -1)
	gocv.Rectangle(&mask, image.Rect(10, 10, 39, 39), white, -1)
	gocv.Rectangle(&mask, image.Rect(100, 60, 129, 89), white, -1)
	return mask
}

func TestExtractOrdersLeftToRight(t *testing.T) {
	mask := threeSquareMask()
	defer mask.Close()

	regs, err := Extract(mask, Connect8)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(regs) != 3 {
		t.Fatalf("regions = %d, want 3", len(regs))
	}
	wantX := []int{10, 100, 200}
	for i, r := range regs {
		if r.Bounds.X != wantX[i] {
			t.Errorf("region %d at x=%d, want %d", i, r.Bounds.X, wantX[i])
		}
		if r.Area != 900 {
			t.Errorf("region %d area = %d, want 900", i, r.Area)
		}
	}
}

func TestExtractIdempotent(t *testing.T) {
	mask := threeSquareMask()
	defer mask.Close()

	first, err := Extract(mask, Connect8)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	again, err := Extract(mask, Connect8)
	if err != nil {
		t.Fatalf("Extract (second): %v", err)
	}

	if len(first) != len(again) {
		t.Fatalf("region count changed: %d vs %d", len(first), len(again))
	}
	for i := range first {
		if first[i].Area != again[i].Area {
			t.Errorf("region %d area changed: %d vs %d", i, first[i].Area, again[i].Area)
		}
		if first[i].Bounds != again[i].Bounds {
			t.Errorf("region %d bounds changed: %+v vs %+v", i, first[i].Bounds, again[i].Bounds)
		}
	}
}

func TestExtractEmptyMask(t *testing.T) {
	mask := gocv.Zeros(50, 50, gocv.MatTypeCV8UC1)
	defer mask.Close()

	_, err := Extract(mask, Connect8)
	if !errors.Is(err, ErrEmptyMask) {
		t.Fatalf("err = %v, want ErrEmptyMask", err)
	}
}

func TestRenderMaskKeepsOnlySelected(t *testing.T) {
	mask := threeSquareMask()
	defer mask.Close()

	regs, err := Extract(mask, Connect8)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	kept := RenderMask(mask, regs[:1])
	defer kept.Close()

	out, err := Extract(kept, Connect8)
	if err != nil {
		t.Fatalf("Extract on rendered mask: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("regions after render = %d, want 1", len(out))
	}
	if out[0].Bounds.X != regs[0].Bounds.X {
		t.Errorf("kept region at x=%d, want %d", out[0].Bounds.X, regs[0].Bounds.X)
	}
}

func TestRenderMaskEmptySelection(t *testing.T) {
	mask := threeSquareMask()
	defer mask.Close()

	empty := RenderMask(mask, nil)
	defer empty.Close()

	if nz := gocv.CountNonZero(empty); nz != 0 {
		t.Errorf("rendered mask has %d foreground pixels, want 0", nz)
	}
}
