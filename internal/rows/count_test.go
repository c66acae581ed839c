package rows

import (
	"image"
	"image/color"
	"math"
	"sort"
	"testing"

	"gocv.io/x/gocv"
)

// syntheticEar paints a bright upright ear with dark vertical stripes, the
// intensity pattern kernel-row borders produce.
func syntheticEar(t *testing.T) gocv.Mat {
	t.Helper()
	ear := gocv.Zeros(400, 240, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&ear, image.Rect(20, 20, 219, 379), color.RGBA{R: 40, G: 200, B: 40}, -1)
	for x := 40; x < 220; x += 30 {
		gocv.Rectangle(&ear, image.Rect(x, 20, x+4, 379), color.RGBA{R: 10, G: 40, B: 10}, -1)
	}
	return ear
}

func TestCountSyntheticEar(t *testing.T) {
	ear := syntheticEar(t)
	defer ear.Close()

	res, err := Count(ear, DefaultParams())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}

	if res.RowCount != len(res.Peaks) {
		t.Errorf("RowCount = %d but %d peaks", res.RowCount, len(res.Peaks))
	}
	if res.RowCount == 0 {
		t.Error("no rows detected on a striped ear")
	}
	if !sort.Float64sAreSorted(res.Peaks) {
		t.Errorf("peaks not ascending: %v", res.Peaks)
	}
}

func TestCountDeterministic(t *testing.T) {
	ear := syntheticEar(t)
	defer ear.Close()

	first, err := Count(ear, DefaultParams())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	again, err := Count(ear, DefaultParams())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if first.RowCount != again.RowCount {
		t.Errorf("row count changed between runs: %d vs %d", first.RowCount, again.RowCount)
	}
}

func TestSettleValleysBestEffort(t *testing.T) {
	// A strong periodic profile keeps far more valleys than MaxExtrema allows
	// no matter how wide the smoothing window grows: settling must give up at
	// the largest window and hand back its valleys instead of erroring.
	profile := make([]float64, 160)
	for i := range profile {
		profile[i] = 100 + 50*math.Sin(2*math.Pi*float64(i)/16)
	}

	p := DefaultParams()
	p.MaxExtrema = 3
	p.FineWindow = 5
	p.FineStep = 2
	p.FineOrder = 2

	valleys, err := settleValleys(profile, 100, p)
	if err != nil {
		t.Fatalf("settleValleys: %v", err)
	}
	if len(valleys) <= p.MaxExtrema {
		t.Errorf("got %d valleys, want the unsettled profile to keep more than %d",
			len(valleys), p.MaxExtrema)
	}
	if !sort.IntsAreSorted(valleys) {
		t.Errorf("valleys not ascending: %v", valleys)
	}
}

func TestCountEmptyImage(t *testing.T) {
	ear := gocv.Zeros(200, 100, gocv.MatTypeCV8UC3)
	defer ear.Close()

	if _, err := Count(ear, DefaultParams()); err == nil {
		t.Fatal("expected error for an all-black image")
	}
}
