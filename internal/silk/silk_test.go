package silk

import (
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"
)

var white = color.RGBA{R: 255, G: 255, B: 255}

func TestConvexitysolidSquare(t *testing.T) {
	mask := gocv.Zeros(100, 100, gocv.MatTypeCV8UC1)
	defer mask.Close()
	gocv.Rectangle(&mask, image.Rect(10, 10, 59, 59), white, -1)

	conv := Convexity(mask)
	if conv < 0.95 || conv > 1.0 {
		t.Errorf("convexity of a solid square = %f, want close to 1", conv)
	}
}

func TestConvexityEmptyMask(t *testing.T) {
	mask := gocv.Zeros(50, 50, gocv.MatTypeCV8UC1)
	defer mask.Close()

	if conv := Convexity(mask); conv != 0 {
		t.Errorf("convexity of an empty mask = %f, want 0", conv)
	}
}

func TestCleanSkipsConvexMask(t *testing.T) {
	mask := gocv.Zeros(100, 100, gocv.MatTypeCV8UC1)
	defer mask.Close()
	gocv.Rectangle(&mask, image.Rect(10, 10, 59, 59), white, -1)

	state := Clean(mask, DefaultParams())
	defer state.Mask.Close()

	if state.Status != StatusSkipped {
		t.Errorf("status = %v, want Skipped for an already-convex mask", state.Status)
	}
	if state.Iteration != 0 {
		t.Errorf("iteration = %d, want 0", state.Iteration)
	}
}

func TestCleanRemovesThinTail(t *testing.T) {
	mask := gocv.Zeros(120, 160, gocv.MatTypeCV8UC1)
	defer mask.Close()
	// Square body with a 1px tail: the tail drags convexity well below the
	// skip threshold, and the first mild opening removes it.
	gocv.Rectangle(&mask, image.Rect(10, 10, 49, 49), white, -1)
	gocv.Line(&mask, image.Pt(49, 30), image.Pt(140, 30), white, 1)

	p := DefaultParams()
	before := Convexity(mask)
	if before >= p.SkipAbove {
		t.Fatalf("test mask convexity = %f, want below skip threshold %f", before, p.SkipAbove)
	}

	state := Clean(mask, p)
	defer state.Mask.Close()

	if state.Iteration < 1 {
		t.Errorf("iteration = %d, want >= 1", state.Iteration)
	}
	if state.Iteration > p.MaxIterations {
		t.Errorf("iteration = %d exceeds budget %d", state.Iteration, p.MaxIterations)
	}
	if state.Convexity <= before {
		t.Errorf("convexity did not improve: before %f, after %f", before, state.Convexity)
	}
	if state.Status != StatusConverged {
		t.Errorf("status = %v, want Converged once convexity jumps", state.Status)
	}
}

func TestCleanFirstPassRemovesTwoPixelTail(t *testing.T) {
	mask := gocv.Zeros(120, 160, gocv.MatTypeCV8UC1)
	defer mask.Close()
	// A 2px-thick tail survives a single 2x2 opening but not the doubled 3x3
	// opening of the first pass, so converging on iteration 1 pins the
	// schedule down.
	gocv.Rectangle(&mask, image.Rect(10, 10, 49, 49), white, -1)
	gocv.Rectangle(&mask, image.Rect(49, 29, 139, 30), white, -1)

	state := Clean(mask, DefaultParams())
	defer state.Mask.Close()

	if state.Status != StatusConverged {
		t.Fatalf("status = %v, want Converged", state.Status)
	}
	if state.Iteration != 1 {
		t.Errorf("iteration = %d, want the first pass to clear the tail", state.Iteration)
	}
}

func TestCleanExhaustsOnHopelessMask(t *testing.T) {
	// No foreground at all: convexity stays 0, so every pass gains nothing
	// and the budget is spent.
	mask := gocv.Zeros(60, 60, gocv.MatTypeCV8UC1)
	defer mask.Close()

	p := DefaultParams()
	p.MaxIterations = 3

	state := Clean(mask, p)
	defer state.Mask.Close()

	if state.Status != StatusExhausted {
		t.Errorf("status = %v, want Exhausted", state.Status)
	}
	if state.Iteration != p.MaxIterations {
		t.Errorf("iteration = %d, want full budget %d", state.Iteration, p.MaxIterations)
	}
}
