package ears

import (
	"image"
	"image/color"
	"math"
	"testing"

	"earcv/internal/regions"

	"gocv.io/x/gocv"
)

// permissiveSpec keeps every synthetic region so the tests exercise the loop
// itself rather than the filter.
func permissiveSpec() regions.FilterSpec {
	return regions.FilterSpec{
		MinAreaFrac:    0,
		MaxAreaFrac:    1,
		MaxAspectRatio: 1,
		MaxSolidity:    2,
	}
}

func fillRect(mask *gocv.Mat, r image.Rectangle) {
	gocv.Rectangle(mask, r, color.RGBA{R: 255, G: 255, B: 255}, -1)
}

func TestCleanupHomogeneousAreasConvergeImmediately(t *testing.T) {
	mask := gocv.Zeros(200, 200, gocv.MatTypeCV8UC1)
	defer mask.Close()
	// Areas 100, 105 and 98: COV about 0.036.
	fillRect(&mask, image.Rect(10, 10, 19, 19))
	fillRect(&mask, image.Rect(50, 10, 64, 16))
	fillRect(&mask, image.Rect(100, 10, 113, 16))

	state, err := Cleanup(mask, permissiveSpec(), DefaultCleanupParams())
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	defer state.Mask.Close()

	if state.Status != StatusConverged {
		t.Errorf("status = %v, want Converged", state.Status)
	}
	if state.Iteration != 0 {
		t.Errorf("iteration = %d, want 0 (no morphology needed)", state.Iteration)
	}
	if len(state.Regions) != 3 {
		t.Fatalf("regions = %d, want 3", len(state.Regions))
	}
	if state.AreaCOV > 0.05 {
		t.Errorf("AreaCOV = %f, want < 0.05", state.AreaCOV)
	}
}

func TestCleanupSingleRegionShortCircuits(t *testing.T) {
	mask := gocv.Zeros(200, 200, gocv.MatTypeCV8UC1)
	defer mask.Close()
	fillRect(&mask, image.Rect(40, 40, 99, 99))

	state, err := Cleanup(mask, permissiveSpec(), DefaultCleanupParams())
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	defer state.Mask.Close()

	if state.Status != StatusConverged {
		t.Errorf("status = %v, want Converged", state.Status)
	}
	if state.Iteration != 0 {
		t.Errorf("iteration = %d, want 0", state.Iteration)
	}
	if len(state.Regions) != 1 {
		t.Fatalf("regions = %d, want 1", len(state.Regions))
	}
	if !math.IsNaN(state.AreaCOV) {
		t.Errorf("AreaCOV = %f, want NaN for a single region", state.AreaCOV)
	}
}

func TestCleanupHighVarianceIteratesAndTerminates(t *testing.T) {
	mask := gocv.Zeros(300, 300, gocv.MatTypeCV8UC1)
	defer mask.Close()
	// Areas 100 and 400: COV about 0.85, well above the 0.35 target, so the
	// loop must apply at least one opening.
	fillRect(&mask, image.Rect(10, 10, 19, 19))
	fillRect(&mask, image.Rect(100, 100, 119, 119))

	p := DefaultCleanupParams()
	state, err := Cleanup(mask, permissiveSpec(), p)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	defer state.Mask.Close()

	if state.Iteration < 1 {
		t.Errorf("iteration = %d, want >= 1", state.Iteration)
	}
	if state.Iteration > p.MaxIterations {
		t.Errorf("iteration = %d exceeds budget %d", state.Iteration, p.MaxIterations)
	}
	if state.Status != StatusConverged && state.Status != StatusExhausted {
		t.Errorf("status = %v, want Converged or Exhausted", state.Status)
	}
	// The growing kernel eventually erodes the small square away, leaving at
	// most one region, which converges before the budget runs out.
	if state.Status == StatusConverged && len(state.Regions) >= 2 && state.AreaCOV > p.MaxCOV {
		t.Errorf("converged with COV %f above target %f", state.AreaCOV, p.MaxCOV)
	}
}

func TestCleanupZeroBudgetReportsExhausted(t *testing.T) {
	mask := gocv.Zeros(300, 300, gocv.MatTypeCV8UC1)
	defer mask.Close()
	fillRect(&mask, image.Rect(10, 10, 19, 19))
	fillRect(&mask, image.Rect(100, 100, 119, 119))

	p := DefaultCleanupParams()
	p.MaxIterations = 0

	state, err := Cleanup(mask, permissiveSpec(), p)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	defer state.Mask.Close()

	if state.Status != StatusExhausted {
		t.Errorf("status = %v, want Exhausted with a zero budget", state.Status)
	}
	if state.Iteration != 0 {
		t.Errorf("iteration = %d, want 0", state.Iteration)
	}
}

func TestCleanupEmptyMask(t *testing.T) {
	mask := gocv.Zeros(100, 100, gocv.MatTypeCV8UC1)
	defer mask.Close()

	_, err := Cleanup(mask, permissiveSpec(), DefaultCleanupParams())
	if err == nil {
		t.Fatal("expected error for an all-background mask")
	}
}
