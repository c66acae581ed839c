// Package ears segments maize ears from photographs: background removal,
// candidate filtering, the iterative clean-up loop that erodes away debris
// until the detected objects become size-homogeneous, and per-ear ROI
// extraction.
package ears

import (
	"errors"
	"image"
	"math"

	"earcv/internal/regions"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// Status reports how an iterative loop ended.
type Status int

const (
	// StatusConverged means the termination criterion was met.
	StatusConverged Status = iota
	// StatusExhausted means the iteration budget ran out. The last computed
	// state is still usable; exhaustion is a warning, not an error.
	StatusExhausted
)

func (s Status) String() string {
	switch s {
	case StatusConverged:
		return "Converged"
	case StatusExhausted:
		return "Exhausted"
	default:
		return "Unknown"
	}
}

// CleanupParams bounds the ear clean-up loop.
type CleanupParams struct {
	MaxCOV        float64              // area coefficient-of-variation target
	MaxIterations int                  // iteration budget; sole guard against runaway loops
	Connectivity  regions.Connectivity // labeling neighborhood
}

// DefaultCleanupParams returns the stock clean-up thresholds.
func DefaultCleanupParams() CleanupParams {
	return CleanupParams{
		MaxCOV:        0.35,
		MaxIterations: 10,
		Connectivity:  regions.Connect8,
	}
}

// CleanupState is one immutable step of the clean-up loop. Each iteration
// produces a fresh state; masks are never mutated across iterations.
type CleanupState struct {
	Mask      gocv.Mat         // filtered mask after this iteration (caller closes)
	Iteration int              // 0 means no morphology was applied
	AreaCOV   float64          // NaN when fewer than two regions remain
	Regions   []regions.Region // passing regions for Mask
	Status    Status
}

// Cleanup runs the ear clean-up loop: filter the mask, and while the passing
// regions' area COV exceeds MaxCOV, apply a morphological opening whose
// square kernel grows with the iteration index, then re-extract and
// re-filter. Growing the kernel removes small debris and thin bridges first
// and breaks larger merges only if the mild passes failed, so small true
// objects are not over-eroded up front.
//
// Fewer than two passing regions short-circuits to Converged: area variance
// is undefined for a single object, and a lone ear needs no clean-up.
// Returns ErrEmptyMask only when the input mask has no foreground at all.
func Cleanup(mask gocv.Mat, spec regions.FilterSpec, p CleanupParams) (CleanupState, error) {
	imageArea := mask.Rows() * mask.Cols()

	regs, err := regions.Extract(mask, p.Connectivity)
	if err != nil {
		return CleanupState{}, err
	}
	passing := regions.Filter(regs, spec, imageArea)

	state := CleanupState{
		Mask:      regions.RenderMask(mask, passing),
		Iteration: 0,
		AreaCOV:   areaCOV(passing),
		Regions:   passing,
		Status:    StatusConverged,
	}

	if len(passing) < 2 || state.AreaCOV <= p.MaxCOV {
		return state, nil
	}

	for i := 1; i <= p.MaxIterations; i++ {
		opened := openSquare(state.Mask, i, i)

		regs, err := regions.Extract(opened, p.Connectivity)
		if err != nil && errors.Is(err, regions.ErrEmptyMask) {
			// Everything eroded away: degenerate but valid, same rule as
			// the <2 region short-circuit.
			state.Mask.Close()
			state = CleanupState{Mask: opened, Iteration: i, AreaCOV: math.NaN(), Status: StatusConverged}
			return state, nil
		}
		if err != nil {
			opened.Close()
			return state, err
		}
		passing = regions.Filter(regs, spec, imageArea)

		next := CleanupState{
			Mask:      regions.RenderMask(opened, passing),
			Iteration: i,
			AreaCOV:   areaCOV(passing),
			Regions:   passing,
		}
		opened.Close()
		state.Mask.Close()
		state = next

		if len(passing) < 2 || state.AreaCOV <= p.MaxCOV {
			state.Status = StatusConverged
			return state, nil
		}
	}

	state.Status = StatusExhausted
	return state, nil
}

// areaCOV returns sample stdev / mean of the region areas, or NaN for fewer
// than two regions.
func areaCOV(regs []regions.Region) float64 {
	if len(regs) < 2 {
		return math.NaN()
	}
	areas := make([]float64, len(regs))
	for i, r := range regs {
		areas[i] = float64(r.Area)
	}
	return stat.StdDev(areas, nil) / stat.Mean(areas, nil)
}

// openSquare applies a morphological opening with a size x size rectangular
// structuring element, repeated iterations times, into a new Mat.
func openSquare(src gocv.Mat, size, iterations int) gocv.Mat {
	if size < 1 {
		size = 1
	}
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(size, size))
	defer kernel.Close()

	dst := gocv.NewMat()
	gocv.MorphologyExWithParams(src, &dst, gocv.MorphOpen, kernel, iterations, gocv.BorderConstant)
	return dst
}
