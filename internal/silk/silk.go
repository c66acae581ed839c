// Package silk removes silk and debris hanging off a single ear mask by
// repeatedly opening the mask with a growing kernel until its convexity
// stops improving.
package silk

import (
	"image"

	"earcv/pkg/geometry"

	"gocv.io/x/gocv"
)

// Status reports how the de-silking loop ended.
type Status int

const (
	// StatusSkipped means the mask was already convex enough to leave alone.
	StatusSkipped Status = iota
	// StatusConverged means a pass improved convexity by at least the
	// configured delta.
	StatusConverged
	// StatusExhausted means the iteration budget ran out; the last mask is
	// still returned as a best effort.
	StatusExhausted
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "Skipped"
	case StatusConverged:
		return "Converged"
	case StatusExhausted:
		return "Exhausted"
	default:
		return "Unknown"
	}
}

// startDelta seeds the per-iteration gain so the first pass always runs.
const startDelta = 0.001

// Params bounds the de-silking loop.
type Params struct {
	MinDeltaConvexity float64 // per-pass gain that counts as "still improving"
	MaxIterations     int     // pass budget
	SkipAbove         float64 // baseline convexity above which nothing is done
}

// DefaultParams returns the stock de-silking thresholds.
func DefaultParams() Params {
	return Params{
		MinDeltaConvexity: 0.04,
		MaxIterations:     10,
		SkipAbove:         0.87,
	}
}

// State is one immutable step of the de-silking loop.
type State struct {
	Mask      gocv.Mat // mask after this pass (caller closes)
	Iteration int      // number of opening passes applied; 0 when skipped
	Convexity float64  // convexity of the dominant region in Mask
	Status    Status
}

// Clean runs the de-silking loop on a binary single-ear mask. Each pass
// applies a morphological opening whose square kernel and repeat count both
// grow with the pass index, so mild cleanup is tried before aggressive
// cleanup. A pass that lifts convexity by at least MinDeltaConvexity over
// the previous pass converges the loop.
func Clean(mask gocv.Mat, p Params) State {
	baseline := Convexity(mask)
	if baseline >= p.SkipAbove {
		return State{Mask: mask.Clone(), Iteration: 0, Convexity: baseline, Status: StatusSkipped}
	}

	state := State{Mask: mask.Clone(), Iteration: 0, Convexity: baseline, Status: StatusExhausted}
	delta := startDelta

	for i := 1; delta < p.MinDeltaConvexity && i <= p.MaxIterations; i++ {
		// Pass i opens with a (2+i) square kernel repeated 1+i times: 3x3
		// twice, then 4x4 three times, and so on.
		kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(2+i, 2+i))
		opened := gocv.NewMat()
		gocv.MorphologyExWithParams(state.Mask, &opened, gocv.MorphOpen, kernel, 1+i, gocv.BorderConstant)
		kernel.Close()

		conv := Convexity(opened)
		delta = conv - state.Convexity

		state.Mask.Close()
		state = State{Mask: opened, Iteration: i, Convexity: conv, Status: StatusExhausted}
	}

	if delta >= p.MinDeltaConvexity {
		state.Status = StatusConverged
	}
	return state
}

// Convexity returns contour area over convex-hull area of the mask's largest
// foreground contour, or 0 when the mask has no usable contour.
func Convexity(mask gocv.Mat) float64 {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var best gocv.PointVector
	var bestArea float64
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		if a := gocv.ContourArea(c); a > bestArea {
			bestArea = a
			best = c
		}
	}
	if bestArea == 0 {
		return 0
	}

	pts := best.ToPoints()
	poly := make([]geometry.Point2D, len(pts))
	for i, p := range pts {
		poly[i] = geometry.Point2D{X: float64(p.X), Y: float64(p.Y)}
	}
	hull := geometry.ConvexHull(poly)
	hullArea := geometry.PolygonArea(hull)
	if hullArea == 0 {
		return 0
	}
	return bestArea / hullArea
}
