// Package regions turns binary masks into labeled connected regions with
// geometric descriptors, and filters them by area, aspect ratio, and
// solidity. Regions are always recomputed from scratch from the mask they
// describe; a Region must never be used after its source mask changes.
package regions

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"

	"earcv/pkg/geometry"

	"gocv.io/x/gocv"
)

// ErrEmptyMask indicates a mask with no foreground pixels where at least one
// object was required. Callers should skip the current object and continue.
var ErrEmptyMask = errors.New("mask has no foreground pixels")

// Connectivity selects the pixel neighborhood used for component labeling.
type Connectivity int

const (
	Connect4 Connectivity = 4
	Connect8 Connectivity = 8
)

// Region is a read-only view of one connected foreground component.
type Region struct {
	Label    int                 // component label id from the labeling pass
	Area     int                 // foreground pixel count
	Bounds   geometry.RectInt    // axis-aligned bounding box
	Contour  []geometry.PointInt // closed outer boundary polygon
	Hull     []geometry.Point2D  // convex hull of the contour
	Centroid geometry.Point2D
}

// Solidity returns the region area divided by its convex hull area.
// Returns 1 when the hull is degenerate.
func (r Region) Solidity() float64 {
	hullArea := geometry.PolygonArea(r.Hull)
	if hullArea <= 0 {
		return 1
	}
	return float64(r.Area) / hullArea
}

// AspectRatio returns min(w,h)/max(w,h) of the bounding box.
func (r Region) AspectRatio() float64 {
	return r.Bounds.AspectRatio()
}

// Extract labels the connected components of a binary mask and returns one
// Region per component, ordered left-to-right by bounding-box x with the
// label id as a stable tie-break. The mask is not modified. Returns
// ErrEmptyMask when the mask contains no foreground pixels.
func Extract(mask gocv.Mat, conn Connectivity) ([]Region, error) {
	if mask.Empty() {
		return nil, fmt.Errorf("extract regions: %w", ErrEmptyMask)
	}

	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()

	n := gocv.ConnectedComponentsWithStatsWithParams(mask, &labels, &stats, &centroids,
		int(conn), gocv.MatTypeCV32S, gocv.CCL_DEFAULT)
	if n <= 1 {
		// Label 0 is the background
		return nil, fmt.Errorf("extract regions: %w", ErrEmptyMask)
	}

	rows, cols := mask.Rows(), mask.Cols()
	out := make([]Region, 0, n-1)

	for label := 1; label < n; label++ {
		r := Region{
			Label: label,
			Area:  int(stats.GetIntAt(label, int(gocv.CCStatArea))),
			Bounds: geometry.RectInt{
				X:      int(stats.GetIntAt(label, int(gocv.CCStatLeft))),
				Y:      int(stats.GetIntAt(label, int(gocv.CCStatTop))),
				Width:  int(stats.GetIntAt(label, int(gocv.CCStatWidth))),
				Height: int(stats.GetIntAt(label, int(gocv.CCStatHeight))),
			},
			Centroid: geometry.Point2D{
				X: centroids.GetDoubleAt(label, 0),
				Y: centroids.GetDoubleAt(label, 1),
			},
		}

		r.Contour = traceContour(labels, label, rows, cols)
		pts := make([]geometry.Point2D, len(r.Contour))
		for i, p := range r.Contour {
			pts[i] = p.ToFloat()
		}
		r.Hull = geometry.ConvexHull(pts)

		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Bounds.X != out[j].Bounds.X {
			return out[i].Bounds.X < out[j].Bounds.X
		}
		return out[i].Label < out[j].Label
	})

	return out, nil
}

// traceContour extracts the outer boundary polygon of a single label by
// rendering it into a scratch mask and tracing the largest external contour.
func traceContour(labels gocv.Mat, label, rows, cols int) []geometry.PointInt {
	single := gocv.Zeros(rows, cols, gocv.MatTypeCV8UC1)
	defer single.Close()

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if int(labels.GetIntAt(y, x)) == label {
				single.SetUCharAt(y, x, 255)
			}
		}
	}

	contours := gocv.FindContours(single, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer contours.Close()

	best := -1
	bestArea := -1.0
	for i := 0; i < contours.Size(); i++ {
		if a := gocv.ContourArea(contours.At(i)); a > bestArea {
			bestArea = a
			best = i
		}
	}
	if best < 0 {
		return nil
	}

	pts := contours.At(best).ToPoints()
	contour := make([]geometry.PointInt, len(pts))
	for i, p := range pts {
		contour[i] = geometry.PointInt{X: p.X, Y: p.Y}
	}
	return contour
}

// RenderMask paints the pixels of the given regions from the source mask
// into a fresh mask of the same size. Pixels of other regions stay zero.
func RenderMask(mask gocv.Mat, keep []Region) gocv.Mat {
	stencil := gocv.Zeros(mask.Rows(), mask.Cols(), gocv.MatTypeCV8UC1)
	defer stencil.Close()

	for _, r := range keep {
		if len(r.Contour) < 3 {
			continue
		}
		poly := make([]image.Point, len(r.Contour))
		for i, p := range r.Contour {
			poly[i] = image.Pt(p.X, p.Y)
		}
		pv := gocv.NewPointsVectorFromPoints([][]image.Point{poly})
		gocv.FillPoly(&stencil, pv, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		pv.Close()
	}

	out := gocv.NewMat()
	gocv.BitwiseAnd(mask, stencil, &out)
	return out
}
