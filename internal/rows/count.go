// Package rows estimates the kernel-row count of a single upright ear image.
// The ear is banded vertically, each band's green-intensity profile is
// smoothed until its valley count is plausible, and the pooled valleys are
// clustered and pruned into one consensus set of row boundaries.
package rows

import (
	"image"
	"math"

	"earcv/internal/signal"

	"gocv.io/x/gocv"
)

// Params tunes the row-counting pipeline.
type Params struct {
	Bands        int // vertical bands; the first and last are edge artifacts and skipped
	CoarseWindow int // smoothing window for the whole-ear profile
	CoarseOrder  int
	FineWindow   int // starting window for the per-band profile
	FineStep     int // window growth per smoothing retry
	FineOrder    int
	MaxExtrema   int // per-band valley count above which smoothing is retried
	Prune        PruneParams
}

// DefaultParams returns the stock row-counting configuration.
func DefaultParams() Params {
	return Params{
		Bands:        6,
		CoarseWindow: 15,
		CoarseOrder:  5,
		FineWindow:   19,
		FineStep:     2,
		FineOrder:    4,
		MaxExtrema:   9,
		Prune:        DefaultPruneParams(),
	}
}

// Result summarizes one ear's row-count estimate.
type Result struct {
	Peaks         []float64 // consensus row-boundary columns, ascending
	RowCount      int       // len(Peaks): the kernel-row-number estimate
	MedianGapPre  float64   // median gap of the pooled raw valleys
	MedianGapPost float64   // median gap of the pruned consensus peaks
	CoarseValleys []int     // valleys of the whole-ear coarse profile
}

// Count estimates the kernel-row count of an upright BGR ear image. It is
// always best-effort: a band whose profile never settles contributes its
// largest-window valleys rather than failing the whole ear.
func Count(ear gocv.Mat, p Params) (Result, error) {
	land := gocv.NewMat()
	defer land.Close()
	gocv.Rotate(ear, &land, gocv.Rotate90Clockwise)

	// Central patch: middle bands across, middle third down. The ear tip and
	// base taper and would distort the profile.
	cb := bandBounds(land.Cols(), p.Bands)
	rb := bandBounds(land.Rows(), 3)
	patch := maskedCopy(land, image.Rect(cb[1], rb[1], cb[p.Bands-2], rb[2]))
	defer patch.Close()
	strip := maskedCopy(land, image.Rect(cb[1], 0, cb[p.Bands-2], land.Rows()))
	defer strip.Close()

	bounds, ok := contentRect(patch)
	if !ok {
		return Result{}, ErrDegenerateSlice
	}
	slab := patch.Region(bounds)
	defer slab.Close()
	stripCut := strip.Region(image.Rect(bounds.Min.X, 0, bounds.Max.X, strip.Rows()))
	defer stripCut.Close()

	coarse, err := coarseValleys(slab, p)
	if err != nil {
		return Result{}, err
	}

	// Per-band valleys, pooled without shifting.
	bb := bandBounds(stripCut.Cols(), p.Bands)
	var pooled []int
	for i := 1; i <= p.Bands-2; i++ {
		valleys, err := bandValleys(stripCut, bb[i], bb[i+1], p)
		if err != nil {
			continue
		}
		pooled = append(pooled, valleys...)
	}

	peaks, medianGap := ClusterValleys(pooled)
	final := AdaptivePrune(peaks, p.Prune)

	res := Result{
		Peaks:         final,
		RowCount:      len(final),
		MedianGapPre:  medianGap,
		MedianGapPost: math.NaN(),
		CoarseValleys: coarse,
	}
	if len(final) >= 2 {
		res.MedianGapPost = signal.Median(signal.Diffs(final))
	}
	return res, nil
}

// coarseValleys profiles the whole central slab with the coarse window.
func coarseValleys(slab gocv.Mat, p Params) ([]int, error) {
	profile, err := greenProfile(slab)
	if err != nil {
		return nil, err
	}
	smoothed, err := smoothProfile(profile, p.CoarseWindow, p.CoarseOrder, slab.Rows())
	if err != nil {
		return nil, err
	}
	return signal.LocalMinima(smoothed), nil
}

// bandValleys isolates one vertical band, crops it to its foreground, and
// searches its green profile for valleys, smoothing harder until the count
// drops to MaxExtrema or the window hits the profile length.
func bandValleys(strip gocv.Mat, c0, c1 int, p Params) ([]int, error) {
	band := maskedCopy(strip, image.Rect(c0, 0, c1, strip.Rows()))
	defer band.Close()

	upright := gocv.NewMat()
	defer upright.Close()
	gocv.Rotate(band, &upright, gocv.Rotate90CounterClockwise)

	bounds, ok := contentRect(upright)
	if !ok {
		return nil, ErrDegenerateSlice
	}
	cut := upright.Region(bounds)
	defer cut.Close()

	profile, err := greenProfile(cut)
	if err != nil {
		return nil, err
	}
	return settleValleys(profile, cut.Rows(), p)
}

// settleValleys smooths a band profile with a growing window until its valley
// count drops to MaxExtrema. A profile that never settles still yields the
// largest-window valleys rather than an error.
func settleValleys(profile []float64, height int, p Params) ([]int, error) {
	valleys := signal.LocalMinima(profile)
	window := p.FineWindow
	for len(valleys) > p.MaxExtrema {
		smoothed, err := smoothProfile(profile, window, p.FineOrder, height)
		if err != nil {
			return nil, err
		}
		valleys = signal.LocalMinima(smoothed)
		if window >= len(profile) {
			break
		}
		window += p.FineStep
	}
	return valleys, nil
}

// maskedCopy returns a black image of src's size with only the pixels inside
// keep copied over. The rectangle is clipped to the image bounds.
func maskedCopy(src gocv.Mat, keep image.Rectangle) gocv.Mat {
	keep = keep.Intersect(image.Rect(0, 0, src.Cols(), src.Rows()))
	out := gocv.Zeros(src.Rows(), src.Cols(), src.Type())
	if keep.Empty() {
		return out
	}
	srcROI := src.Region(keep)
	dstROI := out.Region(keep)
	srcROI.CopyTo(&dstROI)
	srcROI.Close()
	dstROI.Close()
	return out
}

// contentRect finds the bounding box of the largest foreground contour after
// an Otsu threshold on the grayscale image.
func contentRect(img gocv.Mat) (image.Rectangle, bool) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	bin := gocv.NewMat()
	defer bin.Close()
	gocv.Threshold(gray, &bin, 0, 255, gocv.ThresholdBinary+gocv.ThresholdOtsu)

	contours := gocv.FindContours(bin, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var best image.Rectangle
	var bestArea float64
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		if a := gocv.ContourArea(c); a > bestArea {
			bestArea = a
			best = gocv.BoundingRect(c)
		}
	}
	return best, bestArea > 0
}
