// Package cob segments the exposed cob at the ear tip and the shank at the
// ear bottom, the two regions kernel-free ears expose. Both work on a
// color-difference image that highlights cob tissue against kernels.
package cob

import (
	"image"

	"gocv.io/x/gocv"
)

// Params tunes one end-segmentation pass.
type Params struct {
	Percent   int     // percent of ear height eligible from that end
	Contrast  int     // contrast pre-boost in [-127,127]; 0 leaves the image alone
	Threshold float64 // fixed threshold factor over mean masked intensity; 0 picks k-means auto mode
	Close     int     // closing kernel size and repeat count; 0 disables
	Extent    int     // number of leading component labels kept as tip
}

// DefaultTipParams segments the top 20% automatically.
func DefaultTipParams() Params {
	return Params{Percent: 20, Contrast: 0, Threshold: 0, Close: 0, Extent: 2}
}

// DefaultBottomParams segments the bottom 20% automatically.
func DefaultBottomParams() Params {
	return Params{Percent: 20, Contrast: 0, Threshold: 0, Close: 0, Extent: 2}
}

// SegmentTip returns a mask of exposed cob at the top of an upright ear.
// diff is the caller's color-difference image for the same ear.
func SegmentTip(ear, diff gocv.Mat, p Params) gocv.Mat {
	bw := redOtsu(ear)
	defer bw.Close()

	region := endRegion(diff, p, true)
	defer region.Close()

	masked := gocv.NewMat()
	defer masked.Close()
	bw.CopyToWithMask(&masked, region)

	closed := closeIfSet(masked, p.Close)
	defer closed.Close()

	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()
	n := gocv.ConnectedComponentsWithStatsWithParams(closed, &labels, &stats, &centroids,
		4, gocv.MatTypeCV32S, gocv.CCL_DEFAULT)

	// The tip is whatever connects first from the top: keep the leading
	// labels up to Extent.
	tip := gocv.Zeros(diff.Rows(), diff.Cols(), gocv.MatTypeCV8UC1)
	for label := 1; label < p.Extent && label < n; label++ {
		paintLabel(&tip, labels, label)
	}
	return tip
}

// SegmentBottom returns a mask of the shank and exposed cob at the bottom of
// an upright ear.
func SegmentBottom(ear, diff gocv.Mat, p Params) gocv.Mat {
	bw := redOtsu(ear)
	defer bw.Close()

	region := endRegion(diff, p, false)
	defer region.Close()

	masked := gocv.NewMat()
	defer masked.Close()
	bw.CopyToWithMask(&masked, region)

	closed := closeIfSet(masked, p.Close)
	defer closed.Close()

	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()
	n := gocv.ConnectedComponentsWithStatsWithParams(closed, &labels, &stats, &centroids,
		4, gocv.MatTypeCV32S, gocv.CCL_DEFAULT)

	bottom := gocv.Zeros(diff.Rows(), diff.Cols(), gocv.MatTypeCV8UC1)

	// Keep any non-trivial component past the first, plus the last label
	// outright; the shank is the lowest structure and labels come out
	// roughly top to bottom.
	minArea := float64(ear.Rows()*ear.Cols()) * 0.001
	for label := 2; label < n; label++ {
		if float64(stats.GetIntAt(label, int(gocv.CCStatArea))) > minArea {
			paintLabel(&bottom, labels, label)
		}
	}
	if n > 1 {
		paintLabel(&bottom, labels, n-1)
	}
	return bottom
}

// redOtsu thresholds the red channel: kernels are bright in red regardless of
// kernel color, so this gives the whole-ear foreground.
func redOtsu(ear gocv.Mat) gocv.Mat {
	channels := gocv.Split(ear)
	for i, ch := range channels {
		if i != 2 {
			ch.Close()
		}
	}
	red := channels[2]
	defer red.Close()

	bw := gocv.NewMat()
	gocv.Threshold(red, &bw, 0, 255, gocv.ThresholdBinary+gocv.ThresholdOtsu)
	return bw
}

// endRegion binarizes the color-difference image and blanks everything
// outside the eligible end of the ear.
func endRegion(diff gocv.Mat, p Params, top bool) gocv.Mat {
	adjusted := adjustContrast(diff, p.Contrast)
	defer adjusted.Close()

	auto := p.Threshold == 0 && p.Close == 0
	var bin gocv.Mat
	if auto {
		bin = kmeansBinarize(adjusted)
	} else {
		bin = fixedBinarize(adjusted, p.Threshold)
	}

	// The bottom is always limited to its percent band; the tip only in
	// fixed-threshold mode.
	if !top || !auto {
		cut := int(float64(diff.Rows()) * float64(p.Percent) / 100)
		var blank image.Rectangle
		if top {
			blank = image.Rect(0, cut, diff.Cols(), diff.Rows())
		} else {
			blank = image.Rect(0, 0, diff.Cols(), diff.Rows()-cut)
		}
		if !blank.Empty() {
			roi := bin.Region(blank)
			roi.SetTo(gocv.NewScalar(0, 0, 0, 0))
			roi.Close()
		}
	}
	return bin
}

// adjustContrast applies the linear contrast remap used before thresholding.
// contrast 0 returns a plain clone.
func adjustContrast(img gocv.Mat, contrast int) gocv.Mat {
	if contrast == 0 {
		return img.Clone()
	}
	c := float64(contrast)
	f := 131 * (c + 127) / (127 * (131 - c))
	out := gocv.NewMat()
	img.ConvertToWithParams(&out, gocv.MatTypeCV8UC3, float32(f), float32(127*(1-f)))
	return out
}

// kmeansBinarize inverts the image, quantizes it to two colors, and Otsu
// thresholds the result. Cob tissue and kernels form the two clusters.
func kmeansBinarize(img gocv.Mat) gocv.Mat {
	inverted := gocv.NewMat()
	defer inverted.Close()
	gocv.BitwiseNot(img, &inverted)

	rows, cols := inverted.Rows(), inverted.Cols()
	pixels := gocv.NewMatWithSize(rows*cols, 3, gocv.MatTypeCV32F)
	defer pixels.Close()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := inverted.GetVecbAt(y, x)
			idx := y*cols + x
			pixels.SetFloatAt(idx, 0, float32(v[0]))
			pixels.SetFloatAt(idx, 1, float32(v[1]))
			pixels.SetFloatAt(idx, 2, float32(v[2]))
		}
	}

	labels := gocv.NewMat()
	defer labels.Close()
	centers := gocv.NewMat()
	defer centers.Close()
	criteria := gocv.NewTermCriteria(gocv.EPS+gocv.MaxIter, 10, 1.0)
	gocv.KMeans(pixels, 2, &labels, criteria, 5, gocv.KMeansPPCenters, &centers)

	// The brighter cluster of the inverted image is the cob tissue.
	lum := func(i int) float32 {
		return centers.GetFloatAt(i, 0) + centers.GetFloatAt(i, 1) + centers.GetFloatAt(i, 2)
	}
	bright := 0
	if lum(1) > lum(0) {
		bright = 1
	}

	bin := gocv.Zeros(rows, cols, gocv.MatTypeCV8UC1)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if int(labels.GetIntAt(y*cols+x, 0)) == bright {
				bin.SetUCharAt(y, x, 255)
			}
		}
	}
	return bin
}

// fixedBinarize thresholds the grayscale difference image at factor x its
// mean intensity, inverted so dark cob tissue becomes foreground.
func fixedBinarize(img gocv.Mat, factor float64) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	mean := gray.Mean().Val1

	bin := gocv.NewMat()
	gocv.Threshold(gray, &bin, float32(mean*factor), 255, gocv.ThresholdBinaryInv)
	return bin
}

// closeIfSet applies a morphological closing with a size x size kernel
// repeated size times, or clones the input when size is 0.
func closeIfSet(src gocv.Mat, size int) gocv.Mat {
	if size <= 0 {
		return src.Clone()
	}
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(size, size))
	defer kernel.Close()
	dst := gocv.NewMat()
	gocv.MorphologyExWithParams(src, &dst, gocv.MorphClose, kernel, size, gocv.BorderConstant)
	return dst
}

// paintLabel sets dst to 255 wherever labels equals label.
func paintLabel(dst *gocv.Mat, labels gocv.Mat, label int) {
	for y := 0; y < labels.Rows(); y++ {
		for x := 0; x < labels.Cols(); x++ {
			if int(labels.GetIntAt(y, x)) == label {
				dst.SetUCharAt(y, x, 255)
			}
		}
	}
}
