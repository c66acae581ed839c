package ears

import (
	"fmt"

	earimg "earcv/internal/image"

	"gocv.io/x/gocv"
)

// SegmentBackground separates foreground objects from the uniform backdrop
// using K-means (k=2) clustering in Lab color space. The backdrop is the
// dominant cluster by pixel count; everything else becomes foreground.
// Returns a binary mask.
func SegmentBackground(img gocv.Mat) (gocv.Mat, error) {
	if img.Empty() {
		return gocv.NewMat(), fmt.Errorf("segment background: empty image")
	}

	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(img, &lab, gocv.ColorBGRToLab)

	// Reshape to (h*w) x 3 float32 for k-means
	h, w := lab.Rows(), lab.Cols()
	pixels := gocv.NewMatWithSize(h*w, 3, gocv.MatTypeCV32F)
	defer pixels.Close()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			vec := lab.GetVecbAt(y, x)
			pixels.SetFloatAt(idx, 0, float32(vec[0]))
			pixels.SetFloatAt(idx, 1, float32(vec[1]))
			pixels.SetFloatAt(idx, 2, float32(vec[2]))
		}
	}

	labels := gocv.NewMat()
	defer labels.Close()
	centers := gocv.NewMat()
	defer centers.Close()

	criteria := gocv.NewTermCriteria(gocv.EPS+gocv.MaxIter, 100, 0.2)
	gocv.KMeans(pixels, 2, &labels, criteria, 5, gocv.KMeansPPCenters, &centers)

	// The backdrop covers more pixels than the ears
	var count0 int
	for i := 0; i < h*w; i++ {
		if labels.GetIntAt(i, 0) == 0 {
			count0++
		}
	}
	foreground := int32(0)
	if count0*2 > h*w {
		foreground = 1
	}

	mask := gocv.Zeros(h, w, gocv.MatTypeCV8UC1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if labels.GetIntAt(y*w+x, 0) == foreground {
				mask.SetUCharAt(y, x, 255)
			}
		}
	}
	return mask, nil
}

// ThresholdChannel is the manual segmentation fallback for when clustering
// fails: pick one channel of a color space and threshold it, optionally
// inverted for light backdrops. A zero threshold selects Otsu.
func ThresholdChannel(img gocv.Mat, space earimg.ColorSpace, index int, threshold float64, invert bool) (gocv.Mat, error) {
	channel, err := earimg.SplitChannel(img, space, index)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer channel.Close()

	mask := gocv.NewMat()
	if threshold <= 0 {
		gocv.Threshold(channel, &mask, 0, 255, gocv.ThresholdBinary+gocv.ThresholdOtsu)
	} else {
		gocv.Threshold(channel, &mask, float32(threshold), 255, gocv.ThresholdBinary)
	}

	if invert {
		gocv.BitwiseNot(mask, &mask)
	}
	return mask, nil
}
