package image

import (
	"fmt"

	"gocv.io/x/gocv"
)

// ColorSpace selects the color representation a channel is taken from.
type ColorSpace int

const (
	SpaceBGR ColorSpace = iota
	SpaceHSV
	SpaceLab
	SpaceGray
)

func (c ColorSpace) String() string {
	switch c {
	case SpaceBGR:
		return "BGR"
	case SpaceHSV:
		return "HSV"
	case SpaceLab:
		return "Lab"
	case SpaceGray:
		return "Gray"
	default:
		return "Unknown"
	}
}

// SplitChannel converts a BGR image to the requested color space and returns
// a single-channel grayscale Mat holding the channel at the given index.
// SpaceGray ignores the index. The returned Mat is owned by the caller.
func SplitChannel(src gocv.Mat, space ColorSpace, index int) (gocv.Mat, error) {
	if src.Empty() {
		return gocv.NewMat(), fmt.Errorf("split channel: empty image")
	}

	if space == SpaceGray {
		gray := gocv.NewMat()
		gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
		return gray, nil
	}

	if index < 0 || index > 2 {
		return gocv.NewMat(), fmt.Errorf("split channel: index %d out of range", index)
	}

	converted := gocv.NewMat()
	defer converted.Close()

	switch space {
	case SpaceBGR:
		src.CopyTo(&converted)
	case SpaceHSV:
		gocv.CvtColor(src, &converted, gocv.ColorBGRToHSV)
	case SpaceLab:
		gocv.CvtColor(src, &converted, gocv.ColorBGRToLab)
	default:
		return gocv.NewMat(), fmt.Errorf("split channel: unsupported color space %v", space)
	}

	channels := gocv.Split(converted)
	for i, ch := range channels {
		if i != index {
			ch.Close()
		}
	}
	return channels[index], nil
}

// MaskOut zeroes every pixel of src where the single-channel mask is zero,
// returning a new Mat. Src may have any number of channels.
func MaskOut(src, mask gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	src.CopyToWithMask(&dst, mask)
	return dst
}
