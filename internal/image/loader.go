// Package image provides image loading and raster/Mat plumbing for the
// analysis pipeline: file decoding, color-space channel splitting, and
// orientation helpers. All heavy per-pixel work stays in OpenCV Mats.
package image

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"gocv.io/x/gocv"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// LoadFile decodes an image file (TIFF, PNG, JPEG, or BMP) and returns it as
// a BGR Mat ready for OpenCV processing.
func LoadFile(path string) (gocv.Mat, error) {
	f, err := os.Open(path)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return ToMat(img), nil
}

// ToMat converts a Go image.Image to an 8-bit 3-channel BGR Mat.
func ToMat(srcImg image.Image) gocv.Mat {
	bounds := srcImg.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := srcImg.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// Convert from 16-bit to 8-bit and BGR order for OpenCV
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}
	return mat
}

// EnsureLandscape rotates the image 90° clockwise when it is taller than it
// is wide. Ears are photographed lying across the long image axis; the whole
// pipeline assumes that orientation. Returns a new Mat and whether it rotated.
func EnsureLandscape(src gocv.Mat) (gocv.Mat, bool) {
	if src.Rows() <= src.Cols() {
		return src.Clone(), false
	}
	dst := gocv.NewMat()
	gocv.Rotate(src, &dst, gocv.Rotate90Clockwise)
	return dst, true
}
