// Package qr finds and decodes the sample-label QR code in an ear photo,
// optionally scanning overlapping square windows when the code is too small
// relative to the frame to decode whole-image.
package qr

import (
	"errors"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"gocv.io/x/gocv"
)

// ErrNotFound means no window produced a decodable QR code.
var ErrNotFound = errors.New("qr: no code found")

// Params tunes the QR scan.
type Params struct {
	WindowSize int     // square scan window in pixels; 0 scans the whole image
	Overlap    float64 // fraction of window overlap between neighbors, in [0,1)
}

// DefaultParams scans the whole image in one pass.
func DefaultParams() Params {
	return Params{WindowSize: 0, Overlap: 0.01}
}

// Result is one decoded QR code.
type Result struct {
	Data     string          // decoded payload, the sample label
	Window   image.Rectangle // window the code decoded in, whole image if unwindowed
	Attempts int             // windows tried before the hit
}

// Scan looks for a QR code in a BGR image. Dark pixels are lifted onto a
// white background first, matching how printed labels photograph against the
// blue picking table.
func Scan(img gocv.Mat, p Params) (Result, error) {
	if p.WindowSize <= 0 {
		res, err := decodeWindow(img)
		if err != nil {
			return Result{}, ErrNotFound
		}
		res.Window = image.Rect(0, 0, img.Cols(), img.Rows())
		res.Attempts = 1
		return res, nil
	}

	xs := startPoints(img.Cols(), p.WindowSize, p.Overlap)
	ys := startPoints(img.Rows(), p.WindowSize, p.Overlap)

	attempts := 0
	for _, y := range ys {
		for _, x := range xs {
			attempts++
			win := image.Rect(x, y, x+p.WindowSize, y+p.WindowSize).
				Intersect(image.Rect(0, 0, img.Cols(), img.Rows()))
			if win.Empty() {
				continue
			}
			region := img.Region(win)
			res, err := decodeWindow(region)
			region.Close()
			if err != nil {
				continue
			}
			res.Window = win
			res.Attempts = attempts
			return res, nil
		}
	}
	return Result{Attempts: attempts}, ErrNotFound
}

// decodeWindow binarizes one window and tries a single decode.
func decodeWindow(img gocv.Mat) (Result, error) {
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(img,
		gocv.NewScalar(0, 0, 0, 0),
		gocv.NewScalar(200, 200, 200, 0),
		&mask)

	inverted := gocv.NewMat()
	defer inverted.Close()
	gocv.BitwiseNot(mask, &inverted)

	goImg, err := inverted.ToImage()
	if err != nil {
		return Result{}, err
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(goImg)
	if err != nil {
		return Result{}, err
	}
	decoded, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return Result{}, err
	}
	return Result{Data: decoded.GetText()}, nil
}

// startPoints returns the window origins covering size with the given window
// and overlap fraction, the last window pinned to the image edge.
func startPoints(size, window int, overlap float64) []int {
	if window >= size {
		return []int{0}
	}
	stride := int(float64(window) * (1 - overlap))
	if stride < 1 {
		stride = 1
	}
	points := []int{0}
	for counter := 1; ; counter++ {
		pt := stride * counter
		if pt+window >= size {
			points = append(points, size-window)
			break
		}
		points = append(points, pt)
	}
	return points
}
