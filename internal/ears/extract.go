package ears

import (
	"image"
	"image/color"

	"earcv/internal/regions"

	"gocv.io/x/gocv"
)

// roiBorder is the constant padding added around every extracted ear so
// later morphology never touches the image edge.
const roiBorder = 30

// ExtractROIs cuts one upright ROI per region out of the masked image,
// ordered left to right. Each ear is deskewed with a perspective warp of its
// minimum-area rectangle, rotated to portrait, and padded with a black
// border. The caller owns the returned Mats.
func ExtractROIs(img gocv.Mat, mask gocv.Mat, regs []regions.Region) []gocv.Mat {
	masked := gocv.NewMat()
	img.CopyToWithMask(&masked, mask)
	defer masked.Close()

	rois := make([]gocv.Mat, 0, len(regs))
	for _, r := range regs {
		roi := warpRegion(masked, r)
		if roi.Empty() {
			roi.Close()
			continue
		}

		// Portrait orientation: ear axis vertical
		if roi.Cols() > roi.Rows() {
			rotated := gocv.NewMat()
			gocv.Rotate(roi, &rotated, gocv.Rotate90CounterClockwise)
			roi.Close()
			roi = rotated
		}

		padded := gocv.NewMat()
		gocv.CopyMakeBorder(roi, &padded, roiBorder, roiBorder, roiBorder, roiBorder,
			gocv.BorderConstant, color.RGBA{})
		roi.Close()

		rois = append(rois, padded)
	}
	return rois
}

// warpRegion deskews one region by mapping its min-area rectangle corners
// onto an axis-aligned rectangle.
func warpRegion(img gocv.Mat, r regions.Region) gocv.Mat {
	if len(r.Contour) < 3 {
		return gocv.NewMat()
	}

	pts := make([]image.Point, len(r.Contour))
	for i, p := range r.Contour {
		pts[i] = image.Pt(p.X, p.Y)
	}
	pv := gocv.NewPointVectorFromPoints(pts)
	defer pv.Close()

	rect := gocv.MinAreaRect(pv)
	w, h := rect.Width, rect.Height
	if w < 1 || h < 1 {
		return gocv.NewMat()
	}

	tl, tr, br, bl := orderCorners(rect.Points)
	src := gocv.NewPoint2fVectorFromPoints([]gocv.Point2f{tl, tr, br, bl})
	defer src.Close()
	dst := gocv.NewPoint2fVectorFromPoints([]gocv.Point2f{
		{X: 0, Y: float32(h - 1)},
		{X: 0, Y: 0},
		{X: float32(w - 1), Y: 0},
		{X: float32(w - 1), Y: float32(h - 1)},
	})
	defer dst.Close()

	m := gocv.GetPerspectiveTransform2f(src, dst)
	defer m.Close()

	out := gocv.NewMat()
	gocv.WarpPerspective(img, &out, m, image.Pt(w, h))
	return out
}

// orderCorners sorts four rectangle corners into top-left, top-right,
// bottom-right, bottom-left using the coordinate sum/difference trick.
func orderCorners(pts []image.Point) (tl, tr, br, bl gocv.Point2f) {
	toF := func(p image.Point) gocv.Point2f {
		return gocv.Point2f{X: float32(p.X), Y: float32(p.Y)}
	}

	tlP, trP, brP, blP := pts[0], pts[0], pts[0], pts[0]
	for _, p := range pts {
		if p.X+p.Y < tlP.X+tlP.Y {
			tlP = p
		}
		if p.X+p.Y > brP.X+brP.Y {
			brP = p
		}
		if p.Y-p.X < trP.Y-trP.X {
			trP = p
		}
		if p.Y-p.X > blP.Y-blP.X {
			blP = p
		}
	}
	return toF(tlP), toF(trP), toF(brP), toF(blP)
}

// Orient flips an upright ear ROI so the wider base sits at the top third.
// The taper direction is estimated by comparing mean foreground row widths
// of the first and last thirds of the red-channel Otsu mask. Returns a new
// Mat and whether it flipped.
func Orient(ear gocv.Mat) (gocv.Mat, bool) {
	red := gocv.NewMat()
	defer red.Close()
	channels := gocv.Split(ear)
	channels[2].CopyTo(&red)
	for _, ch := range channels {
		ch.Close()
	}

	bw := gocv.NewMat()
	defer bw.Close()
	gocv.Threshold(red, &bw, 0, 255, gocv.ThresholdBinary+gocv.ThresholdOtsu)

	rows, cols := bw.Rows(), bw.Cols()
	third := rows / 3
	if third == 0 {
		return ear.Clone(), false
	}

	meanWidth := func(r0, r1 int) float64 {
		var total int
		for y := r0; y < r1; y++ {
			for x := 0; x < cols; x++ {
				if bw.GetUCharAt(y, x) > 0 {
					total++
				}
			}
		}
		return float64(total) / float64(r1-r0)
	}

	top := meanWidth(0, third)
	bottom := meanWidth(rows-third, rows)

	if bottom <= top {
		return ear.Clone(), false
	}
	flipped := gocv.NewMat()
	gocv.Rotate(ear, &flipped, gocv.Rotate180Clockwise)
	return flipped, true
}
