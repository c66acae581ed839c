package rows

import (
	"errors"

	"earcv/internal/signal"

	"gocv.io/x/gocv"
)

// ErrDegenerateSlice marks a band slice with zero width or height, from which
// no intensity profile can be taken.
var ErrDegenerateSlice = errors.New("rows: slice has zero width or height")

// columnSums reduces a single-channel image to one value per column: the sum
// of that column's intensities over all rows.
func columnSums(ch gocv.Mat) ([]float64, error) {
	rows, cols := ch.Rows(), ch.Cols()
	if rows == 0 || cols == 0 {
		return nil, ErrDegenerateSlice
	}
	sums := make([]float64, cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			sums[x] += float64(ch.GetUCharAt(y, x))
		}
	}
	return sums, nil
}

// smoothProfile smooths a column profile and rescales its amplitude into
// [0, height] so valley thresholds stay resolution-independent. The window is
// clamped to the profile length (kept odd) so growing windows never outrun a
// short slice.
func smoothProfile(profile []float64, window, order, height int) ([]float64, error) {
	if window > len(profile) {
		window = len(profile)
		if window%2 == 0 {
			window--
		}
	}
	if order >= window {
		order = window - 1
	}
	if window < 3 || order < 1 {
		// Too short to smooth meaningfully; rescale as-is.
		return signal.RescaleLinear(profile, 0, float64(height)), nil
	}
	smoothed, err := signal.SavGol(profile, window, order)
	if err != nil {
		return nil, err
	}
	return signal.RescaleLinear(smoothed, 0, float64(height)), nil
}

// greenProfile extracts the green channel of a BGR image and reduces it to
// column sums.
func greenProfile(img gocv.Mat) ([]float64, error) {
	channels := gocv.Split(img)
	for i, ch := range channels {
		if i != 1 {
			ch.Close()
		}
	}
	green := channels[1]
	defer green.Close()
	return columnSums(green)
}
