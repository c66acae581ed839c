// Package signal provides the 1-D numeric primitives behind kernel-row
// detection: polynomial (Savitzky-Golay) smoothing, strict local-extrema
// search, and small order statistics with numpy-compatible semantics.
package signal

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SavGol smooths xs with a Savitzky-Golay filter: each output sample is the
// value at the window center of a least-squares polynomial of the given
// order fitted over the window. Edges are handled by mirror extension.
// The window must be odd, larger than the order, and no longer than xs.
func SavGol(xs []float64, window, order int) ([]float64, error) {
	if window%2 == 0 {
		return nil, fmt.Errorf("savgol: window %d must be odd", window)
	}
	if order >= window {
		return nil, fmt.Errorf("savgol: order %d must be less than window %d", order, window)
	}
	if window > len(xs) {
		return nil, fmt.Errorf("savgol: window %d exceeds signal length %d", window, len(xs))
	}

	weights := savgolWeights(window, order)

	n := len(xs)
	half := window / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for k := -half; k <= half; k++ {
			sum += weights[k+half] * xs[mirror(i+k, n)]
		}
		out[i] = sum
	}
	return out, nil
}

// savgolWeights computes the convolution weights that evaluate the fitted
// polynomial at the window center: the first row of the pseudo-inverse of
// the Vandermonde design matrix.
func savgolWeights(window, order int) []float64 {
	half := window / 2

	a := mat.NewDense(window, order+1, nil)
	for i := 0; i < window; i++ {
		t := float64(i - half)
		v := 1.0
		for j := 0; j <= order; j++ {
			a.Set(i, j, v)
			v *= t
		}
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)

	var inv mat.Dense
	if err := inv.Inverse(&ata); err != nil {
		// The Vandermonde normal matrix is nonsingular for order < window;
		// this path is unreachable for validated inputs.
		panic(fmt.Sprintf("savgol: singular design matrix: %v", err))
	}

	var pinv mat.Dense
	pinv.Mul(&inv, a.T())

	weights := make([]float64, window)
	// Row 0 of the pseudo-inverse is the constant coefficient of the fit,
	// which equals the fitted value at t=0 (the window center).
	for i := 0; i < window; i++ {
		weights[i] = pinv.At(0, i)
	}
	return weights
}

// mirror reflects an out-of-range index back into [0, n) without repeating
// the edge sample.
func mirror(i, n int) int {
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

// RescaleLinear maps xs linearly so its minimum becomes lo and its maximum
// becomes hi. A constant signal maps entirely to lo.
func RescaleLinear(xs []float64, lo, hi float64) []float64 {
	if len(xs) == 0 {
		return nil
	}
	minV, maxV := xs[0], xs[0]
	for _, v := range xs[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	out := make([]float64, len(xs))
	span := maxV - minV
	if span == 0 {
		for i := range out {
			out[i] = lo
		}
		return out
	}
	scale := (hi - lo) / span
	for i, v := range xs {
		out[i] = lo + (v-minV)*scale
	}
	return out
}
