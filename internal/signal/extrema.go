package signal

import "sort"

// LocalMinima returns the indices of strict local minima: samples smaller
// than both immediate neighbors. Endpoints are never extrema. Plateaus do
// not count, matching scipy's argrelextrema(np.less) semantics.
func LocalMinima(xs []float64) []int {
	var out []int
	for i := 1; i < len(xs)-1; i++ {
		if xs[i] < xs[i-1] && xs[i] < xs[i+1] {
			out = append(out, i)
		}
	}
	return out
}

// LocalMaxima returns the indices of strict local maxima.
func LocalMaxima(xs []float64) []int {
	var out []int
	for i := 1; i < len(xs)-1; i++ {
		if xs[i] > xs[i-1] && xs[i] > xs[i+1] {
			out = append(out, i)
		}
	}
	return out
}

// Median returns the median of xs, averaging the two middle values for an
// even count (numpy semantics). Returns 0 for an empty slice.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Diffs returns the consecutive differences xs[i+1]-xs[i].
func Diffs(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	out := make([]float64, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		out[i-1] = xs[i] - xs[i-1]
	}
	return out
}
