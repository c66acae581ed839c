package rows

import (
	"sort"

	"earcv/internal/signal"
)

// ClusterValleys pools raw valley column indices from all bands into one
// consensus peak set. The pooled indices are sorted, the median of their
// consecutive differences becomes the clustering gap, and a walk over the
// sorted sequence groups indices no further than that gap from their
// predecessor into one cluster. Each cluster collapses to its median.
//
// No two consensus peaks end up closer than the median gap, except when
// adjacent clusters' medians land near their shared boundary; the spacing
// bound is approximate, not strict.
func ClusterValleys(pooled []int) (peaks []float64, medianGap float64) {
	if len(pooled) == 0 {
		return nil, 0
	}

	sorted := make([]float64, len(pooled))
	for i, v := range pooled {
		sorted[i] = float64(v)
	}
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted, 0
	}

	medianGap = signal.Median(signal.Diffs(sorted))

	var clusters [][]float64
	current := []float64{}
	prev := sorted[0]
	for _, v := range sorted {
		if v-prev <= medianGap {
			current = append(current, v)
		} else {
			clusters = append(clusters, current)
			current = []float64{v}
		}
		prev = v
	}
	clusters = append(clusters, current)

	peaks = make([]float64, len(clusters))
	for i, c := range clusters {
		peaks[i] = signal.Median(c)
	}
	return peaks, medianGap
}

// PruneParams bounds the adaptive peak pruning pass.
type PruneParams struct {
	StartThreshold float64 // fraction of the max inter-peak gap a peak must clear
	Step           float64 // threshold decrement per outer pass
	MinPeaks       int     // outer loop retries until at least this many survive
	MaxPasses      int     // outer pass budget
}

// DefaultPruneParams returns the stock pruning schedule.
func DefaultPruneParams() PruneParams {
	return PruneParams{
		StartThreshold: 0.9,
		Step:           0.1,
		MinPeaks:       6,
		MaxPasses:      6,
	}
}

// AdaptivePrune drops consensus peaks whose gap to the previous retained peak
// falls under threshold x the maximum observed gap. Each outer pass restarts
// from the original peak set with a lower threshold, so over-pruning at a
// strict threshold is retried more leniently until at least MinPeaks survive
// or the pass budget runs out. The first peak is always retained.
//
// The restart-and-relax schedule is deliberately kept exactly as tuned for
// kernel-row counting; a tighter stopping rule changes row counts on real
// ears.
func AdaptivePrune(peaks []float64, p PruneParams) []float64 {
	out := append([]float64(nil), peaks...)
	if len(peaks) < 2 {
		return out
	}

	maxGap := 0.0
	for _, d := range signal.Diffs(peaks) {
		if d > maxGap {
			maxGap = d
		}
	}

	threshold := p.StartThreshold
	for pass := 0; ; {
		kept := []float64{peaks[0]}
		prev := peaks[0]
		for _, pk := range peaks[1:] {
			if pk-prev < threshold*maxGap {
				continue
			}
			kept = append(kept, pk)
			prev = pk
		}
		out = kept

		threshold -= p.Step
		pass++
		if len(out) >= p.MinPeaks || pass > p.MaxPasses {
			return out
		}
	}
}
