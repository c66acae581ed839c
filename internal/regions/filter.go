package regions

// FilterSpec is the predicate configuration for keeping candidate ear
// regions. Area bounds are fractions of the total image area so that the
// same spec works across image resolutions.
type FilterSpec struct {
	MinAreaFrac    float64 // minimum region area as a fraction of image area
	MaxAreaFrac    float64 // maximum region area as a fraction of image area
	MaxAspectRatio float64 // min(w,h)/max(w,h) upper bound
	MaxSolidity    float64 // area/hullArea upper bound; silky ears score lower
}

// DefaultFilterSpec returns the stock ear filter: 1-10% of image area,
// elongated shapes only, and a solidity ceiling that rejects solid square
// artifacts like color checkers.
func DefaultFilterSpec() FilterSpec {
	return FilterSpec{
		MinAreaFrac:    0.010,
		MaxAreaFrac:    0.100,
		MaxAspectRatio: 0.6,
		MaxSolidity:    0.983,
	}
}

// Passes reports whether a region satisfies the filter against the given
// total image area in pixels.
func (s FilterSpec) Passes(r Region, imageArea int) bool {
	minArea := s.MinAreaFrac * float64(imageArea)
	maxArea := s.MaxAreaFrac * float64(imageArea)
	area := float64(r.Area)

	return area >= minArea && area <= maxArea &&
		r.AspectRatio() <= s.MaxAspectRatio &&
		r.Solidity() <= s.MaxSolidity
}

// Filter returns the subset of regions passing the filter, preserving order.
// Zero passing regions is a valid result, not an error.
func Filter(all []Region, spec FilterSpec, imageArea int) []Region {
	var out []Region
	for _, r := range all {
		if spec.Passes(r, imageArea) {
			out = append(out, r)
		}
	}
	return out
}
