package regions

import (
	"testing"

	"earcv/pkg/geometry"
)

// squareRegion fabricates a filled square region at x with the given side.
func squareRegion(label, x, side int) Region {
	s := float64(side)
	return Region{
		Label:  label,
		Area:   side * side,
		Bounds: geometry.RectInt{X: x, Y: 0, Width: side, Height: side},
		Hull: []geometry.Point2D{
			{X: float64(x), Y: 0},
			{X: float64(x) + s, Y: 0},
			{X: float64(x) + s, Y: s},
			{X: float64(x), Y: s},
		},
	}
}

func TestFilterPasses(t *testing.T) {
	const imageArea = 10000
	r := squareRegion(1, 0, 20) // area 400 = 4% of image

	tests := []struct {
		name string
		spec FilterSpec
		want bool
	}{
		{"inside all bounds", FilterSpec{0.01, 0.10, 1, 1.5}, true},
		{"below min area", FilterSpec{0.05, 0.10, 1, 1.5}, false},
		{"above max area", FilterSpec{0.001, 0.01, 1, 1.5}, false},
		{"aspect too square", FilterSpec{0.01, 0.10, 0.6, 1.5}, false},
		{"too solid", FilterSpec{0.01, 0.10, 1, 0.983}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.spec.Passes(r, imageArea); got != tt.want {
				t.Errorf("Passes = %v, want %v", got, tt.want)
			}
		})
	}
}

// Tightening any single bound must never let more regions through.
func TestFilterMonotonicity(t *testing.T) {
	const imageArea = 100000
	all := []Region{
		squareRegion(1, 0, 10),
		squareRegion(2, 50, 20),
		squareRegion(3, 120, 40),
		squareRegion(4, 300, 80),
	}
	base := FilterSpec{MinAreaFrac: 0, MaxAreaFrac: 1, MaxAspectRatio: 1, MaxSolidity: 1.5}
	baseCount := len(Filter(all, base, imageArea))

	tighter := []FilterSpec{
		{0.002, 1, 1, 1.5},   // raise min area
		{0, 0.02, 1, 1.5},    // lower max area
		{0, 1, 0.5, 1.5},     // lower aspect ceiling
		{0, 1, 1, 0.9},       // lower solidity ceiling
		{0.002, 0.02, 0.5, 0.9},
	}
	for _, spec := range tighter {
		if got := len(Filter(all, spec, imageArea)); got > baseCount {
			t.Errorf("spec %+v passed %d regions, more than the looser %d", spec, got, baseCount)
		}
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	const imageArea = 100000
	all := []Region{
		squareRegion(3, 0, 20),
		squareRegion(1, 50, 20),
		squareRegion(2, 100, 20),
	}
	out := Filter(all, FilterSpec{0, 1, 1, 1.5}, imageArea)
	if len(out) != 3 {
		t.Fatalf("passing count = %d, want 3", len(out))
	}
	for i, r := range out {
		if r.Label != all[i].Label {
			t.Errorf("order changed at %d: label %d, want %d", i, r.Label, all[i].Label)
		}
	}
}

func TestFilterZeroPassingIsValid(t *testing.T) {
	out := Filter([]Region{squareRegion(1, 0, 10)}, FilterSpec{0.5, 1, 1, 1.5}, 100000)
	if len(out) != 0 {
		t.Errorf("passing count = %d, want 0", len(out))
	}
}
