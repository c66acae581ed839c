package qr

import (
	"reflect"
	"testing"
)

func TestStartPoints(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		window  int
		overlap float64
		want    []int
	}{
		{"exact fit", 100, 100, 0.1, []int{0}},
		{"window larger than image", 50, 100, 0.1, []int{0}},
		{"no overlap", 250, 100, 0, []int{0, 100, 150}},
		{"half overlap", 200, 100, 0.5, []int{0, 50, 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := startPoints(tt.size, tt.window, tt.overlap)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("startPoints(%d, %d, %g) = %v, want %v",
					tt.size, tt.window, tt.overlap, got, tt.want)
			}
		})
	}
}

func TestStartPointsCoverTheImage(t *testing.T) {
	size, window := 1037, 200
	pts := startPoints(size, window, 0.25)

	if pts[0] != 0 {
		t.Errorf("first origin = %d, want 0", pts[0])
	}
	if last := pts[len(pts)-1]; last+window != size {
		t.Errorf("last window ends at %d, want %d", last+window, size)
	}
	for i := 1; i < len(pts); i++ {
		if pts[i] <= pts[i-1] {
			t.Fatalf("origins not strictly increasing: %v", pts)
		}
		if pts[i]-pts[i-1] > window {
			t.Fatalf("gap between windows %d and %d leaves uncovered columns", pts[i-1], pts[i])
		}
	}
}
