package rows

// bandBounds splits width columns into n near-equal bands and returns the
// n+1 boundary columns, first 0 and last width.
func bandBounds(width, n int) []int {
	bounds := make([]int, n+1)
	for i := 0; i <= n; i++ {
		bounds[i] = int(float64(i)*float64(width)/float64(n) + 0.5)
	}
	return bounds
}
