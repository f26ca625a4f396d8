package gesture

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DTWDistance calculates the Dynamic Time Warping alignment cost between two sequences.
// Returns infinity if either sequence is empty.
// The cost is the raw cumulative distance along the best warping path; it is not
// normalized by length, so it grows with the number of points compared.
func DTWDistance(a, b Sequence) float64 {
	if len(a) == 0 || len(b) == 0 {
		return math.Inf(1)
	}
	grid := costGrid(a, b, 0)
	return grid[len(a)][len(b)]
}

// costGrid builds the (n+1) x (m+1) cumulative cost matrix for a and b.
// When window is positive, cells further than window from the diagonal are
// left at infinity (Sakoe-Chiba band).
func costGrid(a, b Sequence, window int) [][]float64 {
	n := len(a)
	m := len(b)

	// Create (n+1) x (m+1) cost matrix initialized to infinity
	grid := make([][]float64, n+1)
	for i := range grid {
		grid[i] = make([]float64, m+1)
		for j := range grid[i] {
			grid[i][j] = math.Inf(1)
		}
	}
	grid[0][0] = 0

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if window > 0 && absInt(i-j) > window {
				continue
			}
			cost := pointDistance(a[i-1], b[j-1])
			grid[i][j] = cost + min3(grid[i-1][j], grid[i][j-1], grid[i-1][j-1])
		}
	}

	return grid
}

// pointDistance calculates the Euclidean distance between two samples over x, y and z.
// Timestamps are ignored.
func pointDistance(a, b Sample) float64 {
	return floats.Distance([]float64{a.X, a.Y, a.Z}, []float64{b.X, b.Y, b.Z}, 2)
}

// min3 returns the minimum of three float64 values.
func min3(a, b, c float64) float64 {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
