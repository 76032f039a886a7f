package statement

import "math"

// RoundCurrency rounds to 2 decimals, half away from zero. Rounding is a
// presentation concern: line arithmetic keeps raw values so that row sums
// and statement totals are the same numbers, and rendered figures round at
// the edge.
func RoundCurrency(v float64) float64 {
	return math.Round(v*100) / 100
}
