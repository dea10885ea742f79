package strategies

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// relation is +1 when a > b, -1 when a < b and 0 when equal.
func relation(a, b float64) int {
	switch {
	case a > b:
		return +1
	case a < b:
		return -1
	default:
		return 0
	}
}
