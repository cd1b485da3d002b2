package errors

import (
	"math"
)

// SafeDivide performs division with protection against division by zero.
// Returns 0 if the denominator is zero or close to zero. Used by the
// classification metrics where a class may have no predicted samples.
func SafeDivide(numerator, denominator float64) float64 {
	if math.Abs(denominator) < 1e-10 {
		return 0
	}
	return numerator / denominator
}

// ClipValue clips a value to the range [min, max].
func ClipValue(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
