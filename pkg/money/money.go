// Package money holds the shared amount rounding rule. All monetary values
// in the system are plain floats carried to two decimal places.
package money

import "math"

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ClampNonNegative floors a computed amount at zero.
func ClampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
