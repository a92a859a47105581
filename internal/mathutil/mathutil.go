// Package mathutil holds small generic numeric helpers shared by the
// scheduler and the backends.
package mathutil

import "golang.org/x/exp/constraints"

// Clamp limits v to the closed range [lo, hi].
// If hi < lo, lo wins.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// Fraction returns num/den as a float64 clamped to [0, 1].
// A non-positive denominator yields 0.
func Fraction[T constraints.Integer](num, den T) float64 {
	if den <= 0 {
		return 0
	}
	return Clamp(float64(num)/float64(den), 0, 1)
}

// MipLevels returns the length of a full mip chain for a width x height
// texture, base level included.
func MipLevels[T constraints.Integer](width, height T) T {
	size := width
	if height > size {
		size = height
	}
	var levels T = 1
	for size > 1 {
		size /= 2
		levels++
	}
	return levels
}
