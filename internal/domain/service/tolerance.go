package service

import "math"

// WithinTolerance reports whether value sits within a relative tolerance of
// target: true iff |value - target| <= tolerance * target, with the boundary
// counting as within. When the target is zero or NaN there is no meaningful
// relative comparison and the result is nil.
func WithinTolerance(value, target, tolerance float64) *bool {
	if target == 0 || math.IsNaN(target) || math.IsNaN(value) || math.IsNaN(tolerance) {
		return nil
	}
	ok := math.Abs(value-target) <= tolerance*target
	return &ok
}
