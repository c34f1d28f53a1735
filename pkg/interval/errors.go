// Package interval implements sets of non-negative integers as sorted,
// disjoint, non-adjacent ranges.
//
// Range is an inclusive [from, to] value. Interval is an immutable,
// normalized set of ranges with union, difference, intersection and
// symmetric difference. Tree is a mutable point set that grows and shrinks
// one point at a time, merging ranges whose boundaries touch.
package interval

import "errors"

// Validation errors
var (
	// ErrNegativePoint indicates a point or range bound below zero.
	ErrNegativePoint = errors.New("negative point")

	// ErrInvalidRange indicates a range whose lower bound exceeds its upper bound.
	ErrInvalidRange = errors.New("range lower bound exceeds upper bound")
)
