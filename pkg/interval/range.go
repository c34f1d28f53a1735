package interval

import (
	"fmt"
	"iter"
	"math"
	"strconv"
)

// Point bounds
const (
	// MaxPoint is the largest point an interval can hold.
	MaxPoint int64 = math.MaxInt64

	// UnicodeMaxPoint is the largest Unicode code point.
	UnicodeMaxPoint int64 = 0x10FFFF
)

// Range is an inclusive range [from, to] with 0 <= from <= to.
//
// The zero Range is [0, 0]. Ranges are small values and are copied freely;
// build them through NewRange so the invariant is checked.
type Range struct {
	from int64
	to   int64
}

// NewRange returns the range [from, to]. It fails with ErrNegativePoint if
// from is negative and with ErrInvalidRange if from > to.
func NewRange(from, to int64) (Range, error) {
	if from < 0 {
		return Range{}, fmt.Errorf("%w: from %d", ErrNegativePoint, from)
	}
	if from > to {
		return Range{}, fmt.Errorf("%w: from %d > to %d", ErrInvalidRange, from, to)
	}
	return Range{from: from, to: to}, nil
}

// MustRange is like NewRange but panics on invalid bounds. Intended for
// literals and tests.
func MustRange(from, to int64) Range {
	r, err := NewRange(from, to)
	if err != nil {
		panic(err)
	}
	return r
}

// PointRange returns the single-point range [p, p].
func PointRange(p int64) (Range, error) {
	return NewRange(p, p)
}

// From returns the lower bound.
func (r Range) From() int64 { return r.from }

// To returns the upper bound.
func (r Range) To() int64 { return r.to }

// PointCount returns to-from+1. The count of [0, MaxPoint] is 2^63, which
// is why counts are unsigned.
func (r Range) PointCount() uint64 {
	return uint64(r.to-r.from) + 1
}

// Get returns from+index when 0 <= index < PointCount.
func (r Range) Get(index int64) (int64, bool) {
	if index < 0 || uint64(index) >= r.PointCount() {
		return 0, false
	}
	return r.from + index, true
}

// Contains reports whether p lies inside the range.
func (r Range) Contains(p int64) bool {
	return r.from <= p && p <= r.to
}

// IsNearTo reports whether r and other overlap or are separated by no gap,
// i.e. whether their union is a single range.
func (r Range) IsNearTo(other Range) bool {
	// to+1 >= other.from, written so that to == MaxPoint cannot overflow.
	return r.to >= other.from-1 && other.to >= r.from-1
}

// CompareTo compares the range against a point for binary search:
// 0 if the point is inside, 1 if the point lies before from (the range is
// greater), -1 if the point lies after to.
func (r Range) CompareTo(p int64) int {
	switch {
	case p < r.from:
		return 1
	case p > r.to:
		return -1
	default:
		return 0
	}
}

// Points yields from..to in order. The sequence is restartable.
func (r Range) Points() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		for p := r.from; ; p++ {
			if !yield(p) || p == r.to {
				return
			}
		}
	}
}

// String renders "from..to", or just "from" for a single point.
func (r Range) String() string {
	return r.format(10)
}

func (r Range) format(base int) string {
	prefix := ""
	if base == 16 {
		prefix = "0x"
	}
	from := prefix + strconv.FormatInt(r.from, base)
	if r.from == r.to {
		return from
	}
	return from + ".." + prefix + strconv.FormatInt(r.to, base)
}
