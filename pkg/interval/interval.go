package interval

import (
	"encoding/binary"
	"hash/fnv"
	"iter"
	"slices"
	"strings"
	"sync/atomic"
)

// Interval is an immutable set of points stored in normalized form: ranges
// sorted by lower bound, pairwise disjoint and never adjacent
// (ranges[i].to+1 < ranges[i+1].from).
//
// Intervals returned by the algebra may come from a free list. A value that
// stores an interval takes a hold with Retain and gives it back with
// Destroy; the interval is recycled once the last holder destroys it.
// Nothing may use an interval after destroying its own hold on it.
type Interval struct {
	ranges []Range

	// count memoizes PointCount()+1; zero means not computed yet.
	count atomic.Uint64

	holders  atomic.Int32
	recycled atomic.Bool
	static   bool
}

// Shared intervals. They are never recycled.
var (
	// Empty holds no points.
	Empty = &Interval{static: true}

	// Full holds every point in [0, MaxPoint].
	Full = &Interval{ranges: []Range{{0, MaxPoint}}, static: true}

	// UnicodeFull holds every code point in [0, UnicodeMaxPoint].
	UnicodeFull = &Interval{ranges: []Range{{0, UnicodeMaxPoint}}, static: true}
)

// FromPoint returns the interval holding only p.
func FromPoint(p int64) (*Interval, error) {
	r, err := PointRange(p)
	if err != nil {
		return nil, err
	}
	return FromRange(r), nil
}

// FromRange returns the interval holding exactly the points of r.
func FromRange(r Range) *Interval {
	iv := pool.acquire(1)
	iv.ranges = append(iv.ranges, r)
	return iv
}

// FromRanges returns the normalized union of rs, in any order.
func FromRanges(rs ...Range) *Interval {
	if len(rs) == 0 {
		return Empty
	}
	sorted := slices.Clone(rs)
	slices.SortFunc(sorted, func(a, b Range) int {
		switch {
		case a.from < b.from:
			return -1
		case a.from > b.from:
			return 1
		default:
			return 0
		}
	})

	iv := pool.acquire(len(sorted))
	for _, r := range sorted {
		iv.appendMerging(r)
	}
	return iv
}

// reset prepares a pooled interval for reuse.
func (i *Interval) reset() {
	i.ranges = i.ranges[:0]
	i.count.Store(0)
	i.holders.Store(0)
	i.recycled.Store(false)
}

// appendMerging adds r, which must not start before the last range, merging
// it into the last range when the two touch.
func (i *Interval) appendMerging(r Range) {
	if n := len(i.ranges); n > 0 && i.ranges[n-1].IsNearTo(r) {
		if r.to > i.ranges[n-1].to {
			i.ranges[n-1].to = r.to
		}
		return
	}
	i.ranges = append(i.ranges, r)
}

// ---------------------------------------------------------------------------
// Ownership
// ---------------------------------------------------------------------------

// Retain takes a hold on i. Shared intervals ignore holds.
func (i *Interval) Retain() {
	if i.static {
		return
	}
	i.holders.Add(1)
}

// Destroy gives back a hold on i and recycles it once no holder remains.
// Destroying an interval that was never retained recycles it immediately.
func (i *Interval) Destroy() {
	if i.static {
		return
	}
	if i.holders.Add(-1) > 0 {
		return
	}
	if i.recycled.CompareAndSwap(false, true) {
		pool.release(i)
	}
}

// Holders returns the number of holds currently taken on i.
func (i *Interval) Holders() int {
	return int(i.holders.Load())
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// IsEmpty reports whether i holds no points.
func (i *Interval) IsEmpty() bool {
	return len(i.ranges) == 0
}

// RangeCount returns the number of normalized ranges.
func (i *Interval) RangeCount() int {
	return len(i.ranges)
}

// RangeAt returns the range at index, or false when index is out of bounds.
func (i *Interval) RangeAt(index int) (Range, bool) {
	if index < 0 || index >= len(i.ranges) {
		return Range{}, false
	}
	return i.ranges[index], true
}

// PointCount returns the number of points, computed once.
func (i *Interval) PointCount() uint64 {
	if c := i.count.Load(); c != 0 {
		return c - 1
	}
	var total uint64
	for _, r := range i.ranges {
		total += r.PointCount()
	}
	i.count.Store(total + 1)
	return total
}

// FirstPoint returns the smallest point.
func (i *Interval) FirstPoint() (int64, bool) {
	if len(i.ranges) == 0 {
		return 0, false
	}
	return i.ranges[0].from, true
}

// LastPoint returns the largest point.
func (i *Interval) LastPoint() (int64, bool) {
	if len(i.ranges) == 0 {
		return 0, false
	}
	return i.ranges[len(i.ranges)-1].to, true
}

// Get returns the point at position index in ascending order.
func (i *Interval) Get(index int64) (int64, bool) {
	if index < 0 {
		return 0, false
	}
	rest := uint64(index)
	for _, r := range i.ranges {
		n := r.PointCount()
		if rest < n {
			return r.from + int64(rest), true
		}
		rest -= n
	}
	return 0, false
}

// BinarySearch returns the index of the range containing p. If no range
// contains p it returns -(insertionPoint)-1, so callers detect absence with
// a negative result and recover the insertion point as -(result+1).
func (i *Interval) BinarySearch(p int64) int {
	lo, hi := 0, len(i.ranges)-1
	for lo <= hi {
		mid := int(uint(lo+hi) >> 1)
		switch i.ranges[mid].CompareTo(p) {
		case -1:
			lo = mid + 1
		case 1:
			hi = mid - 1
		default:
			return mid
		}
	}
	return -(lo + 1)
}

// Contains reports whether p is a member of i.
func (i *Interval) Contains(p int64) bool {
	return i.BinarySearch(p) >= 0
}

// Ranges yields the normalized ranges in ascending order.
func (i *Interval) Ranges() iter.Seq[Range] {
	return func(yield func(Range) bool) {
		for _, r := range i.ranges {
			if !yield(r) {
				return
			}
		}
	}
}

// Points yields every point in ascending order.
func (i *Interval) Points() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		for _, r := range i.ranges {
			for p := range r.Points() {
				if !yield(p) {
					return
				}
			}
		}
	}
}

// Equal reports whether i and other hold the same points.
func (i *Interval) Equal(other *Interval) bool {
	if i == other {
		return true
	}
	if i == nil || other == nil {
		return false
	}
	return slices.Equal(i.ranges, other.ranges)
}

// Hash returns a hash of the normalized ranges.
func (i *Interval) Hash() uint64 {
	h := fnv.New64a()
	var buf [16]byte
	for _, r := range i.ranges {
		binary.LittleEndian.PutUint64(buf[:8], uint64(r.from))
		binary.LittleEndian.PutUint64(buf[8:], uint64(r.to))
		h.Write(buf[:])
	}
	return h.Sum64()
}

// String renders the interval literal, e.g. \i{1..3, 7}.
func (i *Interval) String() string {
	return i.format(10)
}

// HexString renders the interval literal with hexadecimal bounds, e.g.
// \i{0x61..0x7a}.
func (i *Interval) HexString() string {
	return i.format(16)
}

func (i *Interval) format(base int) string {
	var sb strings.Builder
	sb.WriteString(`\i{`)
	for k, r := range i.ranges {
		if k > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(r.format(base))
	}
	sb.WriteByte('}')
	return sb.String()
}
