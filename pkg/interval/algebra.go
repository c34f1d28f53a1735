package interval

import "sort"

// ---------------------------------------------------------------------------
// Set algebra
//
// Every operation is pure and returns a normalized interval. The result may
// be one of the operands when the answer is unchanged. Operands that do not
// overlap are answered without a merge, and merges start at a binary-search
// seeded position so a small operand against a large one costs
// O(log n + overlap) rather than O(n*m).
// ---------------------------------------------------------------------------

// Plus returns the union of i and other.
func (i *Interval) Plus(other *Interval) *Interval {
	return union(i, other)
}

// PlusRange returns the union of i and r.
func (i *Interval) PlusRange(r Range) *Interval {
	return union(i, singleton(r))
}

// PlusPoint returns the union of i and {p}.
func (i *Interval) PlusPoint(p int64) (*Interval, error) {
	r, err := PointRange(p)
	if err != nil {
		return nil, err
	}
	return i.PlusRange(r), nil
}

// Minus returns the points of i that are not in other.
func (i *Interval) Minus(other *Interval) *Interval {
	return difference(i, other)
}

// MinusRange returns the points of i outside r.
func (i *Interval) MinusRange(r Range) *Interval {
	return difference(i, singleton(r))
}

// MinusPoint returns i without p.
func (i *Interval) MinusPoint(p int64) (*Interval, error) {
	r, err := PointRange(p)
	if err != nil {
		return nil, err
	}
	return i.MinusRange(r), nil
}

// Common returns the intersection of i and other.
func (i *Interval) Common(other *Interval) *Interval {
	return intersection(i, other)
}

// CommonRange returns the points of i inside r.
func (i *Interval) CommonRange(r Range) *Interval {
	return intersection(i, singleton(r))
}

// CommonPoint returns {p} if p is in i, Empty otherwise.
func (i *Interval) CommonPoint(p int64) (*Interval, error) {
	r, err := PointRange(p)
	if err != nil {
		return nil, err
	}
	return i.CommonRange(r), nil
}

// NotCommon returns the symmetric difference of i and other.
func (i *Interval) NotCommon(other *Interval) *Interval {
	return symmetricDifference(i, other)
}

// NotCommonRange returns the symmetric difference of i and r.
func (i *Interval) NotCommonRange(r Range) *Interval {
	return symmetricDifference(i, singleton(r))
}

// NotCommonPoint toggles membership of p.
func (i *Interval) NotCommonPoint(p int64) (*Interval, error) {
	r, err := PointRange(p)
	if err != nil {
		return nil, err
	}
	return i.NotCommonRange(r), nil
}

// Not returns the complement of i within [0, MaxPoint].
func (i *Interval) Not() *Interval {
	return difference(Full, i)
}

// UnicodeNot returns the complement of i within [0, UnicodeMaxPoint].
// Points of i above UnicodeMaxPoint do not appear in the result.
func (i *Interval) UnicodeNot() *Interval {
	return difference(UnicodeFull, i)
}

// ---------------------------------------------------------------------------
// Merge kernels
// ---------------------------------------------------------------------------

// singleton wraps r in an unpooled interval used as a transient operand.
func singleton(r Range) *Interval {
	return &Interval{ranges: []Range{r}}
}

// finish turns an empty result into Empty so the shared value is used.
func finish(res *Interval) *Interval {
	if len(res.ranges) == 0 {
		pool.release(res)
		return Empty
	}
	return res
}

// firstNear returns the index of the first range that is not entirely
// before p with a gap, i.e. the first range with to+1 >= p.
func firstNear(rs []Range, p int64) int {
	return sort.Search(len(rs), func(k int) bool { return rs[k].to >= p-1 })
}

// firstReaching returns the index of the first range with to >= p.
func firstReaching(rs []Range, p int64) int {
	return sort.Search(len(rs), func(k int) bool { return rs[k].to >= p })
}

// concat returns the ranges of lo followed by those of hi. The caller
// guarantees that lo ends before hi starts with a gap.
func concat(lo, hi []Range) *Interval {
	res := pool.acquire(len(lo) + len(hi))
	res.ranges = append(res.ranges, lo...)
	res.ranges = append(res.ranges, hi...)
	return res
}

func union(x, y *Interval) *Interval {
	a, b := x.ranges, y.ranges
	switch {
	case len(b) == 0:
		return x
	case len(a) == 0:
		return y
	case a[len(a)-1].to < b[0].from-1:
		return concat(a, b)
	case b[len(b)-1].to < a[0].from-1:
		return concat(b, a)
	}

	res := pool.acquire(len(a) + len(b))

	// At most one of the two prefixes is non-empty: a range of a lying
	// wholly before b[0] means a starts first, and vice versa.
	i := firstNear(a, b[0].from)
	j := firstNear(b, a[0].from)
	res.ranges = append(res.ranges, a[:i]...)
	res.ranges = append(res.ranges, b[:j]...)

	for i < len(a) && j < len(b) {
		if a[i].from <= b[j].from {
			res.appendMerging(a[i])
			i++
		} else {
			res.appendMerging(b[j])
			j++
		}
	}

	rest := a[i:]
	if j < len(b) {
		rest = b[j:]
	}
	// The last merge may have stretched past several leftover ranges.
	for len(rest) > 0 && res.ranges[len(res.ranges)-1].IsNearTo(rest[0]) {
		res.appendMerging(rest[0])
		rest = rest[1:]
	}
	res.ranges = append(res.ranges, rest...)
	return res
}

func difference(x, y *Interval) *Interval {
	a, b := x.ranges, y.ranges
	if len(a) == 0 || len(b) == 0 ||
		a[len(a)-1].to < b[0].from || b[len(b)-1].to < a[0].from {
		return x
	}

	res := pool.acquire(len(a) + len(b))
	j := firstReaching(b, a[0].from)

	for k := 0; k < len(a); k++ {
		if j >= len(b) {
			res.ranges = append(res.ranges, a[k:]...)
			break
		}

		r := a[k]
		cur := r.from
		covered := false
		for j < len(b) && b[j].from <= r.to {
			s := b[j]
			if s.to < cur {
				j++
				continue
			}
			if s.from > cur {
				res.ranges = append(res.ranges, Range{cur, s.from - 1})
			}
			if s.to >= r.to {
				// s may still cut into the next range of a.
				covered = true
				break
			}
			cur = s.to + 1
			j++
		}
		if !covered {
			res.ranges = append(res.ranges, Range{cur, r.to})
		}
	}
	return finish(res)
}

func intersection(x, y *Interval) *Interval {
	a, b := x.ranges, y.ranges
	if len(a) == 0 || len(b) == 0 ||
		a[len(a)-1].to < b[0].from || b[len(b)-1].to < a[0].from {
		return Empty
	}

	res := pool.acquire(min(len(a), len(b)))
	i := firstReaching(a, b[0].from)
	j := firstReaching(b, a[0].from)

	for i < len(a) && j < len(b) {
		lo := max(a[i].from, b[j].from)
		hi := min(a[i].to, b[j].to)
		if lo <= hi {
			res.ranges = append(res.ranges, Range{lo, hi})
		}
		if a[i].to < b[j].to {
			i++
		} else {
			j++
		}
	}
	return finish(res)
}

// symmetricDifference sweeps the boundaries of both operands at once. A
// range contributes a toggle at from and at to+1; points covered by exactly
// one operand are emitted. Boundaries are unsigned so to+1 of MaxPoint is
// representable. Equal boundaries of both operands are consumed together,
// which keeps the output free of adjacent ranges.
func symmetricDifference(x, y *Interval) *Interval {
	a, b := x.ranges, y.ranges
	switch {
	case len(b) == 0:
		return x
	case len(a) == 0:
		return y
	case a[len(a)-1].to < b[0].from || b[len(b)-1].to < a[0].from:
		// No shared point: the symmetric difference is the union.
		return union(x, y)
	}

	res := pool.acquire(len(a) + len(b))

	i := firstNear(a, b[0].from)
	j := firstNear(b, a[0].from)
	res.ranges = append(res.ranges, a[:i]...)
	res.ranges = append(res.ranges, b[:j]...)

	const done = ^uint64(0)
	boundary := func(rs []Range, k int) uint64 {
		if k >= 2*len(rs) {
			return done
		}
		r := rs[k/2]
		if k%2 == 0 {
			return uint64(r.from)
		}
		return uint64(r.to) + 1
	}

	ka, kb := 2*i, 2*j
	inA, inB, inside := false, false, false
	var start uint64
	for ka < 2*len(a) || kb < 2*len(b) {
		va, vb := boundary(a, ka), boundary(b, kb)
		v := min(va, vb)
		if va == v {
			inA = !inA
			ka++
		}
		if vb == v {
			inB = !inB
			kb++
		}
		now := inA != inB
		switch {
		case now && !inside:
			start = v
		case !now && inside:
			res.ranges = append(res.ranges, Range{int64(start), int64(v - 1)})
		}
		inside = now
	}
	return finish(res)
}
