package interval

import (
	"math/rand/v2"
	"slices"
	"testing"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

const universe = 160

func checkNormalized(t *testing.T, label string, iv *Interval) {
	t.Helper()
	for k, r := range iv.ranges {
		if r.from < 0 || r.from > r.to {
			t.Fatalf("%s: range %d invalid: %v", label, k, r)
		}
		if k > 0 && iv.ranges[k-1].to+1 >= r.from {
			t.Fatalf("%s: ranges %d and %d overlap or touch: %v %v", label, k-1, k, iv.ranges[k-1], r)
		}
	}
}

func randomInterval(rng *rand.Rand) *Interval {
	n := rng.IntN(6)
	rs := make([]Range, 0, n)
	for i := 0; i < n; i++ {
		from := rng.Int64N(universe)
		to := from + rng.Int64N(12)
		rs = append(rs, MustRange(from, to))
	}
	return FromRanges(rs...)
}

func toSet(iv *Interval) map[int64]bool {
	set := make(map[int64]bool)
	for p := range iv.Points() {
		set[p] = true
	}
	return set
}

func sameSet(t *testing.T, label string, iv *Interval, want func(p int64) bool) {
	t.Helper()
	got := toSet(iv)
	for p := int64(0); p < universe+20; p++ {
		if got[p] != want(p) {
			t.Fatalf("%s: membership of %d: got %v, want %v (interval %v)", label, p, got[p], want(p), iv)
		}
	}
}

// ---------------------------------------------------------------------------
// Construction and queries
// ---------------------------------------------------------------------------

func TestFromRanges_Normalizes(t *testing.T) {
	iv := FromRanges(MustRange(10, 12), MustRange(1, 3), MustRange(4, 6), MustRange(11, 20), MustRange(30, 30))
	want := []Range{MustRange(1, 6), MustRange(10, 20), MustRange(30, 30)}
	if !slices.Equal(iv.ranges, want) {
		t.Errorf("got %v, want %v", iv.ranges, want)
	}
	if iv.String() != `\i{1..6, 10..20, 30}` {
		t.Errorf("String: got %q", iv.String())
	}
}

func TestFromPoint_Negative(t *testing.T) {
	if _, err := FromPoint(-1); err == nil {
		t.Error("FromPoint(-1) should fail")
	}
}

func TestInterval_PlusAdjacentMerges(t *testing.T) {
	iv := FromRange(MustRange(1, 3)).PlusRange(MustRange(4, 6))
	if iv.RangeCount() != 1 {
		t.Fatalf("RangeCount: got %d, want 1 (%v)", iv.RangeCount(), iv)
	}
	r, _ := iv.RangeAt(0)
	if r != MustRange(1, 6) {
		t.Errorf("range: got %v, want 1..6", r)
	}
}

func TestInterval_PlusAbsorbsLeftoverRanges(t *testing.T) {
	cases := []struct {
		a, b *Interval
		want string
	}{
		{FromRange(MustRange(0, 10)), FromRanges(MustRange(2, 3), MustRange(5, 6), MustRange(12, 20)), `\i{0..10, 12..20}`},
		{FromRanges(MustRange(5, 10), MustRange(26, 26), MustRange(28, 32)), FromRange(MustRange(25, 28)), `\i{5..10, 25..32}`},
		{FromRange(MustRange(0, 10)), FromRanges(MustRange(2, 3), MustRange(5, 6), MustRange(11, 20)), `\i{0..20}`},
	}
	for _, tc := range cases {
		for _, got := range []*Interval{tc.a.Plus(tc.b), tc.b.Plus(tc.a)} {
			checkNormalized(t, "plus", got)
			if got.String() != tc.want {
				t.Errorf("%v + %v: got %v, want %s", tc.a, tc.b, got, tc.want)
			}
		}
	}
}

func TestInterval_Queries(t *testing.T) {
	iv := FromRanges(MustRange(2, 4), MustRange(10, 11), MustRange(20, 20))

	if got := iv.PointCount(); got != 6 {
		t.Errorf("PointCount: got %d, want 6", got)
	}
	// Memoized value is reused.
	if got := iv.PointCount(); got != 6 {
		t.Errorf("PointCount (memoized): got %d, want 6", got)
	}
	if first, ok := iv.FirstPoint(); !ok || first != 2 {
		t.Errorf("FirstPoint: got (%d, %v)", first, ok)
	}
	if last, ok := iv.LastPoint(); !ok || last != 20 {
		t.Errorf("LastPoint: got (%d, %v)", last, ok)
	}

	want := []int64{2, 3, 4, 10, 11, 20}
	for i, p := range want {
		got, ok := iv.Get(int64(i))
		if !ok || got != p {
			t.Errorf("Get(%d): got (%d, %v), want %d", i, got, ok, p)
		}
	}
	if _, ok := iv.Get(6); ok {
		t.Error("Get(6) should be out of bounds")
	}
	if got := slices.Collect(iv.Points()); !slices.Equal(got, want) {
		t.Errorf("Points: got %v, want %v", got, want)
	}
	if _, ok := iv.RangeAt(3); ok {
		t.Error("RangeAt(3) should be out of bounds")
	}
	if _, ok := Empty.FirstPoint(); ok {
		t.Error("Empty.FirstPoint should report absence")
	}
}

func TestInterval_BinarySearch(t *testing.T) {
	iv := FromRanges(MustRange(2, 4), MustRange(10, 11), MustRange(20, 20))
	tests := []struct {
		p    int64
		want int
	}{
		{0, -1},
		{2, 0},
		{4, 0},
		{5, -2},
		{10, 1},
		{15, -3},
		{20, 2},
		{21, -4},
	}
	for _, tt := range tests {
		if got := iv.BinarySearch(tt.p); got != tt.want {
			t.Errorf("BinarySearch(%d): got %d, want %d", tt.p, got, tt.want)
		}
	}
	if got := Empty.BinarySearch(7); got != -1 {
		t.Errorf("Empty.BinarySearch: got %d, want -1", got)
	}
}

func TestInterval_BinarySearchMatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for n := 0; n < 200; n++ {
		iv := randomInterval(rng)
		for p := int64(0); p < universe+20; p++ {
			got := iv.BinarySearch(p)
			want := -1
			insertion := 0
			for k, r := range iv.ranges {
				if r.Contains(p) {
					want = k
					break
				}
				if r.to < p {
					insertion = k + 1
				}
			}
			if want < 0 {
				want = -(insertion + 1)
			}
			if got != want {
				t.Fatalf("%v.BinarySearch(%d): got %d, want %d", iv, p, got, want)
			}
		}
	}
}

func TestInterval_HexString(t *testing.T) {
	iv := FromRanges(MustRange(0x61, 0x7A), MustRange(0x30, 0x30))
	if got := iv.HexString(); got != `\i{0x30, 0x61..0x7a}` {
		t.Errorf("HexString: got %q", got)
	}
	if got := Empty.String(); got != `\i{}` {
		t.Errorf("Empty.String: got %q", got)
	}
}

func TestInterval_EqualAndHash(t *testing.T) {
	a := FromRanges(MustRange(1, 3), MustRange(7, 9))
	b := FromRange(MustRange(7, 9)).PlusRange(MustRange(1, 3))
	if !a.Equal(b) {
		t.Fatalf("%v should equal %v", a, b)
	}
	if a.Hash() != b.Hash() {
		t.Error("equal intervals should hash equally")
	}
	if a.Equal(Empty) {
		t.Error("non-empty interval should not equal Empty")
	}
}

// ---------------------------------------------------------------------------
// Algebra properties
// ---------------------------------------------------------------------------

func TestInterval_AlgebraMatchesSetModel(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for n := 0; n < 500; n++ {
		a, b := randomInterval(rng), randomInterval(rng)
		sa, sb := toSet(a), toSet(b)

		plus := a.Plus(b)
		checkNormalized(t, "plus", plus)
		sameSet(t, "plus", plus, func(p int64) bool { return sa[p] || sb[p] })

		minus := a.Minus(b)
		checkNormalized(t, "minus", minus)
		sameSet(t, "minus", minus, func(p int64) bool { return sa[p] && !sb[p] })

		common := a.Common(b)
		checkNormalized(t, "common", common)
		sameSet(t, "common", common, func(p int64) bool { return sa[p] && sb[p] })

		xor := a.NotCommon(b)
		checkNormalized(t, "notCommon", xor)
		sameSet(t, "notCommon", xor, func(p int64) bool { return sa[p] != sb[p] })

		if got := plus.PointCount(); got != uint64(len(toSet(plus))) {
			t.Fatalf("PointCount of %v: got %d", plus, got)
		}
	}
}

func TestInterval_NormalizationAcrossOperationChains(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	for n := 0; n < 100; n++ {
		acc := randomInterval(rng)
		for step := 0; step < 20; step++ {
			other := randomInterval(rng)
			switch rng.IntN(4) {
			case 0:
				acc = acc.Plus(other)
			case 1:
				acc = acc.Minus(other)
			case 2:
				acc = acc.Common(other)
			default:
				acc = acc.NotCommon(other)
			}
			checkNormalized(t, "chain", acc)
		}
	}
}

func TestInterval_UnionLaws(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 17))
	for n := 0; n < 300; n++ {
		a, b := randomInterval(rng), randomInterval(rng)
		if !a.Plus(b).Equal(b.Plus(a)) {
			t.Fatalf("commutativity: %v + %v", a, b)
		}
		if !a.Plus(a).Equal(a) {
			t.Fatalf("idempotence: %v", a)
		}
		if !a.Plus(Empty).Equal(a) || !Empty.Plus(a).Equal(a) {
			t.Fatalf("identity: %v", a)
		}
	}
}

func TestInterval_SymmetricDifferenceIdentity(t *testing.T) {
	rng := rand.New(rand.NewPCG(19, 23))
	for n := 0; n < 300; n++ {
		a, b := randomInterval(rng), randomInterval(rng)
		want := a.Plus(b).Minus(a.Common(b))
		if got := a.NotCommon(b); !got.Equal(want) {
			t.Fatalf("%v.NotCommon(%v): got %v, want %v", a, b, got, want)
		}
	}
}

func TestInterval_DoubleComplement(t *testing.T) {
	rng := rand.New(rand.NewPCG(29, 31))
	for n := 0; n < 300; n++ {
		a := randomInterval(rng)
		not := a.Not()
		checkNormalized(t, "not", not)
		if !not.Not().Equal(a) {
			t.Fatalf("double complement of %v: got %v", a, not.Not())
		}
		if !a.Common(not).IsEmpty() {
			t.Fatalf("%v and its complement intersect", a)
		}
		if !a.Plus(not).Equal(Full) {
			t.Fatalf("%v plus its complement is not Full", a)
		}
	}
	if !Empty.Not().Equal(Full) || !Full.Not().Equal(Empty) {
		t.Error("Empty and Full should complement each other")
	}
}

func TestInterval_UnicodeNot(t *testing.T) {
	iv := FromRanges(MustRange(0, 0x40), MustRange(0x10FFFF, 0x200000))
	got := iv.UnicodeNot()
	want := FromRange(MustRange(0x41, 0x10FFFE))
	if !got.Equal(want) {
		t.Errorf("UnicodeNot: got %v, want %v", got, want)
	}
}

func TestInterval_ExtremeBounds(t *testing.T) {
	top := FromRange(MustRange(MaxPoint-5, MaxPoint))
	low := FromRange(MustRange(0, 5))

	if got := top.Not(); !got.Equal(FromRange(MustRange(0, MaxPoint-6))) {
		t.Errorf("Not of top: got %v", got)
	}
	if got := top.NotCommon(Full); !got.Equal(FromRange(MustRange(0, MaxPoint-6))) {
		t.Errorf("NotCommon with Full: got %v", got)
	}
	if got := low.Plus(top).PointCount(); got != 12 {
		t.Errorf("PointCount: got %d, want 12", got)
	}
	if got := Full.PointCount(); got != 1<<63 {
		t.Errorf("Full.PointCount: got %d", got)
	}
}

func TestInterval_FastPathsReturnOperands(t *testing.T) {
	a := FromRange(MustRange(1, 3))
	b := FromRange(MustRange(10, 12))

	if a.Minus(b) != a {
		t.Error("disjoint Minus should return the receiver unchanged")
	}
	if a.Common(b) != Empty {
		t.Error("disjoint Common should return Empty")
	}
	if a.Plus(Empty) != a {
		t.Error("Plus(Empty) should return the receiver")
	}
	got := a.Plus(b)
	if got.RangeCount() != 2 {
		t.Errorf("disjoint Plus: got %v", got)
	}
}

func TestInterval_PointVariants(t *testing.T) {
	iv := FromRange(MustRange(1, 5))

	plus, err := iv.PlusPoint(6)
	if err != nil || !plus.Equal(FromRange(MustRange(1, 6))) {
		t.Errorf("PlusPoint: got %v, %v", plus, err)
	}
	minus, err := iv.MinusPoint(3)
	if err != nil || !minus.Equal(FromRanges(MustRange(1, 2), MustRange(4, 5))) {
		t.Errorf("MinusPoint: got %v, %v", minus, err)
	}
	common, err := iv.CommonPoint(9)
	if err != nil || !common.IsEmpty() {
		t.Errorf("CommonPoint: got %v, %v", common, err)
	}
	toggled, err := iv.NotCommonPoint(5)
	if err != nil || !toggled.Equal(FromRange(MustRange(1, 4))) {
		t.Errorf("NotCommonPoint: got %v, %v", toggled, err)
	}
	if _, err := iv.PlusPoint(-2); err == nil {
		t.Error("PlusPoint(-2) should fail")
	}
}

func TestInterval_LargeAgainstSmall(t *testing.T) {
	rs := make([]Range, 0, 10000)
	for k := int64(0); k < 10000; k++ {
		rs = append(rs, MustRange(k*10, k*10+4))
	}
	big := FromRanges(rs...)
	small := FromRange(MustRange(50003, 50012))

	got := big.Plus(small)
	checkNormalized(t, "big plus small", got)
	if got.RangeCount() != 9999 {
		t.Errorf("RangeCount: got %d, want 9999", got.RangeCount())
	}
	if c := big.Common(small); !c.Equal(FromRanges(MustRange(50003, 50004), MustRange(50010, 50012))) {
		t.Errorf("Common: got %v", c)
	}
}
