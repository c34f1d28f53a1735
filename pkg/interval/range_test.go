package interval

import (
	"errors"
	"slices"
	"testing"
)

func TestNewRange_PointCount(t *testing.T) {
	for from := int64(0); from < 20; from++ {
		for to := from; to < 25; to++ {
			r, err := NewRange(from, to)
			if err != nil {
				t.Fatalf("NewRange(%d, %d): unexpected error %v", from, to, err)
			}
			if got, want := r.PointCount(), uint64(to-from+1); got != want {
				t.Errorf("NewRange(%d, %d).PointCount: got %d, want %d", from, to, got, want)
			}
		}
	}
}

func TestNewRange_SinglePoint(t *testing.T) {
	r := MustRange(3, 3)
	if r.PointCount() != 1 {
		t.Errorf("PointCount: got %d, want 1", r.PointCount())
	}
	if r.String() != "3" {
		t.Errorf("String: got %q, want %q", r.String(), "3")
	}
}

func TestNewRange_Invalid(t *testing.T) {
	if _, err := NewRange(5, 4); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("from > to: got %v, want ErrInvalidRange", err)
	}
	if _, err := NewRange(-1, 4); !errors.Is(err, ErrNegativePoint) {
		t.Errorf("negative from: got %v, want ErrNegativePoint", err)
	}
	if _, err := PointRange(-3); !errors.Is(err, ErrNegativePoint) {
		t.Errorf("negative point: got %v, want ErrNegativePoint", err)
	}
}

func TestMustRange_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustRange(2, 1) should panic")
		}
	}()
	MustRange(2, 1)
}

func TestRange_FullPointCount(t *testing.T) {
	r := MustRange(0, MaxPoint)
	if got := r.PointCount(); got != 1<<63 {
		t.Errorf("PointCount of [0, MaxPoint]: got %d, want 2^63", got)
	}
}

func TestRange_Get(t *testing.T) {
	r := MustRange(10, 14)
	for i := int64(0); i < 5; i++ {
		p, ok := r.Get(i)
		if !ok || p != 10+i {
			t.Errorf("Get(%d): got (%d, %v), want (%d, true)", i, p, ok, 10+i)
		}
	}
	if _, ok := r.Get(5); ok {
		t.Error("Get(5) should be out of bounds")
	}
	if _, ok := r.Get(-1); ok {
		t.Error("Get(-1) should be out of bounds")
	}
}

func TestRange_IsNearTo(t *testing.T) {
	tests := []struct {
		a, b Range
		want bool
	}{
		{MustRange(1, 3), MustRange(4, 6), true},
		{MustRange(4, 6), MustRange(1, 3), true},
		{MustRange(1, 3), MustRange(5, 6), false},
		{MustRange(1, 10), MustRange(3, 4), true},
		{MustRange(0, 0), MustRange(0, 0), true},
		{MustRange(MaxPoint, MaxPoint), MustRange(0, MaxPoint-1), true},
		{MustRange(MaxPoint, MaxPoint), MustRange(0, MaxPoint-2), false},
	}
	for _, tt := range tests {
		if got := tt.a.IsNearTo(tt.b); got != tt.want {
			t.Errorf("%v.IsNearTo(%v): got %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRange_CompareTo(t *testing.T) {
	r := MustRange(5, 8)
	tests := []struct {
		p    int64
		want int
	}{
		{4, 1},
		{5, 0},
		{7, 0},
		{8, 0},
		{9, -1},
	}
	for _, tt := range tests {
		if got := r.CompareTo(tt.p); got != tt.want {
			t.Errorf("CompareTo(%d): got %d, want %d", tt.p, got, tt.want)
		}
	}
}

func TestRange_PointsRestartable(t *testing.T) {
	r := MustRange(2, 5)
	want := []int64{2, 3, 4, 5}
	for pass := 0; pass < 2; pass++ {
		if got := slices.Collect(r.Points()); !slices.Equal(got, want) {
			t.Errorf("pass %d: got %v, want %v", pass, got, want)
		}
	}
}

func TestRange_PointsAtMaxPoint(t *testing.T) {
	r := MustRange(MaxPoint-2, MaxPoint)
	got := slices.Collect(r.Points())
	want := []int64{MaxPoint - 2, MaxPoint - 1, MaxPoint}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
