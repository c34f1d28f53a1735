package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/lexem/pkg/bitlist"
	"github.com/chazu/lexem/pkg/interval"
)

func TestNewReference(t *testing.T) {
	r, err := NewReference(42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), r.Position())

	_, err = NewReference(-1)
	assert.ErrorIs(t, err, ErrNegativePosition)
}

func TestTypeOf(t *testing.T) {
	cases := []struct {
		value Primitive
		want  Type
	}{
		{Nil, TypeNil},
		{nil, TypeNil},
		{LxmLogic(true), TypeLogic},
		{LxmInteger(1), TypeInteger},
		{LxmFloat(1.5), TypeFloat},
		{LxmString("s"), TypeString},
		{NewBitList(nil), TypeBitList},
		{NewInterval(nil), TypeInterval},
		{&LxmList{}, TypeList},
		{&LxmObject{}, TypeObject},
		{newContext("c"), TypeContext},
		{LxmSignal{Type: SignalBreak}, TypeSignal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TypeOf(tc.value), "TypeOf(%s)", Format(tc.value))
	}

	assert.PanicsWithValue(t, "TypeOf: reference has no type", func() { TypeOf(StdLibContextReference) })
	assert.Equal(t, "Interval", TypeInterval.String())
}

func TestHashOf(t *testing.T) {
	assert.Equal(t, HashOf(LxmInteger(3)), HashOf(LxmInteger(3)))
	assert.NotEqual(t, HashOf(LxmInteger(3)), HashOf(LxmInteger(4)))
	assert.NotEqual(t, HashOf(LxmInteger(1)), HashOf(LxmLogic(true)), "the type tag is hashed")

	a := NewInterval(interval.FromRanges(interval.MustRange(1, 3)))
	b := NewInterval(interval.FromRanges(interval.MustRange(1, 2), interval.MustRange(3, 3)))
	assert.Equal(t, HashOf(a), HashOf(b))

	assert.Equal(t, HashOf(NewBitList(bitlist.MustParse("0x0f"))), HashOf(NewBitList(bitlist.FromBytes([]byte{0x0f}))))

	assert.PanicsWithValue(t, "HashOf: reference is not hashable", func() { HashOf(HiddenContextReference) })
	assert.PanicsWithValue(t, "HashOf: List is not hashable", func() { HashOf(&LxmList{}) })
	assert.Panics(t, func() { HashOf(LxmSignal{}) })
}

func TestFormat(t *testing.T) {
	ref, _ := NewReference(7)
	obj := &LxmObject{Prototype: &ref, Fields: map[string]Primitive{"b": LxmInteger(2), "a": LxmString("x")}}

	cases := []struct {
		value Primitive
		want  string
	}{
		{Nil, "nil"},
		{LxmLogic(false), "false"},
		{LxmInteger(-5), "-5"},
		{LxmFloat(0.25), "0.25"},
		{LxmString("hi"), `"hi"`},
		{NewBitList(bitlist.MustParse("0b101")), `\b{0o5}`},
		{NewInterval(interval.FromRanges(interval.MustRange(1, 3), interval.MustRange(7, 7))), `\i{1..3, 7}`},
		{ref, "&7"},
		{&LxmList{Elements: []Primitive{LxmInteger(1), ref}}, "[1, &7]"},
		{obj, `{proto: &7, a: "x", b: 2}`},
		{&LxmObject{Fields: map[string]Primitive{}}, "{}"},
		{&LxmContext{Name: "f", Vars: map[string]Primitive{"x": Nil}}, "context f {x: nil}"},
		{LxmSignal{Type: SignalReturn, Payload: LxmInteger(1)}, "signal(return, 1)"},
		{LxmSignal{Type: SignalBacktrack}, "signal(backtrack)"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Format(tc.value))
	}
}

func TestEqual(t *testing.T) {
	ref, _ := NewReference(3)
	other, _ := NewReference(4)

	assert.True(t, Equal(Nil, nil))
	assert.True(t, Equal(LxmInteger(1), LxmInteger(1)))
	assert.False(t, Equal(LxmInteger(1), LxmFloat(1)))
	assert.True(t, Equal(ref, ref))
	assert.False(t, Equal(ref, other), "references compare by position")

	l1 := &LxmList{Elements: []Primitive{LxmInteger(1), NewBitList(bitlist.MustParse("0x1"))}}
	l2 := &LxmList{Elements: []Primitive{LxmInteger(1), NewBitList(bitlist.MustParse("0b0001"))}}
	assert.True(t, Equal(l1, l2))

	o1 := &LxmObject{Prototype: &ref, Fields: map[string]Primitive{"a": LxmInteger(1)}}
	o2 := &LxmObject{Prototype: &other, Fields: map[string]Primitive{"a": LxmInteger(1)}}
	assert.False(t, Equal(o1, o2))

	assert.True(t, Equal(LxmSignal{Type: SignalBreak}, LxmSignal{Type: SignalBreak}))
	assert.False(t, Equal(LxmSignal{Type: SignalBreak}, LxmSignal{Type: SignalContinue}))
}

func TestClonePrimitive(t *testing.T) {
	list := &LxmList{Elements: []Primitive{LxmInteger(1)}}
	c := clonePrimitive(list).(*LxmList)
	c.Elements[0] = LxmInteger(2)
	assert.Equal(t, LxmInteger(1), list.Elements[0])

	ref, _ := NewReference(9)
	obj := &LxmObject{Prototype: &ref, Fields: map[string]Primitive{"k": LxmInteger(1)}}
	oc := clonePrimitive(obj).(*LxmObject)
	oc.Fields["k"] = LxmInteger(2)
	assert.Equal(t, LxmInteger(1), obj.Fields["k"])
	assert.NotSame(t, obj.Prototype, oc.Prototype)

	assert.Equal(t, LxmInteger(5), clonePrimitive(LxmInteger(5)))

	nested := &LxmList{Elements: []Primitive{
		&LxmObject{Fields: map[string]Primitive{"l": &LxmList{Elements: []Primitive{ref}}}},
		LxmSignal{Type: SignalReturn, Payload: &LxmList{Elements: []Primitive{LxmInteger(1)}}},
	}}
	nc := clonePrimitive(nested).(*LxmList)
	require.True(t, Equal(nested, nc))
	nc.Elements[0].(*LxmObject).Fields["l"].(*LxmList).Elements[0] = LxmInteger(0)
	nc.Elements[1].(LxmSignal).Payload.(*LxmList).Elements[0] = LxmInteger(2)
	assert.Equal(t, ref, nested.Elements[0].(*LxmObject).Fields["l"].(*LxmList).Elements[0])
	assert.Equal(t, LxmInteger(1), nested.Elements[1].(LxmSignal).Payload.(*LxmList).Elements[0])
}

func TestForEachReference(t *testing.T) {
	r1, _ := NewReference(10)
	r2, _ := NewReference(11)
	r3, _ := NewReference(12)
	value := &LxmList{Elements: []Primitive{
		r1,
		&LxmObject{Prototype: &r2, Fields: map[string]Primitive{"x": LxmInteger(1)}},
		LxmSignal{Type: SignalReturn, Payload: r3},
	}}

	var got []int64
	forEachReference(value, func(r LxmReference) { got = append(got, r.Position()) })
	assert.ElementsMatch(t, []int64{10, 11, 12}, got)

	forEachReference(LxmInteger(1), func(LxmReference) { t.Error("scalars own no references") })
}
