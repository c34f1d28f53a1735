package vm

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/chazu/lexem/pkg/bitlist"
	"github.com/chazu/lexem/pkg/interval"
)

// Primitive is a value stored in a heap cell.
//
// The set of primitives is closed: every implementation lives in this file
// and the functions below (TypeOf, HashOf, Format, Equal) switch over all of
// them. LxmReference is the only primitive that points at another cell.
type Primitive interface {
	primitive()
}

// Type identifies the language-level type of a primitive.
type Type uint8

const (
	TypeNil Type = iota
	TypeLogic
	TypeInteger
	TypeFloat
	TypeString
	TypeBitList
	TypeInterval
	TypeList
	TypeObject
	TypeContext
	TypeSignal
)

var typeNames = [...]string{
	TypeNil:      "Nil",
	TypeLogic:    "Logic",
	TypeInteger:  "Integer",
	TypeFloat:    "Float",
	TypeString:   "String",
	TypeBitList:  "BitList",
	TypeInterval: "Interval",
	TypeList:     "List",
	TypeObject:   "Object",
	TypeContext:  "Context",
	TypeSignal:   "Signal",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Type(" + strconv.Itoa(int(t)) + ")"
}

// ---------------------------------------------------------------------------
// Scalar primitives
// ---------------------------------------------------------------------------

// LxmNil is the nil value.
type LxmNil struct{}

// Nil is the only LxmNil.
var Nil = LxmNil{}

type LxmLogic bool

type LxmInteger int64

type LxmFloat float64

type LxmString string

// LxmBitList wraps an immutable bit list.
type LxmBitList struct {
	Bits *bitlist.BitList
}

// NewBitList wraps b, mapping nil to bitlist.Empty.
func NewBitList(b *bitlist.BitList) LxmBitList {
	if b == nil {
		b = bitlist.Empty
	}
	return LxmBitList{Bits: b}
}

// LxmInterval wraps an immutable interval. Cells that store it count as
// holders of the interval (see interval.Retain).
type LxmInterval struct {
	Interval *interval.Interval
}

// NewInterval wraps iv, mapping nil to interval.Empty.
func NewInterval(iv *interval.Interval) LxmInterval {
	if iv == nil {
		iv = interval.Empty
	}
	return LxmInterval{Interval: iv}
}

// LxmReference is a position in the heap.
type LxmReference struct {
	position int64
}

// Reserved positions.
var (
	StdLibContextReference = LxmReference{position: 0}
	HiddenContextReference = LxmReference{position: 1}
)

// firstFreePosition is the first position handed out by Allocate.
const firstFreePosition = 2

// NewReference returns a reference to position.
func NewReference(position int64) (LxmReference, error) {
	if position < 0 {
		return LxmReference{}, fmt.Errorf("%w: %d", ErrNegativePosition, position)
	}
	return LxmReference{position: position}, nil
}

// Position returns the heap position the reference points at.
func (r LxmReference) Position() int64 {
	return r.position
}

// IsReserved reports whether r points at one of the reserved contexts.
func (r LxmReference) IsReserved() bool {
	return r.position < firstFreePosition
}

// ---------------------------------------------------------------------------
// Container primitives
// ---------------------------------------------------------------------------

// LxmList is an ordered list of primitives.
type LxmList struct {
	Elements []Primitive
}

// LxmObject is a map of named fields. Prototype, when set, points at the
// object this one delegates to.
type LxmObject struct {
	Prototype *LxmReference
	Fields    map[string]Primitive
}

// LxmContext is a variable scope.
type LxmContext struct {
	Name string
	Vars map[string]Primitive
}

func newContext(name string) *LxmContext {
	return &LxmContext{Name: name, Vars: make(map[string]Primitive)}
}

// ---------------------------------------------------------------------------
// Control signals
// ---------------------------------------------------------------------------

// SignalType classifies a control signal.
type SignalType uint8

const (
	SignalBacktrack SignalType = iota
	SignalReturn
	SignalBreak
	SignalContinue
)

func (s SignalType) String() string {
	switch s {
	case SignalBacktrack:
		return "backtrack"
	case SignalReturn:
		return "return"
	case SignalBreak:
		return "break"
	case SignalContinue:
		return "continue"
	default:
		return "signal(" + strconv.Itoa(int(s)) + ")"
	}
}

// LxmSignal is a control-flow signal raised by the analyzer. Payload may be
// nil.
type LxmSignal struct {
	Type    SignalType
	Payload Primitive
}

func (LxmNil) primitive()       {}
func (LxmLogic) primitive()     {}
func (LxmInteger) primitive()   {}
func (LxmFloat) primitive()     {}
func (LxmString) primitive()    {}
func (LxmBitList) primitive()   {}
func (LxmInterval) primitive()  {}
func (LxmReference) primitive() {}
func (*LxmList) primitive()     {}
func (*LxmObject) primitive()   {}
func (*LxmContext) primitive()  {}
func (LxmSignal) primitive()    {}

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

// TypeOf returns the language type of p. A reference has no type of its
// own; resolve it first.
func TypeOf(p Primitive) Type {
	switch p.(type) {
	case nil, LxmNil:
		return TypeNil
	case LxmLogic:
		return TypeLogic
	case LxmInteger:
		return TypeInteger
	case LxmFloat:
		return TypeFloat
	case LxmString:
		return TypeString
	case LxmBitList:
		return TypeBitList
	case LxmInterval:
		return TypeInterval
	case *LxmList:
		return TypeList
	case *LxmObject:
		return TypeObject
	case *LxmContext:
		return TypeContext
	case LxmSignal:
		return TypeSignal
	case LxmReference:
		panic("TypeOf: reference has no type")
	default:
		panic(fmt.Sprintf("TypeOf: unknown primitive %T", p))
	}
}

// HashOf returns a hash of an immutable primitive. References, containers
// and signals are not hashable.
func HashOf(p Primitive) uint64 {
	h := fnv.New64a()
	var buf [9]byte
	put := func(tag Type, v uint64) uint64 {
		buf[0] = byte(tag)
		binary.LittleEndian.PutUint64(buf[1:], v)
		h.Write(buf[:])
		return h.Sum64()
	}

	switch v := p.(type) {
	case nil, LxmNil:
		return put(TypeNil, 0)
	case LxmLogic:
		if v {
			return put(TypeLogic, 1)
		}
		return put(TypeLogic, 0)
	case LxmInteger:
		return put(TypeInteger, uint64(v))
	case LxmFloat:
		return put(TypeFloat, math.Float64bits(float64(v)))
	case LxmString:
		h.Write([]byte{byte(TypeString)})
		h.Write([]byte(v))
		return h.Sum64()
	case LxmBitList:
		return put(TypeBitList, v.Bits.Hash())
	case LxmInterval:
		return put(TypeInterval, v.Interval.Hash())
	case LxmReference:
		panic("HashOf: reference is not hashable")
	case *LxmList, *LxmObject, *LxmContext:
		panic(fmt.Sprintf("HashOf: %s is not hashable", TypeOf(p)))
	case LxmSignal:
		panic("HashOf: signal is not hashable")
	default:
		panic(fmt.Sprintf("HashOf: unknown primitive %T", p))
	}
}

// Format renders p for diagnostics.
func Format(p Primitive) string {
	switch v := p.(type) {
	case nil, LxmNil:
		return "nil"
	case LxmLogic:
		return strconv.FormatBool(bool(v))
	case LxmInteger:
		return strconv.FormatInt(int64(v), 10)
	case LxmFloat:
		return strconv.FormatFloat(float64(v), 'g', -1, 64)
	case LxmString:
		return strconv.Quote(string(v))
	case LxmBitList:
		return v.Bits.String()
	case LxmInterval:
		return v.Interval.String()
	case LxmReference:
		return "&" + strconv.FormatInt(v.position, 10)
	case *LxmList:
		parts := make([]string, len(v.Elements))
		for i, e := range v.Elements {
			parts[i] = Format(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *LxmObject:
		s := formatFields(v.Fields)
		if v.Prototype == nil {
			return s
		}
		proto := "{proto: " + Format(*v.Prototype)
		if len(v.Fields) == 0 {
			return proto + "}"
		}
		return proto + ", " + s[1:]
	case *LxmContext:
		return "context " + v.Name + " " + formatFields(v.Vars)
	case LxmSignal:
		if v.Payload == nil {
			return "signal(" + v.Type.String() + ")"
		}
		return "signal(" + v.Type.String() + ", " + Format(v.Payload) + ")"
	default:
		panic(fmt.Sprintf("Format: unknown primitive %T", p))
	}
}

func formatFields(fields map[string]Primitive) string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range slices.Sorted(maps.Keys(fields)) {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(Format(fields[k]))
	}
	sb.WriteByte('}')
	return sb.String()
}

// Equal reports structural equality. References compare by position and
// are never followed.
func Equal(a, b Primitive) bool {
	switch x := a.(type) {
	case nil, LxmNil:
		_, isNil := b.(LxmNil)
		return b == nil || isNil
	case LxmLogic, LxmInteger, LxmFloat, LxmString, LxmReference:
		return a == b
	case LxmBitList:
		y, ok := b.(LxmBitList)
		return ok && x.Bits.Equal(y.Bits)
	case LxmInterval:
		y, ok := b.(LxmInterval)
		return ok && x.Interval.Equal(y.Interval)
	case *LxmList:
		y, ok := b.(*LxmList)
		return ok && slices.EqualFunc(x.Elements, y.Elements, Equal)
	case *LxmObject:
		y, ok := b.(*LxmObject)
		if !ok || (x.Prototype == nil) != (y.Prototype == nil) {
			return false
		}
		if x.Prototype != nil && *x.Prototype != *y.Prototype {
			return false
		}
		return maps.EqualFunc(x.Fields, y.Fields, Equal)
	case *LxmContext:
		y, ok := b.(*LxmContext)
		return ok && x.Name == y.Name && maps.EqualFunc(x.Vars, y.Vars, Equal)
	case LxmSignal:
		y, ok := b.(LxmSignal)
		return ok && x.Type == y.Type && Equal(x.Payload, y.Payload)
	default:
		panic(fmt.Sprintf("Equal: unknown primitive %T", a))
	}
}

// ---------------------------------------------------------------------------
// Ownership traversal
// ---------------------------------------------------------------------------

// clonePrimitive returns a copy of p that can be mutated without affecting
// p. Inline containers and signal payloads are copied all the way down;
// references stay positions and scalars are shared.
func clonePrimitive(p Primitive) Primitive {
	switch v := p.(type) {
	case *LxmList:
		c := &LxmList{Elements: make([]Primitive, len(v.Elements))}
		for i, e := range v.Elements {
			c.Elements[i] = clonePrimitive(e)
		}
		return c
	case *LxmObject:
		c := &LxmObject{Fields: cloneFields(v.Fields)}
		if v.Prototype != nil {
			proto := *v.Prototype
			c.Prototype = &proto
		}
		return c
	case *LxmContext:
		return &LxmContext{Name: v.Name, Vars: cloneFields(v.Vars)}
	case LxmSignal:
		if v.Payload != nil {
			v.Payload = clonePrimitive(v.Payload)
		}
		return v
	default:
		return p
	}
}

func cloneFields(fields map[string]Primitive) map[string]Primitive {
	if fields == nil {
		return nil
	}
	c := make(map[string]Primitive, len(fields))
	for k, f := range fields {
		c[k] = clonePrimitive(f)
	}
	return c
}

// forEachReference calls fn for every reference p owns, including those
// inside inline containers and signal payloads.
func forEachReference(p Primitive, fn func(LxmReference)) {
	switch v := p.(type) {
	case LxmReference:
		fn(v)
	case *LxmList:
		for _, e := range v.Elements {
			forEachReference(e, fn)
		}
	case *LxmObject:
		if v.Prototype != nil {
			fn(*v.Prototype)
		}
		for _, f := range v.Fields {
			forEachReference(f, fn)
		}
	case *LxmContext:
		for _, f := range v.Vars {
			forEachReference(f, fn)
		}
	case LxmSignal:
		if v.Payload != nil {
			forEachReference(v.Payload, fn)
		}
	}
}

// forEachInterval calls fn for every interval p holds.
func forEachInterval(p Primitive, fn func(*interval.Interval)) {
	switch v := p.(type) {
	case LxmInterval:
		fn(v.Interval)
	case *LxmList:
		for _, e := range v.Elements {
			forEachInterval(e, fn)
		}
	case *LxmObject:
		for _, f := range v.Fields {
			forEachInterval(f, fn)
		}
	case *LxmContext:
		for _, f := range v.Vars {
			forEachInterval(f, fn)
		}
	case LxmSignal:
		if v.Payload != nil {
			forEachInterval(v.Payload, fn)
		}
	}
}
