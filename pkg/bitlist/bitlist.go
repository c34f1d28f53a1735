// Package bitlist implements immutable fixed-size bit vectors.
//
// Bit 0 is the leftmost bit of the textual form, the most significant bit
// of the first digit. Every operation returns a new BitList (or the receiver
// when the result is identical); no operation mutates its operands.
package bitlist

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"math/bits"
)

// Validation errors
var (
	// ErrNegativeSize indicates a BitList size below zero.
	ErrNegativeSize = errors.New("negative bit list size")

	// ErrNegativeDisplacement indicates a shift or rotation by a negative amount.
	ErrNegativeDisplacement = errors.New("negative displacement")

	// ErrSyntax indicates a malformed bit list literal.
	ErrSyntax = errors.New("invalid bit list literal")

	// ErrRadix indicates a radix the size cannot be written in.
	ErrRadix = errors.New("size not representable in radix")
)

const wordBits = 64

// BitList is an immutable sequence of bits. Bits past size in the last word
// are always zero.
type BitList struct {
	size  int
	words []uint64
}

// Empty is the zero-length bit list.
var Empty = &BitList{}

// New returns an all-zero bit list of the given size.
func New(size int) (*BitList, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeSize, size)
	}
	if size == 0 {
		return Empty, nil
	}
	return alloc(size), nil
}

func alloc(size int) *BitList {
	return &BitList{size: size, words: make([]uint64, (size+wordBits-1)/wordBits)}
}

// FromBytes returns a bit list of 8*len(data) bits. Each byte is read most
// significant bit first, so the bit order inside every byte is reversed
// relative to a little-endian bit set: []byte{0x01} is 0b00000001.
func FromBytes(data []byte) *BitList {
	if len(data) == 0 {
		return Empty
	}
	b := alloc(len(data) * 8)
	for k, v := range data {
		r := uint64(bits.Reverse8(v))
		idx := k * 8
		b.words[idx/wordBits] |= r << (idx % wordBits)
	}
	return b
}

// Bytes is the inverse of FromBytes. A size that is not a multiple of 8 is
// padded with zero bits on the right.
func (b *BitList) Bytes() []byte {
	out := make([]byte, (b.size+7)/8)
	for k := range out {
		idx := k * 8
		v := byte(b.words[idx/wordBits] >> (idx % wordBits))
		out[k] = bits.Reverse8(v)
	}
	return out
}

// Size returns the number of bits.
func (b *BitList) Size() int {
	return b.size
}

// Get returns bit i. Panics if i is out of range.
func (b *BitList) Get(i int) bool {
	if i < 0 || i >= b.size {
		panic(fmt.Sprintf("BitList.Get: index %d out of range [0, %d)", i, b.size))
	}
	return b.words[i/wordBits]&(1<<(i%wordBits)) != 0
}

// Count returns the number of set bits.
func (b *BitList) Count() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Equal reports whether b and other have the same size and bits.
func (b *BitList) Equal(other *BitList) bool {
	if b == other {
		return true
	}
	if b == nil || other == nil || b.size != other.size {
		return false
	}
	for k, w := range b.words {
		if other.words[k] != w {
			return false
		}
	}
	return true
}

// Hash returns a hash of the size and bits.
func (b *BitList) Hash() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(b.size))
	h.Write(buf[:])
	for _, w := range b.words {
		binary.LittleEndian.PutUint64(buf[:], w)
		h.Write(buf[:])
	}
	return h.Sum64()
}

// clearPadding zeroes the bits past size in the last word.
func (b *BitList) clearPadding() {
	if rem := b.size % wordBits; rem != 0 {
		b.words[len(b.words)-1] &= (1 << rem) - 1
	}
}

// ---------------------------------------------------------------------------
// Boolean algebra
// ---------------------------------------------------------------------------

// And returns the bitwise conjunction. The result has the larger of the two
// sizes; the shorter operand reads as zero past its end.
func (b *BitList) And(other *BitList) *BitList {
	return combine(b, other, func(x, y uint64) uint64 { return x & y })
}

// Or returns the bitwise disjunction, sized like And.
func (b *BitList) Or(other *BitList) *BitList {
	return combine(b, other, func(x, y uint64) uint64 { return x | y })
}

// Xor returns the bitwise exclusive or, sized like And.
func (b *BitList) Xor(other *BitList) *BitList {
	return combine(b, other, func(x, y uint64) uint64 { return x ^ y })
}

// Not returns the bitwise complement.
func (b *BitList) Not() *BitList {
	if b.size == 0 {
		return Empty
	}
	res := alloc(b.size)
	for k, w := range b.words {
		res.words[k] = ^w
	}
	res.clearPadding()
	return res
}

func combine(a, b *BitList, op func(x, y uint64) uint64) *BitList {
	size := max(a.size, b.size)
	if size == 0 {
		return Empty
	}
	res := alloc(size)
	for k := range res.words {
		var x, y uint64
		if k < len(a.words) {
			x = a.words[k]
		}
		if k < len(b.words) {
			y = b.words[k]
		}
		res.words[k] = op(x, y)
	}
	return res
}

// ---------------------------------------------------------------------------
// Shifts and rotations
// ---------------------------------------------------------------------------

// LeftShift moves every bit d places to the left. Bits shifted past index 0
// are dropped and zeros enter on the right. Shifting by size or more yields
// Empty.
func (b *BitList) LeftShift(d int) (*BitList, error) {
	if d < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeDisplacement, d)
	}
	switch {
	case d == 0:
		return b, nil
	case d >= b.size:
		return Empty, nil
	}
	res := alloc(b.size)
	shiftDown(res.words, b.words, d)
	return res, nil
}

// RightShift moves every bit d places to the right. Bits shifted past the
// end are dropped and zeros enter on the left. Shifting by size or more
// yields Empty.
func (b *BitList) RightShift(d int) (*BitList, error) {
	if d < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeDisplacement, d)
	}
	switch {
	case d == 0:
		return b, nil
	case d >= b.size:
		return Empty, nil
	}
	res := alloc(b.size)
	shiftUp(res.words, b.words, d)
	res.clearPadding()
	return res, nil
}

// LeftRotate moves every bit d places to the left, wrapping bits that leave
// index 0 around to the right end. A rotation by a multiple of the size
// returns b itself.
func (b *BitList) LeftRotate(d int) (*BitList, error) {
	if d < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeDisplacement, d)
	}
	if b.size == 0 || d%b.size == 0 {
		return b, nil
	}
	return b.rotate(d % b.size), nil
}

// RightRotate moves every bit d places to the right, wrapping around to the
// left end. A rotation by a multiple of the size returns b itself.
func (b *BitList) RightRotate(d int) (*BitList, error) {
	if d < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeDisplacement, d)
	}
	if b.size == 0 || d%b.size == 0 {
		return b, nil
	}
	return b.rotate(b.size - d%b.size), nil
}

// rotate computes result[i] = b[(i+d) mod size] for 0 < d < size.
func (b *BitList) rotate(d int) *BitList {
	res := alloc(b.size)
	tail := make([]uint64, len(b.words))
	shiftDown(res.words, b.words, d)
	shiftUp(tail, b.words, b.size-d)
	for k := range res.words {
		res.words[k] |= tail[k]
	}
	res.clearPadding()
	return res
}

// shiftDown sets dst[i] = src[i+d] over the bit index space.
func shiftDown(dst, src []uint64, d int) {
	ws, bs := d/wordBits, uint(d%wordBits)
	for k := range dst {
		var w uint64
		if k+ws < len(src) {
			w = src[k+ws] >> bs
		}
		if bs != 0 && k+ws+1 < len(src) {
			w |= src[k+ws+1] << (wordBits - bs)
		}
		dst[k] = w
	}
}

// shiftUp sets dst[i] = src[i-d] over the bit index space, zero for i < d.
func shiftUp(dst, src []uint64, d int) {
	ws, bs := d/wordBits, uint(d%wordBits)
	for k := range dst {
		var w uint64
		if k-ws >= 0 && k-ws < len(src) {
			w = src[k-ws] << bs
		}
		if bs != 0 && k-ws-1 >= 0 && k-ws-1 < len(src) {
			w |= src[k-ws-1] >> (wordBits - bs)
		}
		dst[k] = w
	}
}
