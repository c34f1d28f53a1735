package bitlist

import (
	"fmt"
	"strings"
)

// Literal delimiters of the bit list notation.
const (
	LiteralPrefix = `\b{`
	LiteralSuffix = `}`
)

// radixWidth maps a radix to the number of bits per digit.
var radixWidth = map[int]int{2: 1, 8: 3, 16: 4}

var radixPrefix = map[int]string{2: "0b", 8: "0o", 16: "0x"}

const digits = "0123456789abcdef"

// Radix returns the radix String uses for b: hexadecimal when the size is a
// multiple of 4, otherwise octal when it is a multiple of 3, otherwise
// binary.
func (b *BitList) Radix() int {
	switch {
	case b.size%4 == 0:
		return 16
	case b.size%3 == 0:
		return 8
	default:
		return 2
	}
}

// String renders the literal form, e.g. \b{0x0f}. The output has exactly
// one digit per group of bits, leftmost group first.
func (b *BitList) String() string {
	if b.size == 0 {
		return LiteralPrefix + LiteralSuffix
	}
	text, _ := b.Text(b.Radix())
	return LiteralPrefix + text + LiteralSuffix
}

// Text renders b in the given radix (2, 8 or 16) with its radix prefix and
// no literal delimiters. It fails if the size is not a whole number of
// digits in that radix.
func (b *BitList) Text(radix int) (string, error) {
	width, ok := radixWidth[radix]
	if !ok {
		return "", fmt.Errorf("%w: radix %d", ErrRadix, radix)
	}
	if b.size%width != 0 {
		return "", fmt.Errorf("%w: size %d, radix %d", ErrRadix, b.size, radix)
	}

	var sb strings.Builder
	sb.Grow(2 + b.size/width)
	sb.WriteString(radixPrefix[radix])
	for i := 0; i < b.size; i += width {
		d := 0
		for j := 0; j < width; j++ {
			d <<= 1
			if b.Get(i + j) {
				d |= 1
			}
		}
		sb.WriteByte(digits[d])
	}
	return sb.String(), nil
}

// Parse reads a literal produced by String or Text: an optional \b{...}
// wrapper around a 0x, 0o or 0b prefixed digit string. Each digit
// contributes 4, 3 or 1 bits, so "0x0f" is 8 bits long.
func Parse(s string) (*BitList, error) {
	text := s
	if strings.HasPrefix(text, LiteralPrefix) {
		if !strings.HasSuffix(text, LiteralSuffix) {
			return nil, fmt.Errorf("%w: %q: unterminated literal", ErrSyntax, s)
		}
		text = text[len(LiteralPrefix) : len(text)-len(LiteralSuffix)]
		if text == "" {
			return Empty, nil
		}
	}

	if len(text) < 2 || text[0] != '0' {
		return nil, fmt.Errorf("%w: %q: missing radix prefix", ErrSyntax, s)
	}
	var radix int
	switch text[1] {
	case 'x', 'X':
		radix = 16
	case 'o', 'O':
		radix = 8
	case 'b', 'B':
		radix = 2
	default:
		return nil, fmt.Errorf("%w: %q: unknown radix prefix", ErrSyntax, s)
	}
	body := text[2:]
	if body == "" {
		return Empty, nil
	}

	width := radixWidth[radix]
	b := alloc(len(body) * width)
	for k := 0; k < len(body); k++ {
		d := digitValue(body[k])
		if d < 0 || d >= radix {
			return nil, fmt.Errorf("%w: %q: bad digit %q", ErrSyntax, s, body[k])
		}
		for j := 0; j < width; j++ {
			if d&(1<<(width-1-j)) != 0 {
				i := k*width + j
				b.words[i/wordBits] |= 1 << (i % wordBits)
			}
		}
	}
	return b, nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(s string) *BitList {
	b, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return b
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	default:
		return -1
	}
}
