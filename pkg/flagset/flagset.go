// Package flagset provides the 128-bit flag word used by unitgen generated
// bit-flag companions, together with the text encoding shared by every width.
//
// Generated types narrower than 128 bits are plain unsigned integers and only
// reach for this package to format and parse their text form.
package flagset

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// MaxWidth is the widest flag word supported.
const MaxWidth = 128

// ErrUnknownFlag is returned by Parse for a name that is not in the name table.
var ErrUnknownFlag = errors.New("unknown flag")

// ErrOverflow is returned by Parse when a literal sets bits beyond the width.
var ErrOverflow = errors.New("flag literal overflows width")

// Bits is a 128-bit flag word. Bit i of the word is tag i.
type Bits struct {
	Hi uint64
	Lo uint64
}

// Bit returns the word with only bit i set. It panics if i is outside [0, 128).
func Bit(i int) Bits {
	switch {
	case i < 0 || i >= MaxWidth:
		panic(fmt.Sprintf("flagset: bit %d out of range", i))
	case i < 64:
		return Bits{Lo: 1 << uint(i)}
	default:
		return Bits{Hi: 1 << uint(i-64)}
	}
}

// FromUint64 widens v to a flag word.
func FromUint64(v uint64) Bits {
	return Bits{Lo: v}
}

// Mask returns the word with the low n bits set.
func Mask(n int) Bits {
	switch {
	case n <= 0:
		return Bits{}
	case n < 64:
		return Bits{Lo: 1<<uint(n) - 1}
	case n == 64:
		return Bits{Lo: ^uint64(0)}
	case n < MaxWidth:
		return Bits{Hi: 1<<uint(n-64) - 1, Lo: ^uint64(0)}
	default:
		return Bits{Hi: ^uint64(0), Lo: ^uint64(0)}
	}
}

// Uint64 returns the low 64 bits of b.
func (b Bits) Uint64() uint64 {
	return b.Lo
}

// Or returns the union of b and o.
func (b Bits) Or(o Bits) Bits {
	return Bits{Hi: b.Hi | o.Hi, Lo: b.Lo | o.Lo}
}

// And returns the intersection of b and o.
func (b Bits) And(o Bits) Bits {
	return Bits{Hi: b.Hi & o.Hi, Lo: b.Lo & o.Lo}
}

// AndNot returns the bits of b that are not set in o.
func (b Bits) AndNot(o Bits) Bits {
	return Bits{Hi: b.Hi &^ o.Hi, Lo: b.Lo &^ o.Lo}
}

// Has reports whether bit i is set.
func (b Bits) Has(i int) bool {
	if i < 0 || i >= MaxWidth {
		return false
	}
	return !b.And(Bit(i)).IsZero()
}

// IsZero reports whether no bit is set.
func (b Bits) IsZero() bool {
	return b.Hi == 0 && b.Lo == 0
}

// OnesCount returns the number of set bits.
func (b Bits) OnesCount() int {
	return bits.OnesCount64(b.Hi) + bits.OnesCount64(b.Lo)
}

// Len returns the minimum number of bits needed to represent b.
func (b Bits) Len() int {
	if b.Hi != 0 {
		return 64 + bits.Len64(b.Hi)
	}
	return bits.Len64(b.Lo)
}

// Compare orders words numerically, so a lower tag sorts before a higher one.
func (b Bits) Compare(o Bits) int {
	switch {
	case b.Hi < o.Hi:
		return -1
	case b.Hi > o.Hi:
		return 1
	case b.Lo < o.Lo:
		return -1
	case b.Lo > o.Lo:
		return 1
	}
	return 0
}

// Hex returns b as a 0x-prefixed hexadecimal literal.
func (b Bits) Hex() string {
	if b.Hi == 0 {
		return "0x" + strconv.FormatUint(b.Lo, 16)
	}
	return fmt.Sprintf("0x%x%016x", b.Hi, b.Lo)
}

// Separator joins flag names in the text form.
const Separator = " | "

// Format renders b as the names of its set bits joined by Separator, in bit
// order. Bits without a name are appended as a single hexadecimal literal so
// the result always parses back to b. The empty word formats as "".
func (b Bits) Format(names []string) string {
	var parts []string
	for i, name := range names {
		if b.Has(i) {
			parts = append(parts, name)
		}
	}
	if rest := b.AndNot(Mask(len(names))); !rest.IsZero() {
		parts = append(parts, rest.Hex())
	}
	return strings.Join(parts, Separator)
}

// Parse is the inverse of Format. Whitespace around names is ignored and a
// name may appear more than once. Hexadecimal literals are accepted for bits
// with or without a name, but must fit in width bits.
func Parse(text string, names []string, width int) (Bits, error) {
	var out Bits
	if strings.TrimSpace(text) == "" {
		return out, nil
	}
	for _, part := range strings.Split(text, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			return Bits{}, fmt.Errorf("empty flag in %q", text)
		}
		if strings.HasPrefix(part, "0x") || strings.HasPrefix(part, "0X") {
			lit, err := parseHex(part[2:])
			if err != nil {
				return Bits{}, fmt.Errorf("flag literal %q: %w", part, err)
			}
			out = out.Or(lit)
			continue
		}
		idx := indexOf(names, part)
		if idx < 0 {
			return Bits{}, fmt.Errorf("%w: %q", ErrUnknownFlag, part)
		}
		out = out.Or(Bit(idx))
	}
	if width < MaxWidth && out.Len() > width {
		return Bits{}, fmt.Errorf("%w: %s does not fit in %d bits", ErrOverflow, out.Hex(), width)
	}
	return out, nil
}

func parseHex(digits string) (Bits, error) {
	if digits == "" || len(digits) > 32 {
		return Bits{}, fmt.Errorf("want 1 to 32 hex digits, got %d", len(digits))
	}
	split := len(digits) - 16
	if split <= 0 {
		lo, err := strconv.ParseUint(digits, 16, 64)
		return Bits{Lo: lo}, err
	}
	hi, err := strconv.ParseUint(digits[:split], 16, 64)
	if err != nil {
		return Bits{}, err
	}
	lo, err := strconv.ParseUint(digits[split:], 16, 64)
	if err != nil {
		return Bits{}, err
	}
	return Bits{Hi: hi, Lo: lo}, nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
