package generator

import (
	"strconv"

	"github.com/gork-labs/unitgen/internal/diag"
	"github.com/gork-labs/unitgen/internal/typedef"
	"github.com/gork-labs/unitgen/pkg/flagset"
)

// Repr is the representation of a companion type.
type Repr int

const (
	// ReprPlain is an enumeration with one ordinal per tag.
	ReprPlain Repr = iota
	// ReprBitFlags gives tag i the value 1<<i so tags combine as a set.
	ReprBitFlags
)

func (r Repr) String() string {
	if r == ReprBitFlags {
		return "bitflags"
	}
	return "plain"
}

// Width is the size in bits of the companion's underlying integer.
type Width int

// Widths lists the supported widths, narrowest first.
var Widths = []Width{8, 16, 32, 64, 128}

// MaxTags is the largest tag count a bit-flag companion can hold.
const MaxTags = flagset.MaxWidth

// GoType returns the underlying Go type for the width. 128-bit words use
// flagset.Bits.
func (w Width) GoType() string {
	if w == 128 {
		return "flagset.Bits"
	}
	return "uint" + strconv.Itoa(int(w))
}

// Native reports whether the width is a Go integer type.
func (w Width) Native() bool {
	return w <= 64
}

// FlagWidth returns the narrowest width with at least n bits.
func FlagWidth(n int) (Width, bool) {
	for _, w := range Widths {
		if n <= int(w) {
			return w, true
		}
	}
	return 0, false
}

// OrdinalWidth returns the narrowest unsigned width holding the ordinals
// 0..n-1.
func OrdinalWidth(n int) Width {
	for _, w := range Widths[:len(Widths)-1] {
		if w == 64 || uint64(n-1) < 1<<uint(w) {
			return w
		}
	}
	return 64
}

// Represent builds the companion type for tags. Plain mode always succeeds;
// bit-flag mode fails when tags do not fit in MaxTags bits.
func Represent(def *typedef.TypeDefinition, tags TagSet, name string, opts Options) (*OutputType, error) {
	out := &OutputType{
		Name:    name,
		Source:  def.Name,
		Repr:    ReprPlain,
		Members: make([]Member, len(tags)),
	}

	if opts.BitFlags {
		w, ok := FlagWidth(len(tags))
		if !ok {
			return nil, diag.New(diag.KindCapacityExceeded).
				Type(def.Name).
				At(def.Pos).
				Detail("%d tags do not fit in a %d-bit flag set", len(tags), MaxTags).
				Build()
		}
		out.Repr = ReprBitFlags
		out.Width = w
	} else {
		out.Width = OrdinalWidth(len(tags))
	}

	for i, t := range tags {
		m := Member{Tag: t.Name, Ident: name + t.Name, Index: i}
		if out.Repr == ReprBitFlags {
			m.Value = flagset.Bit(i)
		} else {
			m.Value = flagset.FromUint64(uint64(i))
		}
		out.Members[i] = m
	}
	return out, nil
}
