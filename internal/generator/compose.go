package generator

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Capability is a behavior attached to a companion type.
type Capability string

const (
	// CapCopy: the companion is a value type.
	CapCopy Capability = "copy"
	// CapEqual: values compare with == and Equal.
	CapEqual Capability = "equal"
	// CapOrder: Compare orders values by declaration order.
	CapOrder Capability = "order"
	// CapDebug: String and GoString.
	CapDebug Capability = "debug"
	// CapDoc: doc comments cross-reference the source type.
	CapDoc Capability = "doc"
	// CapEnumerate: a function listing every member.
	CapEnumerate Capability = "enumerate"
	// CapFlagAlgebra: Union, Difference, Intersection, Contains and IsEmpty.
	CapFlagAlgebra Capability = "flag_algebra"
	// CapSerialize: MarshalText and UnmarshalText.
	CapSerialize Capability = "serialize"
)

// ValuesSuffix names the member listing "<Companion>Values".
const ValuesSuffix = "Values"

// TableSuffix names the tag name table "<companion>Names".
const TableSuffix = "Names"

// BaseCapabilities are attached to every companion.
var BaseCapabilities = []Capability{CapCopy, CapEqual, CapOrder, CapDebug, CapDoc, CapEnumerate}

// Compose fills in the documentation of out and returns its capabilities.
// Serialization is appended last, for both representations.
func Compose(out *OutputType, opts Options) []Capability {
	out.Doc = fmt.Sprintf("%s is the automatically generated unit companion of [%s].", out.Name, out.Source)
	out.Values = out.Name + ValuesSuffix
	out.Table = lowerFirst(out.Name) + TableSuffix

	caps := append([]Capability(nil), BaseCapabilities...)
	if out.Repr == ReprBitFlags {
		caps = append(caps, CapFlagAlgebra)
	}
	if opts.Serialize {
		caps = append(caps, CapSerialize)
	}
	return caps
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
