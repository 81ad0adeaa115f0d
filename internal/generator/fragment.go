package generator

import (
	"github.com/gork-labs/unitgen/internal/typedef"
	"github.com/gork-labs/unitgen/pkg/flagset"
)

// Fragment is the structured result of expanding one type definition. An
// emitter turns it into source text.
type Fragment struct {
	// Source is the name of the type the fragment derives from.
	Source string
	// Empty is set when the type has no tags and so needs no companion. All
	// other fields are nil then.
	Empty bool

	Output       *OutputType
	Capabilities []Capability

	// Accessor and Conversion are only produced for tagged unions.
	Accessor   *Accessor
	Conversion *Conversion
}

// Has reports whether the fragment carries capability c.
func (f *Fragment) Has(c Capability) bool {
	for _, have := range f.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// OutputType is the generated companion type.
type OutputType struct {
	Name   string
	Source string
	Doc    string
	Repr   Repr
	Width  Width
	// Members are in declaration order.
	Members []Member

	// Values names the function listing every member.
	Values string
	// Table names the unexported array of tag names.
	Table string
}

// Names returns the member tags in declaration order.
func (o *OutputType) Names() []string {
	names := make([]string, len(o.Members))
	for i, m := range o.Members {
		names[i] = m.Tag
	}
	return names
}

// Member is one value of the companion type.
type Member struct {
	// Tag is the derived tag identifier, e.g. "B" or "F0".
	Tag string
	// Ident is the Go identifier of the member, e.g. "ExampleUnitB".
	Ident string
	Index int
	// Value is the ordinal in plain mode and 1<<Index in bit-flag mode.
	Value flagset.Bits
}

// Accessor maps every variant of a tagged union to its member.
type Accessor struct {
	Name   string
	Doc    string
	Source string
	Output string
	Arms   []Arm
}

// Arm is one case of the accessor. The payload shape is kept for emitters;
// the mapping ignores it.
type Arm struct {
	Variant string
	Payload typedef.PayloadKind
	Arity   int
	// Pointer means only *Variant implements the union.
	Pointer bool
	Member  string
}

// Conversion is the structural conversion from a union value to its
// companion. It delegates to the accessor.
type Conversion struct {
	Name   string
	Doc    string
	Source string
	Output string
	Calls  string
}
