// Package typedef describes parsed type definitions, the input to the unitgen
// generator. Front ends (Go source, YAML definitions) produce these values;
// the generator never sees source text.
package typedef

import "github.com/gork-labs/unitgen/internal/diag"

// Kind is the declared shape of a type.
type Kind string

const (
	// KindTaggedUnion is a closed set of named variants, each optionally
	// carrying a payload. In Go source, a sealed interface.
	KindTaggedUnion Kind = "tagged_union"
	// KindRecord carries all of its fields at once. In Go source, a struct or
	// a fixed-size array.
	KindRecord Kind = "record"
	// KindUnion is an untagged union overlaying its members in the same
	// storage. It has no tag to derive and is always rejected.
	KindUnion Kind = "union"
)

// PayloadKind is the shape of the data a variant carries.
type PayloadKind string

const (
	PayloadNone       PayloadKind = "none"
	PayloadPositional PayloadKind = "positional"
	PayloadNamed      PayloadKind = "named"
)

// Payload describes a variant's data. Only its shape matters to unitgen.
type Payload struct {
	Kind   PayloadKind `yaml:"kind" validate:"omitempty,oneof=none positional named"`
	Count  int         `yaml:"count,omitempty" validate:"gte=0"`
	Fields []string    `yaml:"fields,omitempty" validate:"dive,required"`
}

// Arity returns the number of payload fields.
func (p Payload) Arity() int {
	switch p.Kind {
	case PayloadNamed:
		return len(p.Fields)
	case PayloadPositional:
		return p.Count
	}
	return 0
}

// Variant is one alternative of a tagged union.
type Variant struct {
	Name    string  `yaml:"name" validate:"required"`
	Payload Payload `yaml:"payload,omitempty"`
	// Pointer is set when only the pointer type implements the union, so the
	// value type must not appear in a type switch.
	Pointer bool `yaml:"pointer,omitempty"`
}

// Field is one named field of a record.
type Field struct {
	Name string `yaml:"name" validate:"required"`
}

// Options overrides generation defaults for one definition. Nil fields keep
// the caller's defaults.
type Options struct {
	BitFlags  *bool  `yaml:"bitflags,omitempty"`
	Serialize *bool  `yaml:"serialize,omitempty"`
	Name      string `yaml:"name,omitempty"`
}

// TypeDefinition is a parsed type declaration.
type TypeDefinition struct {
	Name     string    `yaml:"name" validate:"required"`
	Kind     Kind      `yaml:"kind" validate:"required,oneof=tagged_union record union"`
	Variants []Variant `yaml:"variants,omitempty" validate:"dive"`
	Fields   []Field   `yaml:"fields,omitempty" validate:"dive"`
	// Positional is the field count of a record whose fields have no names.
	Positional int `yaml:"positional,omitempty" validate:"gte=0"`

	Options *Options      `yaml:"options,omitempty"`
	Pos     diag.Position `yaml:"-"`
	// Detail explains a KindUnion classification made by a front end.
	Detail string `yaml:"-"`
}

// IsPositional reports whether the definition is a record with unnamed fields.
func (d *TypeDefinition) IsPositional() bool {
	return d.Kind == KindRecord && len(d.Fields) == 0 && d.Positional > 0
}
