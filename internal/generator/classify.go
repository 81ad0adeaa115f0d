package generator

import (
	"github.com/gork-labs/unitgen/internal/diag"
	"github.com/gork-labs/unitgen/internal/typedef"
)

// Shape is the classification of a type definition.
type Shape int

const (
	// ShapeEmpty has no tags: a union without variants or a unit record.
	ShapeEmpty Shape = iota
	ShapeTaggedUnion
	ShapeNamedRecord
	ShapePositionalRecord
	ShapeUnsupported
)

func (s Shape) String() string {
	switch s {
	case ShapeEmpty:
		return "empty"
	case ShapeTaggedUnion:
		return "tagged union"
	case ShapeNamedRecord:
		return "named record"
	case ShapePositionalRecord:
		return "positional record"
	case ShapeUnsupported:
		return "unsupported"
	}
	return "unknown"
}

// Classify inspects def. An unsupported shape is returned together with its
// diagnostic.
func Classify(def *typedef.TypeDefinition) (Shape, error) {
	switch def.Kind {
	case typedef.KindTaggedUnion:
		if len(def.Variants) == 0 {
			return ShapeEmpty, nil
		}
		return ShapeTaggedUnion, nil
	case typedef.KindRecord:
		switch {
		case len(def.Fields) > 0:
			return ShapeNamedRecord, nil
		case def.Positional > 0:
			return ShapePositionalRecord, nil
		}
		return ShapeEmpty, nil
	case typedef.KindUnion:
		detail := "untagged unions are not supported"
		if def.Detail != "" {
			detail += " (" + def.Detail + ")"
		}
		return ShapeUnsupported, diag.New(diag.KindUnsupportedShape).
			Type(def.Name).
			At(def.Pos).
			Detail(detail).
			Build()
	}
	return ShapeUnsupported, diag.New(diag.KindInvalidDefinition).
		Type(def.Name).
		At(def.Pos).
		Detail("unknown kind %q", def.Kind).
		Build()
}
