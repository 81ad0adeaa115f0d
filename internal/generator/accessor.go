package generator

import (
	"fmt"

	"github.com/gork-labs/unitgen/internal/diag"
	"github.com/gork-labs/unitgen/internal/typedef"
)

// AccessorSuffix names the tag accessor "<Type>Kind".
const AccessorSuffix = "Kind"

// ConversionSuffix names the conversion "<Companion>From".
const ConversionSuffix = "From"

// Synthesize builds the tag accessor and the conversion for a tagged union.
// The accessor has exactly one arm per variant, mapping it to the member of
// the same index; anything else is reported as an arm mismatch rather than
// left to a default arm.
func Synthesize(def *typedef.TypeDefinition, out *OutputType) (*Accessor, *Conversion, error) {
	acc := &Accessor{
		Name:   accessorName(def.Name, out.Name),
		Source: def.Name,
		Output: out.Name,
		Arms:   make([]Arm, 0, len(def.Variants)),
	}
	acc.Doc = fmt.Sprintf("%s returns the [%s] of this [%s].", acc.Name, out.Name, def.Name)

	for i, v := range def.Variants {
		if i >= len(out.Members) {
			break
		}
		acc.Arms = append(acc.Arms, Arm{
			Variant: v.Name,
			Payload: v.Payload.Kind,
			Arity:   v.Payload.Arity(),
			Pointer: v.Pointer,
			Member:  out.Members[i].Ident,
		})
	}
	if err := checkArms(def, out, acc.Arms); err != nil {
		return nil, nil, err
	}

	conv := &Conversion{
		Name:   out.Name + ConversionSuffix,
		Source: def.Name,
		Output: out.Name,
		Calls:  acc.Name,
	}
	conv.Doc = fmt.Sprintf("%s converts a [%s] into its [%s].", conv.Name, def.Name, out.Name)
	return acc, conv, nil
}

// accessorName avoids the companion's own name when the companion suffix is
// also AccessorSuffix.
func accessorName(source, output string) string {
	name := source + AccessorSuffix
	if name == output {
		name += "Of"
	}
	return name
}

func checkArms(def *typedef.TypeDefinition, out *OutputType, arms []Arm) error {
	mismatch := func(format string, args ...any) error {
		return diag.New(diag.KindArmMismatch).Type(def.Name).At(def.Pos).Detail(format, args...).Build()
	}
	if len(arms) != len(def.Variants) || len(arms) != len(out.Members) {
		return mismatch("%d arms for %d variants and %d members", len(arms), len(def.Variants), len(out.Members))
	}
	seen := make(map[string]bool, len(arms))
	for i, arm := range arms {
		if arm.Member != out.Members[i].Ident {
			return mismatch("variant %s maps to %s, want %s", arm.Variant, arm.Member, out.Members[i].Ident)
		}
		if seen[arm.Variant] {
			return mismatch("variant %s has more than one arm", arm.Variant)
		}
		seen[arm.Variant] = true
	}
	return nil
}
