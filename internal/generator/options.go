package generator

import "github.com/gork-labs/unitgen/internal/typedef"

// DefaultSuffix is appended to a type name to name its companion.
const DefaultSuffix = "Unit"

// Options selects the generation strategy. Every combination of BitFlags and
// Serialize is valid.
type Options struct {
	// BitFlags represents the companion as a set of power-of-two flags instead
	// of a plain enumeration.
	BitFlags bool `yaml:"bitflags"`
	// Serialize adds text marshaling, and with it JSON and YAML support.
	Serialize bool `yaml:"serialize"`
	// Suffix names the companion "<Type><Suffix>". Empty means DefaultSuffix.
	Suffix string `yaml:"suffix,omitempty" validate:"omitempty,alphanum"`
}

// For returns o with the per-definition overrides of def applied.
func (o Options) For(def *typedef.TypeDefinition) Options {
	if o.Suffix == "" {
		o.Suffix = DefaultSuffix
	}
	if def.Options == nil {
		return o
	}
	if def.Options.BitFlags != nil {
		o.BitFlags = *def.Options.BitFlags
	}
	if def.Options.Serialize != nil {
		o.Serialize = *def.Options.Serialize
	}
	return o
}

// OutputName returns the companion type name for def under o.
func (o Options) OutputName(def *typedef.TypeDefinition) string {
	if def.Options != nil && def.Options.Name != "" {
		return def.Options.Name
	}
	suffix := o.Suffix
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return def.Name + suffix
}
