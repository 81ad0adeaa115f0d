package typedef

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gork-labs/unitgen/internal/diag"
	"github.com/gork-labs/unitgen/internal/validator"
)

// File is the layout of a YAML definitions file.
//
//	package: proto
//	types:
//	  - name: Packet
//	    kind: tagged_union
//	    variants:
//	      - name: Ping
//	      - name: Data
//	        payload: {kind: positional, count: 2}
type File struct {
	Package string           `yaml:"package"`
	Types   []TypeDefinition `yaml:"types" validate:"dive"`
}

// LoadFile reads and validates a YAML definitions file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read definitions: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes and validates YAML definitions. Unknown keys are rejected.
// filename is only used for positions.
func Parse(data []byte, filename string) (*File, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, diag.New(diag.KindInvalidDefinition).
			At(diag.Position{File: filename}).
			Detail("parse definitions").
			Cause(err).
			Build()
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, diag.New(diag.KindInvalidDefinition).
			At(diag.Position{File: filename}).
			Detail("decode definitions").
			Cause(err).
			Build()
	}

	positions := typePositions(&root, filename)
	for i := range f.Types {
		if i < len(positions) {
			f.Types[i].Pos = positions[i]
		}
		normalize(&f.Types[i])
	}

	if err := validator.Struct(f); err != nil {
		return nil, validationError(&f, err, filename)
	}
	for i := range f.Types {
		if err := Check(&f.Types[i]); err != nil {
			return nil, err
		}
	}
	return &f, nil
}

// Check rejects names that are not Go identifiers and combinations the
// struct tags cannot express.
func Check(d *TypeDefinition) error {
	invalid := func(format string, args ...any) error {
		return diag.New(diag.KindInvalidDefinition).Type(d.Name).At(d.Pos).Detail(format, args...).Build()
	}
	if !token.IsIdentifier(d.Name) {
		return invalid("type name %q is not an identifier", d.Name)
	}
	if d.Options != nil && d.Options.Name != "" && !token.IsIdentifier(d.Options.Name) {
		return invalid("companion name %q is not an identifier", d.Options.Name)
	}
	switch d.Kind {
	case KindTaggedUnion:
		if len(d.Fields) > 0 || d.Positional > 0 {
			return invalid("a tagged union declares variants, not fields")
		}
		for _, v := range d.Variants {
			if v.Payload.Kind == PayloadNamed && v.Payload.Count > 0 {
				return invalid("variant %s mixes named fields and a positional count", v.Name)
			}
		}
	case KindRecord:
		if len(d.Variants) > 0 {
			return invalid("a record declares fields, not variants")
		}
		if len(d.Fields) > 0 && d.Positional > 0 {
			return invalid("a record has either named fields or a positional count")
		}
	}
	return nil
}

// normalize infers a payload kind left out of a definition.
func normalize(d *TypeDefinition) {
	for i := range d.Variants {
		p := &d.Variants[i].Payload
		if p.Kind != "" {
			continue
		}
		switch {
		case len(p.Fields) > 0:
			p.Kind = PayloadNamed
		case p.Count > 0:
			p.Kind = PayloadPositional
		default:
			p.Kind = PayloadNone
		}
	}
}

// typePositions returns the position of each entry of the top-level "types"
// sequence.
func typePositions(root *yaml.Node, filename string) []diag.Position {
	doc := root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value != "types" {
			continue
		}
		seq := doc.Content[i+1]
		out := make([]diag.Position, 0, len(seq.Content))
		for _, item := range seq.Content {
			out = append(out, diag.Position{File: filename, Line: item.Line, Column: item.Column})
		}
		return out
	}
	return nil
}

func validationError(f *File, err error, filename string) error {
	first, ok := validator.First(err)
	if !ok {
		return diag.New(diag.KindInvalidDefinition).At(diag.Position{File: filename}).Cause(err).Build()
	}
	b := diag.New(diag.KindInvalidDefinition).
		At(diag.Position{File: filename}).
		Detail("%s fails %q", first.Namespace, first.Tag)

	// Attach the definition the first failure belongs to, if it can be found.
	var idx int
	if _, scanErr := fmt.Sscanf(first.Namespace, "File.Types[%d]", &idx); scanErr == nil && idx < len(f.Types) {
		b.Type(f.Types[idx].Name).At(f.Types[idx].Pos)
	}
	return b.Build()
}
