// Package generator derives unit companion types from parsed type
// definitions.
//
// Expand is a pure function of a definition and Options: it classifies the
// shape, names the tags, selects a representation and synthesizes the
// accessor, returning a Fragment for an emitter. Definitions share no state,
// so ExpandAll expands them concurrently.
package generator

import (
	"context"
	"go/token"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/gork-labs/unitgen/internal/diag"
	"github.com/gork-labs/unitgen/internal/typedef"
)

// Expand derives the companion fragment for def. A type with no tags yields
// an empty fragment and no error; unsupported or over-capacity types yield a
// *diag.Error.
func Expand(def *typedef.TypeDefinition, opts Options) (*Fragment, error) {
	opts = opts.For(def)
	if err := checkIdentifier(def, "type name", def.Name); err != nil {
		return nil, err
	}

	shape, err := Classify(def)
	if err != nil {
		return nil, err
	}
	if shape == ShapeEmpty {
		return &Fragment{Source: def.Name, Empty: true}, nil
	}

	tags, err := NameTags(def, shape)
	if err != nil {
		return nil, err
	}

	name := opts.OutputName(def)
	if err := checkIdentifier(def, "companion name", name); err != nil {
		return nil, err
	}
	out, err := Represent(def, tags, name, opts)
	if err != nil {
		return nil, err
	}

	frag := &Fragment{
		Source:       def.Name,
		Output:       out,
		Capabilities: Compose(out, opts),
	}
	if shape == ShapeTaggedUnion {
		frag.Accessor, frag.Conversion, err = Synthesize(def, out)
		if err != nil {
			return nil, err
		}
	}
	if err := checkDeclarations(def, tags, frag); err != nil {
		return nil, err
	}
	return frag, nil
}

func checkIdentifier(def *typedef.TypeDefinition, what, name string) error {
	if token.IsIdentifier(name) {
		return nil
	}
	return diag.New(diag.KindInvalidDefinition).
		Type(def.Name).
		At(def.Pos).
		Detail("%s %q is not an identifier", what, name).
		Build()
}

// Result pairs a definition with its expansion.
type Result struct {
	Def      *typedef.TypeDefinition
	Fragment *Fragment
	Err      error
}

// ExpandAll expands defs concurrently. Results are in input order and carry
// their own diagnostics; the returned error is only set when ctx is done.
func ExpandAll(ctx context.Context, defs []*typedef.TypeDefinition, opts Options) ([]Result, error) {
	results := make([]Result, len(defs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, def := range defs {
		i, def := i, def
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			frag, err := Expand(def, opts)
			results[i] = Result{Def: def, Fragment: frag, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
