// Package unitlint reports unitgen diagnostics at the declarations they
// concern, so editors and go vet show them while the code is written.
package unitlint

import (
	"errors"
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/analysis"

	"github.com/gork-labs/unitgen/internal/diag"
	"github.com/gork-labs/unitgen/internal/extractor"
	"github.com/gork-labs/unitgen/internal/generator"
)

var (
	defaults generator.Options
	checkGen bool
)

// Analyzer checks //unitgen:derive declarations.
var Analyzer = &analysis.Analyzer{
	Name: "unitlint",
	Doc:  "checks //unitgen:derive declarations and reports types unitgen cannot derive a unit companion for",
	Run:  run,
}

func init() {
	Analyzer.Flags.BoolVar(&defaults.BitFlags, "bitflags", false, "default to the bit-flag representation")
	Analyzer.Flags.BoolVar(&defaults.Serialize, "serialize", false, "default to generating text marshaling")
	Analyzer.Flags.StringVar(&defaults.Suffix, "suffix", generator.DefaultSuffix, "companion type name suffix")
	Analyzer.Flags.BoolVar(&checkGen, "checkgen", true, "report declarations whose companion has not been generated")
}

func run(pass *analysis.Pass) (interface{}, error) {
	specs := typeSpecs(pass.Files)

	found, errs := extractor.ExtractFiles(pass.Fset, pass.Files)
	for _, err := range errs {
		report(pass, specs, err)
	}

	for _, a := range found {
		frag, err := generator.Expand(a.Def, defaults)
		if err != nil {
			report(pass, specs, err)
			continue
		}
		if !checkGen || frag.Empty {
			continue
		}
		if pass.Pkg.Scope().Lookup(frag.Output.Name) == nil {
			pass.Reportf(a.Spec.Name.Pos(), "%s has no generated companion %s; run unitgen generate", a.Def.Name, frag.Output.Name)
		}
	}
	return nil, nil
}

func typeSpecs(files []*ast.File) map[string]*ast.TypeSpec {
	specs := map[string]*ast.TypeSpec{}
	for _, file := range files {
		ast.Inspect(file, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.TypeSpec:
				specs[n.Name.Name] = n
				return false
			case *ast.FuncDecl:
				return false
			}
			return true
		})
	}
	return specs
}

// report places err at the declaration it names.
func report(pass *analysis.Pass, specs map[string]*ast.TypeSpec, err error) {
	var de *diag.Error
	if !errors.As(err, &de) {
		pass.Reportf(packagePos(pass), "%v", err)
		return
	}
	pos := packagePos(pass)
	if ts, ok := specs[de.Type]; ok {
		pos = ts.Name.Pos()
	}
	pass.Reportf(pos, "%s", de.Message())
}

func packagePos(pass *analysis.Pass) token.Pos {
	if len(pass.Files) == 0 {
		return token.NoPos
	}
	return pass.Files[0].Package
}
