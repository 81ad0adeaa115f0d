// Package extractor reads type definitions out of Go source. A declaration
// opts in with a //unitgen:derive directive in its doc comment:
//
//	//unitgen:derive bitflags,serialize
//	type Shape interface{ isShape() }
//
// A sealed interface (one carrying an unexported marker method with no
// parameters or results) is a tagged union whose variants are the package's
// types implementing the marker, either by declaring it or by embedding a
// type that does. A struct is a record with named fields and
// an array type [N]T is a record with N positional fields. Anything else has
// no tag layout and is reported as an untagged union.
package extractor

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/gork-labs/unitgen/internal/diag"
	"github.com/gork-labs/unitgen/internal/typedef"
)

// Annotated is one annotated declaration.
type Annotated struct {
	Def     *typedef.TypeDefinition
	Package string
	// File is the source file holding the declaration.
	File string
	// Spec is the declaration itself, for reporting against the AST.
	Spec *ast.TypeSpec
}

// Extractor handles extracting type definitions from Go source
type Extractor struct {
	fileSet *token.FileSet
	files   map[string]*ast.File // filepath -> AST
	skip    func(name string) bool
}

// NewExtractor creates a new extractor. Files for which skip returns true are
// not parsed; test files are always skipped.
func NewExtractor(skip func(name string) bool) *Extractor {
	return &Extractor{
		fileSet: token.NewFileSet(),
		files:   make(map[string]*ast.File),
		skip:    skip,
	}
}

// FileSet returns the file set positions are resolved against.
func (e *Extractor) FileSet() *token.FileSet {
	return e.fileSet
}

// ParseDirectory parses all Go files in a directory
func (e *Extractor) ParseDirectory(dir string) error {
	filter := func(fi os.FileInfo) bool {
		name := fi.Name()
		if strings.HasSuffix(name, "_test.go") {
			return false
		}
		return e.skip == nil || !e.skip(name)
	}
	pkgs, err := parser.ParseDir(e.fileSet, dir, filter, parser.ParseComments)
	if err != nil {
		return fmt.Errorf("failed to parse directory %s: %w", dir, err)
	}
	for _, pkg := range pkgs {
		for filePath, file := range pkg.Files {
			e.files[filePath] = file
		}
	}
	return nil
}

// Files returns the parsed files keyed by path.
func (e *Extractor) Files() map[string]*ast.File {
	return e.files
}

// Extract returns every annotated declaration of the parsed files, grouped
// by package and in source order. Errors for individual declarations are
// collected and returned together with the declarations that did extract.
func (e *Extractor) Extract() ([]Annotated, []error) {
	byPkg := map[string][]*ast.File{}
	var pkgs []string
	for _, path := range sortedKeys(e.files) {
		file := e.files[path]
		key := packageKey(path, file)
		if _, ok := byPkg[key]; !ok {
			pkgs = append(pkgs, key)
		}
		byPkg[key] = append(byPkg[key], file)
	}

	var (
		all  []Annotated
		errs []error
	)
	for _, key := range pkgs {
		found, perr := ExtractFiles(e.fileSet, byPkg[key])
		all = append(all, found...)
		errs = append(errs, perr...)
	}
	return all, errs
}

// packageKey groups files of one package: same directory, same package name.
func packageKey(path string, file *ast.File) string {
	dir := path
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		dir = path[:i]
	}
	return dir + "\x00" + file.Name.Name
}

func sortedKeys(m map[string]*ast.File) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// typeDecl is a type declaration with the doc comments that may carry a
// directive.
type typeDecl struct {
	spec *ast.TypeSpec
	gen  *ast.GenDecl
	file *ast.File
}

// ExtractFiles extracts the annotated declarations of files, which must all
// belong to one package. Variants of a tagged union are looked up across all
// of files.
func ExtractFiles(fset *token.FileSet, files []*ast.File) ([]Annotated, []error) {
	var decls []typeDecl
	byName := map[string]typeDecl{}
	// marker method name -> receiver type name -> pointer receiver
	markers := map[string]map[string]bool{}

	for _, file := range files {
		for _, d := range file.Decls {
			switch decl := d.(type) {
			case *ast.GenDecl:
				if decl.Tok != token.TYPE {
					continue
				}
				for _, s := range decl.Specs {
					ts, ok := s.(*ast.TypeSpec)
					if !ok {
						continue
					}
					td := typeDecl{spec: ts, gen: decl, file: file}
					decls = append(decls, td)
					byName[ts.Name.Name] = td
				}
			case *ast.FuncDecl:
				recv, pointer, ok := receiver(decl)
				if !ok || !isMarker(decl.Name.Name, decl.Type) {
					continue
				}
				if markers[decl.Name.Name] == nil {
					markers[decl.Name.Name] = map[string]bool{}
				}
				markers[decl.Name.Name][recv] = pointer
			}
		}
	}

	promote(decls, markers)

	sort.SliceStable(decls, func(i, j int) bool {
		pi, pj := fset.Position(decls[i].spec.Pos()), fset.Position(decls[j].spec.Pos())
		if pi.Filename != pj.Filename {
			return pi.Filename < pj.Filename
		}
		return pi.Offset < pj.Offset
	})

	var (
		out  []Annotated
		errs []error
	)
	for _, td := range decls {
		comment, ok := findDirective(td.spec.Doc, td.gen.Doc)
		if !ok {
			continue
		}
		pos := position(fset, td.spec.Name.Pos())
		name := td.spec.Name.Name

		opts, err := ParseDirective(comment.Text)
		if err != nil {
			errs = append(errs, diag.New(diag.KindInvalidDefinition).
				Type(name).At(position(fset, comment.Pos())).Cause(err).
				Detail("malformed %s directive", Directive).Build())
			continue
		}

		def, err := define(td, pos, markers, byName, decls)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		def.Options = opts
		out = append(out, Annotated{
			Def:     def,
			Package: td.file.Name.Name,
			File:    pos.File,
			Spec:    td.spec,
		})
	}
	return out, errs
}

// provider reaches a marker method depth embeddings down.
type provider struct {
	depth   int
	pointer bool
}

// promote adds to markers the structs that get a marker method through an
// embedded field, directly or through further embeddings. Embedding T gives
// the struct T's value methods and, on its pointer only, T's pointer
// methods; embedding *T or an interface declaring the method gives both. Two
// fields reaching the method at the same depth make the selector ambiguous,
// so the struct does not implement it.
func promote(decls []typeDecl, markers map[string]map[string]bool) {
	ifaces := map[string][]string{}
	for _, td := range decls {
		it, ok := td.spec.Type.(*ast.InterfaceType)
		if !ok {
			continue
		}
		for _, m := range it.Methods.List {
			ft, ok := m.Type.(*ast.FuncType)
			if ok && len(m.Names) == 1 && isMarker(m.Names[0].Name, ft) {
				ifaces[m.Names[0].Name] = append(ifaces[m.Names[0].Name], td.spec.Name.Name)
			}
		}
	}

	for marker, names := range ifaces {
		if markers[marker] == nil {
			markers[marker] = map[string]bool{}
		}
		impls := markers[marker]
		providers := map[string]provider{}
		for name, pointer := range impls {
			providers[name] = provider{pointer: pointer}
		}
		for _, name := range names {
			providers[name] = provider{}
		}

		// Each round settles at least one more level of embedding.
		for range decls {
			changed := false
			for _, td := range decls {
				name := td.spec.Name.Name
				st, ok := td.spec.Type.(*ast.StructType)
				if !ok {
					continue
				}
				if _, direct := impls[name]; direct {
					continue
				}
				p, ok := promotedBy(st, providers)
				if !ok {
					if _, seen := providers[name]; seen {
						delete(providers, name)
						changed = true
					}
					continue
				}
				if prev, seen := providers[name]; !seen || prev != p {
					providers[name] = p
					changed = true
				}
			}
			if !changed {
				break
			}
		}

		for name, p := range providers {
			if p.depth > 0 {
				impls[name] = p.pointer
			}
		}
	}
}

// promotedBy finds the shallowest embedded field of st that provides the
// method.
func promotedBy(st *ast.StructType, providers map[string]provider) (provider, bool) {
	best, count := provider{}, 0
	for _, f := range st.Fields.List {
		if len(f.Names) != 0 {
			continue
		}
		typ, star := f.Type, false
		if s, ok := typ.(*ast.StarExpr); ok {
			typ, star = s.X, true
		}
		id, ok := typ.(*ast.Ident)
		if !ok {
			continue
		}
		via, ok := providers[id.Name]
		if !ok {
			continue
		}
		p := provider{depth: via.depth + 1, pointer: via.pointer && !star}
		switch {
		case count == 0 || p.depth < best.depth:
			best, count = p, 1
		case p.depth == best.depth:
			count++
		}
	}
	return best, count == 1
}

// define builds the definition of one annotated declaration.
func define(td typeDecl, pos diag.Position, markers map[string]map[string]bool, byName map[string]typeDecl, decls []typeDecl) (*typedef.TypeDefinition, error) {
	name := td.spec.Name.Name
	invalid := diag.New(diag.KindInvalidDefinition).Type(name).At(pos)

	if td.spec.TypeParams != nil && len(td.spec.TypeParams.List) > 0 {
		return nil, invalid.Detail("generic types are not supported").Build()
	}

	def := &typedef.TypeDefinition{Name: name, Pos: pos}
	if td.spec.Assign.IsValid() {
		def.Kind = typedef.KindUnion
		def.Detail = "type alias"
		return def, nil
	}

	switch t := td.spec.Type.(type) {
	case *ast.StructType:
		def.Kind = typedef.KindRecord
		for _, f := range fieldNames(t) {
			def.Fields = append(def.Fields, typedef.Field{Name: f})
		}
	case *ast.ArrayType:
		if t.Len == nil {
			def.Kind = typedef.KindUnion
			def.Detail = "slice type"
			return def, nil
		}
		n, err := arrayLen(t.Len)
		if err != nil {
			return nil, invalid.Cause(err).Detail("array length must be an integer literal").Build()
		}
		def.Kind = typedef.KindRecord
		def.Positional = n
	case *ast.InterfaceType:
		marker, ok := markerOf(t)
		if !ok {
			return nil, invalid.Detail("interface has no unexported marker method").Build()
		}
		def.Kind = typedef.KindTaggedUnion
		impls := markers[marker]
		for _, v := range decls {
			pointer, ok := impls[v.spec.Name.Name]
			if !ok {
				continue
			}
			def.Variants = append(def.Variants, typedef.Variant{
				Name:    v.spec.Name.Name,
				Payload: payloadOf(byName[v.spec.Name.Name].spec),
				Pointer: pointer,
			})
		}
	default:
		def.Kind = typedef.KindUnion
		def.Detail = fmt.Sprintf("%s has no tag layout", exprKind(td.spec.Type))
	}
	return def, nil
}

// fieldNames lists a struct's field names in order. Blank fields carry no
// tag; embedded fields are named after their type.
func fieldNames(st *ast.StructType) []string {
	var names []string
	for _, f := range st.Fields.List {
		if len(f.Names) == 0 {
			if n := embeddedName(f.Type); n != "" {
				names = append(names, n)
			}
			continue
		}
		for _, id := range f.Names {
			if id.Name == "_" {
				continue
			}
			names = append(names, id.Name)
		}
	}
	return names
}

func embeddedName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return embeddedName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.IndexExpr:
		return embeddedName(t.X)
	case *ast.IndexListExpr:
		return embeddedName(t.X)
	}
	return ""
}

// payloadOf describes the data a variant type carries.
func payloadOf(spec *ast.TypeSpec) typedef.Payload {
	st, ok := spec.Type.(*ast.StructType)
	if !ok {
		return typedef.Payload{Kind: typedef.PayloadPositional, Count: 1}
	}
	names := fieldNames(st)
	if len(names) == 0 {
		return typedef.Payload{Kind: typedef.PayloadNone}
	}
	return typedef.Payload{Kind: typedef.PayloadNamed, Fields: names}
}

func arrayLen(expr ast.Expr) (int, error) {
	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.INT {
		return 0, fmt.Errorf("length %s is not a literal", exprKind(expr))
	}
	n, err := strconv.ParseInt(lit.Value, 0, 64)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// markerOf finds the sealing method of an interface.
func markerOf(it *ast.InterfaceType) (string, bool) {
	for _, m := range it.Methods.List {
		ft, ok := m.Type.(*ast.FuncType)
		if !ok || len(m.Names) != 1 {
			continue
		}
		if isMarker(m.Names[0].Name, ft) {
			return m.Names[0].Name, true
		}
	}
	return "", false
}

func isMarker(name string, ft *ast.FuncType) bool {
	if ast.IsExported(name) || name == "_" {
		return false
	}
	if ft.Params != nil && len(ft.Params.List) > 0 {
		return false
	}
	return ft.Results == nil || len(ft.Results.List) == 0
}

// receiver returns the receiver type name of a method and whether it is a
// pointer receiver.
func receiver(fd *ast.FuncDecl) (string, bool, bool) {
	if fd.Recv == nil || len(fd.Recv.List) != 1 {
		return "", false, false
	}
	expr := fd.Recv.List[0].Type
	pointer := false
	if star, ok := expr.(*ast.StarExpr); ok {
		pointer = true
		expr = star.X
	}
	switch t := expr.(type) {
	case *ast.IndexExpr:
		expr = t.X
	case *ast.IndexListExpr:
		expr = t.X
	}
	id, ok := expr.(*ast.Ident)
	if !ok {
		return "", false, false
	}
	return id.Name, pointer, true
}

func exprKind(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return "type " + t.Name
	case *ast.SelectorExpr:
		return "type " + embeddedName(t)
	case *ast.MapType:
		return "map type"
	case *ast.FuncType:
		return "func type"
	case *ast.ChanType:
		return "chan type"
	case *ast.StarExpr:
		return "pointer type"
	case *ast.ArrayType:
		return "array type"
	case *ast.BasicLit:
		return t.Value
	}
	return fmt.Sprintf("%T", expr)
}

func position(fset *token.FileSet, pos token.Pos) diag.Position {
	p := fset.Position(pos)
	return diag.Position{File: p.Filename, Line: p.Line, Column: p.Column}
}
