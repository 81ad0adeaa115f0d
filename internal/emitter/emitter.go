// Package emitter renders generator fragments as Go source files.
package emitter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/gork-labs/unitgen/internal/generator"
)

// FlagsetImport is the import path generated bit-flag code depends on.
const FlagsetImport = "github.com/gork-labs/unitgen/pkg/flagset"

// DefaultSuffix replaces ".go" in a source file name to name its generated
// companion file.
const DefaultSuffix = "_unit_gen.go"

var (
	header    = template.Must(template.New("header").Parse(headerTemplate))
	fragments = template.Must(template.New("fragment").Parse(fragmentTemplate))
)

// Emitter renders fragments for one Go package.
type Emitter struct {
	packageName string
}

// New creates an emitter for the named package.
func New(packageName string) *Emitter {
	return &Emitter{packageName: packageName}
}

// fragmentData is what the fragment template sees.
type fragmentData struct {
	Out  *generator.OutputType
	Acc  *generator.Accessor
	Conv *generator.Conversion

	Native bool
	Flags  bool

	Equal     bool
	Order     bool
	Debug     bool
	Enumerate bool
	Algebra   bool
	Serialize bool
}

func newFragmentData(frag *generator.Fragment) fragmentData {
	return fragmentData{
		Out:       frag.Output,
		Acc:       frag.Accessor,
		Conv:      frag.Conversion,
		Native:    frag.Output.Width.Native(),
		Flags:     frag.Output.Repr == generator.ReprBitFlags,
		Equal:     frag.Has(generator.CapEqual),
		Order:     frag.Has(generator.CapOrder),
		Debug:     frag.Has(generator.CapDebug),
		Enumerate: frag.Has(generator.CapEnumerate),
		Algebra:   frag.Has(generator.CapFlagAlgebra),
		Serialize: frag.Has(generator.CapSerialize),
	}
}

// RenderFragment renders the declarations of one fragment, without package
// clause or imports. Empty fragments render as "".
func (e *Emitter) RenderFragment(frag *generator.Fragment) (string, error) {
	if frag == nil || frag.Empty || frag.Output == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := fragments.Execute(&buf, newFragmentData(frag)); err != nil {
		return "", fmt.Errorf("failed to execute template for %s: %w", frag.Source, err)
	}
	return buf.String(), nil
}

// Render renders a complete, formatted Go file holding frags. It returns nil
// when every fragment is empty: there is nothing to write.
func (e *Emitter) Render(frags []*generator.Fragment) ([]byte, error) {
	var body bytes.Buffer
	for _, frag := range frags {
		code, err := e.RenderFragment(frag)
		if err != nil {
			return nil, err
		}
		if code == "" {
			continue
		}
		body.WriteString("\n")
		body.WriteString(code)
		body.WriteString("\n")
	}
	if body.Len() == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	data := struct {
		Package string
		Imports []string
	}{
		Package: e.packageName,
		Imports: importsFor(frags),
	}
	if err := header.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute header template: %w", err)
	}
	buf.Write(body.Bytes())

	formatted, err := imports.Process("", buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return buf.Bytes(), fmt.Errorf("failed to format generated code: %w", err)
	}
	return formatted, nil
}

// GenerateFile renders frags and writes them to outputPath. When formatting
// fails the unformatted source is written next to it with a .debug suffix.
// It reports whether a file was written.
func (e *Emitter) GenerateFile(frags []*generator.Fragment, outputPath string) (bool, error) {
	src, err := e.Render(frags)
	if err != nil {
		if src != nil {
			_ = writeFile(outputPath+".debug", src)
		}
		return false, err
	}
	if src == nil {
		return false, nil
	}
	if err := writeFile(outputPath, src); err != nil {
		return false, fmt.Errorf("failed to write file: %w", err)
	}
	return true, nil
}

// OutputPath returns the generated file for sourceFile: "shapes.go" becomes
// "shapes_unit_gen.go" with the default suffix.
func OutputPath(sourceFile, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return strings.TrimSuffix(sourceFile, ".go") + suffix
}

// importsFor lists the imports frags need, standard library first, with ""
// separating the groups.
func importsFor(frags []*generator.Fragment) []string {
	std := map[string]bool{}
	needFlagset := false
	for _, frag := range frags {
		if frag == nil || frag.Empty || frag.Output == nil {
			continue
		}
		out := frag.Output
		flags := out.Repr == generator.ReprBitFlags
		if out.Width.Native() && frag.Has(generator.CapOrder) {
			std["cmp"] = true
		}
		if !flags && frag.Has(generator.CapDebug) {
			std["strconv"] = true
		}
		if frag.Has(generator.CapSerialize) || frag.Accessor != nil {
			std["fmt"] = true
		}
		if flags || !out.Width.Native() {
			needFlagset = true
		}
	}

	var list []string
	for p := range std {
		list = append(list, p)
	}
	sort.Strings(list)
	if needFlagset {
		if len(list) > 0 {
			list = append(list, "")
		}
		list = append(list, FlagsetImport)
	}
	return list
}

// writeFile writes content to a file, creating directories if necessary
func writeFile(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return os.WriteFile(path, content, 0o644)
}
