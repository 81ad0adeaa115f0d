package emitter

const headerTemplate = `// Code generated by unitgen. DO NOT EDIT.

package {{.Package}}
{{- if .Imports}}

import (
{{- range .Imports}}
	{{if eq . "" -}}{{else}}"{{.}}"{{end}}
{{- end}}
)
{{- end}}
`

const fragmentTemplate = `
{{- define "members" -}}
{{- if .Native}}

const (
{{- range $i, $m := .Out.Members}}
	{{$m.Ident}}{{if eq $i 0}} {{$.Out.Name}} = {{if $.Flags}}1 << iota{{else}}iota{{end}}{{end}}
{{- end}}
)
{{- else}}

var (
{{- range .Out.Members}}
	{{.Ident}} = {{$.Out.Name}}(flagset.Bit({{.Index}}))
{{- end}}
)
{{- end}}
{{- end -}}

{{- define "bits" -}}
{{- if .Native}}flagset.FromUint64(uint64(u)){{else}}flagset.Bits(u){{end -}}
{{- end -}}

// {{.Out.Doc}}
type {{.Out.Name}} {{.Out.Width.GoType}}
{{template "members" .}}

var {{.Out.Table}} = [...]string{
{{- range .Out.Members}}
	{{printf "%q" .Tag}},
{{- end}}
}
{{- if .Enumerate}}

// {{.Out.Values}} returns every [{{.Out.Name}}] member in declaration order.
func {{.Out.Values}}() []{{.Out.Name}} {
	return []{{.Out.Name}}{
{{- range .Out.Members}}
		{{.Ident}},
{{- end}}
	}
}
{{- end}}
{{- if .Equal}}

// Equal reports whether u and o are the same value.
func (u {{.Out.Name}}) Equal(o {{.Out.Name}}) bool {
	return u == o
}
{{- end}}
{{- if .Order}}

// Compare orders values by declaration order of their tags.
func (u {{.Out.Name}}) Compare(o {{.Out.Name}}) int {
{{- if .Native}}
	return cmp.Compare(u, o)
{{- else}}
	return flagset.Bits(u).Compare(flagset.Bits(o))
{{- end}}
}
{{- end}}
{{- if .Debug}}
{{- if .Flags}}

// String returns the names of the tags set in u, joined by " | ".
func (u {{.Out.Name}}) String() string {
	return {{template "bits" .}}.Format({{.Out.Table}}[:])
}

// GoString returns u in Go syntax.
func (u {{.Out.Name}}) GoString() string {
	return "{{.Out.Name}}(" + u.String() + ")"
}
{{- else}}

// String returns the tag name of u.
func (u {{.Out.Name}}) String() string {
	if int(u) < len({{.Out.Table}}) {
		return {{.Out.Table}}[u]
	}
	return "{{.Out.Name}}(" + strconv.FormatUint(uint64(u), 10) + ")"
}

// GoString returns the Go identifier of u.
func (u {{.Out.Name}}) GoString() string {
	if int(u) < len({{.Out.Table}}) {
		return "{{.Out.Name}}" + {{.Out.Table}}[u]
	}
	return "{{.Out.Name}}(" + strconv.FormatUint(uint64(u), 10) + ")"
}
{{- end}}
{{- end}}
{{- if .Algebra}}
{{- if .Native}}

// Union returns the tags set in u or o.
func (u {{.Out.Name}}) Union(o {{.Out.Name}}) {{.Out.Name}} {
	return u | o
}

// Difference returns the tags set in u and not in o.
func (u {{.Out.Name}}) Difference(o {{.Out.Name}}) {{.Out.Name}} {
	return u &^ o
}

// Intersection returns the tags set in both u and o.
func (u {{.Out.Name}}) Intersection(o {{.Out.Name}}) {{.Out.Name}} {
	return u & o
}

// Contains reports whether every tag set in o is also set in u.
func (u {{.Out.Name}}) Contains(o {{.Out.Name}}) bool {
	return u&o == o
}

// IsEmpty reports whether no tag is set.
func (u {{.Out.Name}}) IsEmpty() bool {
	return u == 0
}
{{- else}}

// Union returns the tags set in u or o.
func (u {{.Out.Name}}) Union(o {{.Out.Name}}) {{.Out.Name}} {
	return {{.Out.Name}}(flagset.Bits(u).Or(flagset.Bits(o)))
}

// Difference returns the tags set in u and not in o.
func (u {{.Out.Name}}) Difference(o {{.Out.Name}}) {{.Out.Name}} {
	return {{.Out.Name}}(flagset.Bits(u).AndNot(flagset.Bits(o)))
}

// Intersection returns the tags set in both u and o.
func (u {{.Out.Name}}) Intersection(o {{.Out.Name}}) {{.Out.Name}} {
	return {{.Out.Name}}(flagset.Bits(u).And(flagset.Bits(o)))
}

// Contains reports whether every tag set in o is also set in u.
func (u {{.Out.Name}}) Contains(o {{.Out.Name}}) bool {
	return flagset.Bits(u).And(flagset.Bits(o)) == flagset.Bits(o)
}

// IsEmpty reports whether no tag is set.
func (u {{.Out.Name}}) IsEmpty() bool {
	return flagset.Bits(u).IsZero()
}
{{- end}}
{{- end}}
{{- if .Serialize}}
{{- if .Flags}}

// MarshalText encodes u as the names of its tags joined by " | ". Bits
// without a name are kept as a hexadecimal literal.
func (u {{.Out.Name}}) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText decodes the form written by MarshalText into u.
func (u *{{.Out.Name}}) UnmarshalText(text []byte) error {
	b, err := flagset.Parse(string(text), {{.Out.Table}}[:], {{.Out.Width}})
	if err != nil {
		return fmt.Errorf("{{.Out.Name}}: %w", err)
	}
	*u = {{.Out.Name}}({{if .Native}}b.Uint64(){{else}}b{{end}})
	return nil
}
{{- else}}

// MarshalText encodes u as its tag name.
func (u {{.Out.Name}}) MarshalText() ([]byte, error) {
	if int(u) >= len({{.Out.Table}}) {
		return nil, fmt.Errorf("{{.Out.Name}}: invalid value %d", uint64(u))
	}
	return []byte({{.Out.Table}}[u]), nil
}

// UnmarshalText decodes a tag name into u.
func (u *{{.Out.Name}}) UnmarshalText(text []byte) error {
	for i, name := range {{.Out.Table}} {
		if name == string(text) {
			*u = {{.Out.Name}}(i)
			return nil
		}
	}
	return fmt.Errorf("{{.Out.Name}}: unknown tag %q", text)
}
{{- end}}
{{- end}}
{{- with .Acc}}

// {{.Doc}}
func {{.Name}}(v {{.Source}}) {{.Output}} {
	switch v.(type) {
{{- range .Arms}}
	case {{if .Pointer}}*{{.Variant}}{{else}}{{.Variant}}, *{{.Variant}}{{end}}:
		return {{.Member}}
{{- end}}
	}
	panic(fmt.Sprintf("{{.Name}}: %T is not a variant of {{.Source}}", v))
}
{{- end}}
{{- with .Conv}}

// {{.Doc}}
func {{.Name}}(v {{.Source}}) {{.Output}} {
	return {{.Calls}}(v)
}
{{- end}}
`
