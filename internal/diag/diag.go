// Package diag defines the diagnostics unitgen attaches to a type declaration
// when it refuses to derive a companion for it.
package diag

import (
	"fmt"
	"strings"
)

// Kind categorizes a diagnostic.
type Kind string

const (
	// KindUnsupportedShape reports a raw (untagged) union or another shape with
	// no tag layout.
	KindUnsupportedShape Kind = "unsupported_shape"
	// KindCapacityExceeded reports more tags than the widest bit-flag word holds.
	KindCapacityExceeded Kind = "capacity_exceeded"
	// KindDuplicateTag reports two variants or fields that derive the same tag.
	KindDuplicateTag Kind = "duplicate_tag"
	// KindInvalidTag reports a derived tag that is not a Go identifier.
	KindInvalidTag Kind = "invalid_tag"
	// KindArmMismatch reports a tag accessor that does not cover every variant.
	KindArmMismatch Kind = "arm_mismatch"
	// KindInvalidDefinition reports a malformed type definition.
	KindInvalidDefinition Kind = "invalid_definition"
)

// Position locates a declaration in its source.
type Position struct {
	File   string `yaml:"file,omitempty"`
	Line   int    `yaml:"line,omitempty"`
	Column int    `yaml:"column,omitempty"`
}

// IsValid reports whether the position carries a line.
func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	switch {
	case p.File == "" && !p.IsValid():
		return "-"
	case !p.IsValid():
		return p.File
	case p.Column > 0:
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	default:
		return fmt.Sprintf("%s:%d", p.File, p.Line)
	}
}

// Error is a fatal diagnostic for one declaration.
type Error struct {
	Kind   Kind
	Type   string
	Pos    Position
	Detail string
	Cause  error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	if e.Pos.File != "" || e.Pos.IsValid() {
		b.WriteString(e.Pos.String())
		b.WriteString(": ")
	}
	b.WriteString(e.Message())
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

// Message returns the diagnostic without its position, as reported at the
// declaration by the analyzer.
func (e *Error) Message() string {
	var b strings.Builder
	b.WriteString(strings.ReplaceAll(string(e.Kind), "_", " "))
	if e.Type != "" {
		b.WriteString(" in ")
		b.WriteString(e.Type)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a diagnostic of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is.
var (
	ErrUnsupportedShape  = &Error{Kind: KindUnsupportedShape}
	ErrCapacityExceeded  = &Error{Kind: KindCapacityExceeded}
	ErrDuplicateTag      = &Error{Kind: KindDuplicateTag}
	ErrInvalidTag        = &Error{Kind: KindInvalidTag}
	ErrArmMismatch       = &Error{Kind: KindArmMismatch}
	ErrInvalidDefinition = &Error{Kind: KindInvalidDefinition}
)

// Builder provides structured diagnostic construction
type Builder struct {
	err Error
}

// New creates a new diagnostic builder
func New(kind Kind) *Builder {
	return &Builder{err: Error{Kind: kind}}
}

// Type sets the offending type name
func (b *Builder) Type(name string) *Builder {
	b.err.Type = name
	return b
}

// At sets the declaration position
func (b *Builder) At(pos Position) *Builder {
	b.err.Pos = pos
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed diagnostic
func (b *Builder) Build() *Error {
	e := b.err
	return &e
}
