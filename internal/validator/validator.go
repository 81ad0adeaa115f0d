// Package validator decodes YAML files and validates them against their
// `validate` struct tags.
package validator

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	playground "github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var (
	instance *playground.Validate
	once     sync.Once
)

func get() *playground.Validate {
	once.Do(func() {
		instance = playground.New()
	})
	return instance
}

// Struct validates v against its validate tags.
func Struct(v any) error {
	return get().Struct(v)
}

// FieldError is the first failing field of a validation error.
type FieldError struct {
	// Namespace is the path of the field, e.g. "File.Types[2].Name".
	Namespace string
	// Tag is the failing validation tag, e.g. "required".
	Tag string
}

// First returns the first field that failed validation in err.
func First(err error) (FieldError, bool) {
	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return FieldError{}, false
	}
	return FieldError{Namespace: verrs[0].Namespace(), Tag: verrs[0].Tag()}, true
}

// Describe rewrites a validation error as one line per failing field.
func Describe(err error) error {
	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg += " (" + fe.Param() + ")"
		}
		msgs = append(msgs, msg)
	}
	return errors.New(strings.Join(msgs, "; "))
}

// DecodeFile reads the YAML file at filename into v, rejecting unknown keys,
// and validates the result. An empty file leaves v unchanged.
func DecodeFile(filename string, v any) error {
	data, err := os.ReadFile(filepath.Clean(filename))
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	if err := Struct(v); err != nil {
		return fmt.Errorf("%s: %w", filename, Describe(err))
	}
	return nil
}
