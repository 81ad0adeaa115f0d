package extractor

import (
	"fmt"
	"go/ast"
	"go/token"
	"strings"

	"github.com/gork-labs/unitgen/internal/typedef"
)

// Directive marks a type declaration for unitgen.
const Directive = "//unitgen:derive"

// findDirective returns the directive line from a declaration's doc comments.
// The TypeSpec doc wins over the GenDecl doc of a grouped declaration.
func findDirective(docs ...*ast.CommentGroup) (*ast.Comment, bool) {
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for _, c := range doc.List {
			if c.Text == Directive || strings.HasPrefix(c.Text, Directive+" ") {
				return c, true
			}
		}
	}
	return nil, false
}

// ParseDirective parses the options of a directive line such as
// `//unitgen:derive bitflags,serialize,name=ShapeTag`.
// Items are comma-separated. Recognised items: bitflags, plain, serialize,
// noserialize and name=<Ident>.
func ParseDirective(text string) (*typedef.Options, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(text, Directive))
	if rest == "" {
		return nil, nil
	}

	opts := &typedef.Options{}
	for _, p := range strings.Split(rest, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if kv := strings.SplitN(p, "=", 2); len(kv) == 2 {
			key := strings.TrimSpace(kv[0])
			val := strings.TrimSpace(kv[1])
			switch key {
			case "name":
				if val == "" {
					return nil, fmt.Errorf("empty name in %q", text)
				}
				if !token.IsIdentifier(val) {
					return nil, fmt.Errorf("name %q is not an identifier", val)
				}
				opts.Name = val
			default:
				return nil, fmt.Errorf("unknown option %q", key)
			}
			continue
		}
		switch p {
		case "bitflags":
			opts.BitFlags = boolPtr(true)
		case "plain":
			opts.BitFlags = boolPtr(false)
		case "serialize":
			opts.Serialize = boolPtr(true)
		case "noserialize":
			opts.Serialize = boolPtr(false)
		default:
			return nil, fmt.Errorf("unknown option %q", p)
		}
	}
	return opts, nil
}

func boolPtr(b bool) *bool {
	return &b
}
