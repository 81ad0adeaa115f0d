package generator

import (
	"fmt"
	"go/token"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gork-labs/unitgen/internal/diag"
	"github.com/gork-labs/unitgen/internal/typedef"
)

// PositionalPrefix starts the synthesized tag of a positional field.
const PositionalPrefix = "F"

// Tag is a derived tag identifier.
type Tag struct {
	Name  string
	Index int
	// Source is the variant or field the tag was derived from.
	Source string
}

// TagSet is an ordered set of tags, in declaration order.
type TagSet []Tag

// Names returns the tag names in order.
func (ts TagSet) Names() []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return out
}

// NameTags derives one tag per variant or field of def. The result is checked
// for duplicates and for names that are not Go identifiers.
func NameTags(def *typedef.TypeDefinition, shape Shape) (TagSet, error) {
	var tags TagSet
	switch shape {
	case ShapeTaggedUnion:
		tags = make(TagSet, len(def.Variants))
		for i, v := range def.Variants {
			tags[i] = Tag{Name: v.Name, Index: i, Source: v.Name}
		}
	case ShapeNamedRecord:
		caser := cases.Title(language.Und, cases.NoLower)
		tags = make(TagSet, len(def.Fields))
		for i, f := range def.Fields {
			tags[i] = Tag{Name: titleCase(caser, f.Name), Index: i, Source: f.Name}
		}
	case ShapePositionalRecord:
		tags = make(TagSet, def.Positional)
		for i := range tags {
			name := PositionalTag(i)
			tags[i] = Tag{Name: name, Index: i, Source: strconv.Itoa(i)}
		}
	}
	if err := checkTags(def, tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// PositionalTag returns the tag of the positional field at index i.
func PositionalTag(i int) string {
	return PositionalPrefix + strconv.Itoa(i)
}

// TitleCase rewrites a field name so it reads as an enumeration member: each
// word starts upper case and separators are dropped. The rest of each word is
// kept, so Go initialisms survive ("userID" -> "UserID", "user_id" -> "UserId").
func TitleCase(name string) string {
	return titleCase(cases.Title(language.Und, cases.NoLower), name)
}

// titleCase takes the caser from its caller; a Caser must not be shared
// between goroutines.
func titleCase(caser cases.Caser, name string) string {
	var b strings.Builder
	for _, word := range splitWords(name) {
		b.WriteString(caser.String(word))
	}
	return b.String()
}

func splitWords(name string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	var prev rune
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || r == '.' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return words
}

func checkTags(def *typedef.TypeDefinition, tags TagSet) error {
	seen := make(map[string]Tag, len(tags))
	for _, t := range tags {
		if !token.IsIdentifier(t.Name) {
			return diag.New(diag.KindInvalidTag).
				Type(def.Name).
				At(def.Pos).
				Detail("%q derives tag %q, which is not an identifier", t.Source, t.Name).
				Build()
		}
		if prev, dup := seen[t.Name]; dup {
			return diag.New(diag.KindDuplicateTag).
				Type(def.Name).
				At(def.Pos).
				Detail("%q and %q both derive tag %q", prev.Source, t.Source, t.Name).
				Build()
		}
		seen[t.Name] = t
	}
	return nil
}

// checkDeclarations rejects a fragment whose generated identifiers collide
// with each other or with the types they derive from. Members share the
// companion's prefix with its helpers: a field named "values" derives
// <Companion>Values, which is also the name of the member listing.
func checkDeclarations(def *typedef.TypeDefinition, tags TagSet, frag *Fragment) error {
	out := frag.Output
	owners := map[string]string{}
	reserve := func(name, owner string) error {
		if prev, dup := owners[name]; dup {
			return diag.New(diag.KindInvalidDefinition).
				Type(def.Name).
				At(def.Pos).
				Detail("%s and %s are both named %s", prev, owner, name).
				Build()
		}
		owners[name] = owner
		return nil
	}

	reserved := [][2]string{{def.Name, "type " + def.Name}}
	for _, v := range def.Variants {
		reserved = append(reserved, [2]string{v.Name, "variant " + v.Name})
	}
	reserved = append(reserved,
		[2]string{out.Name, "the companion type"},
		[2]string{out.Values, "the member listing"},
		[2]string{out.Table, "the tag name table"},
	)
	if frag.Accessor != nil {
		reserved = append(reserved, [2]string{frag.Accessor.Name, "the accessor"})
	}
	if frag.Conversion != nil {
		reserved = append(reserved, [2]string{frag.Conversion.Name, "the conversion"})
	}
	for _, r := range reserved {
		if err := reserve(r[0], r[1]); err != nil {
			return err
		}
	}

	for i, m := range out.Members {
		if owner, dup := owners[m.Ident]; dup {
			return diag.New(diag.KindDuplicateTag).
				Type(def.Name).
				At(def.Pos).
				Detail("%q derives member %s, which collides with %s", tags[i].Source, m.Ident, owner).
				Build()
		}
		owners[m.Ident] = fmt.Sprintf("member %s", m.Ident)
	}
	return nil
}
