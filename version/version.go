// Package version implements the dotted "parts" version grammar and the
// version-range algebra used to express and satisfy implementation
// dependencies.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Modifier ranks a version Part. Pre-releases sort before a plain
// release, which sorts before a post-release.
type Modifier int

const (
	ModifierPre  Modifier = -2
	ModifierRC   Modifier = -1
	ModifierNone Modifier = 0
	ModifierPost Modifier = 1
)

func (m Modifier) String() string {
	switch m {
	case ModifierPre:
		return "pre"
	case ModifierRC:
		return "rc"
	case ModifierPost:
		return "post"
	default:
		return ""
	}
}

// token is a single dotted component of a Part's integer list. It is
// either a concrete integer or an unresolved "{name}" template
// placeholder.
type token struct {
	template string // non-empty iff this token is a placeholder
	n        int
}

func (t token) isTemplate() bool { return t.template != "" }

func (t token) String() string {
	if t.isTemplate() {
		return "{" + t.template + "}"
	}
	return strconv.Itoa(t.n)
}

// Part is one dash-separated segment of a Version: an optional modifier
// keyword followed by a dotted list of integers (or templates).
type Part struct {
	Modifier Modifier
	Tokens   []token
}

func (p Part) String() string {
	sb := &strings.Builder{}
	sb.WriteString(p.Modifier.String())
	for i, t := range p.Tokens {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}

// Version is an ordered sequence of Parts. The zero Version is
// "unspecified" and compares unequal to every parsed version.
type Version struct {
	Parts []Part
	// raw holds the original source text given to Parse. String does
	// not use it; it prints the canonical form built from Parts.
	raw      string
	hasParts bool // distinguishes the zero value from "Parse(\"\")"
}

// ErrSyntax is returned when a version string does not match the grammar.
type ErrSyntax struct {
	Input string
}

func (e *ErrSyntax) Error() string {
	return fmt.Sprintf("version: invalid syntax: %q", e.Input)
}

var modifierPrefixes = []struct {
	text string
	mod  Modifier
}{
	// Longest-prefix-first so "pre" is never swallowed by a shorter match.
	{"post", ModifierPost},
	{"pre", ModifierPre},
	{"rc", ModifierRC},
}

// Parse parses a version string. The first part carries no modifier
// prefix; subsequent parts are separated by "-" and may begin with one
// of "pre", "rc" or "post" (otherwise they implicitly carry modifier 0,
// which is how a plain "-<n>" suffix adds precision without declaring a
// pre/post release).
func Parse(input string) (Version, error) {
	if input == "" {
		return Version{}, &ErrSyntax{Input: input}
	}

	rawParts := strings.Split(input, "-")
	parts := make([]Part, 0, len(rawParts))
	for i, raw := range rawParts {
		mod := ModifierNone
		rest := raw
		if i > 0 {
			for _, mp := range modifierPrefixes {
				if strings.HasPrefix(raw, mp.text) {
					mod = mp.mod
					rest = raw[len(mp.text):]
					break
				}
			}
		}

		var tokens []token
		if rest != "" {
			for _, field := range strings.Split(rest, ".") {
				tok, err := parseToken(field)
				if err != nil {
					return Version{}, &ErrSyntax{Input: input}
				}
				tokens = append(tokens, tok)
			}
		}

		parts = append(parts, Part{Modifier: mod, Tokens: tokens})
	}

	return Version{Parts: parts, raw: input, hasParts: true}, nil
}

// MustParse parses input and panics if it is not a valid version.
func MustParse(input string) Version {
	v, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return v
}

func parseToken(field string) (token, error) {
	if field == "" {
		return token{}, fmt.Errorf("empty version component")
	}
	if strings.HasPrefix(field, "{") && strings.HasSuffix(field, "}") {
		name := field[1 : len(field)-1]
		if name == "" {
			return token{}, fmt.Errorf("empty template placeholder")
		}
		return token{template: name}, nil
	}

	n, err := strconv.Atoi(field)
	if err != nil {
		return token{}, err
	}
	return token{n: n}, nil
}

// Unspecified reports whether v is the zero Version (no version set).
func (v Version) Unspecified() bool {
	return !v.hasParts
}

// HasTemplate reports whether v contains any "{name}" placeholder. Such
// versions are unordered: only equality is well-defined for them.
func (v Version) HasTemplate() bool {
	for _, p := range v.Parts {
		for _, t := range p.Tokens {
			if t.isTemplate() {
				return true
			}
		}
	}
	return false
}

// String returns the canonical textual form of v.
func (v Version) String() string {
	if v.Unspecified() {
		return ""
	}
	sb := &strings.Builder{}
	for i, p := range v.Parts {
		if i > 0 {
			sb.WriteByte('-')
		}
		sb.WriteString(p.String())
	}
	return sb.String()
}

// ErrUnordered is returned by Compare when either operand contains a
// template placeholder, since such versions have no defined ordering.
var ErrUnordered = fmt.Errorf("version: template placeholders have no defined ordering")

// Compare returns -1, 0 or 1 according to whether a sorts before, equal
// to, or after b. It fails with ErrUnordered if either version contains
// a template placeholder.
func Compare(a, b Version) (int, error) {
	if a.HasTemplate() || b.HasTemplate() {
		return 0, ErrUnordered
	}

	n := len(a.Parts)
	if len(b.Parts) > n {
		n = len(b.Parts)
	}
	for i := 0; i < n; i++ {
		pa := partAt(a, i)
		pb := partAt(b, i)

		if pa.Modifier != pb.Modifier {
			if pa.Modifier < pb.Modifier {
				return -1, nil
			}
			return 1, nil
		}

		if c := compareTokens(pa.Tokens, pb.Tokens); c != 0 {
			return c, nil
		}
	}
	return 0, nil
}

// partAt returns the Part at index i, or the implicit {ModifierNone,
// nil} part for a Version that is shorter than i.
func partAt(v Version, i int) Part {
	if i < len(v.Parts) {
		return v.Parts[i]
	}
	return Part{Modifier: ModifierNone}
}

// compareTokens compares two dotted integer lists with no zero-padding:
// a shorter list sorts before a longer list that shares its prefix,
// regardless of the trailing values.
func compareTokens(a, b []token) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i].n != b[i].n {
			if a[i].n < b[i].n {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Equal reports whether a and b are the same version. Unlike Compare,
// Equal is defined even when a or b contains a template placeholder: a
// placeholder only equals another placeholder of the same name.
func Equal(a, b Version) bool {
	if a.Unspecified() || b.Unspecified() {
		return a.Unspecified() == b.Unspecified()
	}
	if len(a.Parts) != len(b.Parts) {
		return false
	}
	for i := range a.Parts {
		pa, pb := a.Parts[i], b.Parts[i]
		if pa.Modifier != pb.Modifier || len(pa.Tokens) != len(pb.Tokens) {
			return false
		}
		for j := range pa.Tokens {
			ta, tb := pa.Tokens[j], pb.Tokens[j]
			if ta.isTemplate() || tb.isTemplate() {
				if ta.template != tb.template {
					return false
				}
				continue
			}
			if ta.n != tb.n {
				return false
			}
		}
	}
	return true
}

// GreaterThan reports whether a sorts strictly after b. Templated
// versions are never greater than anything.
func (a Version) GreaterThan(b Version) bool {
	c, err := Compare(a, b)
	return err == nil && c > 0
}

// LessThan reports whether a sorts strictly before b.
func (a Version) LessThan(b Version) bool {
	c, err := Compare(a, b)
	return err == nil && c < 0
}
