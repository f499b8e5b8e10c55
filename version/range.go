package version

import (
	"fmt"
	"strings"
)

// partKind identifies which alternative of the range grammar a Range
// part is.
type partKind int

const (
	kindExact partKind = iota
	kindExclude
	kindInterval
)

type rangePart struct {
	kind partKind
	v    Version  // exact, exclude
	lo   *Version // interval: nil means unbounded below
	hi   *Version // interval: nil means unbounded above; always exclusive
}

// Range is a disjunction ("|"-separated alternatives) of version-range
// parts. The zero Range is universal: it matches every version. A
// distinguished Empty value matches no version at all; it cannot be
// produced by Parse and only ever arises from Intersect.
type Range struct {
	parts []rangePart
	empty bool
}

// Empty is the distinguished version range that matches nothing.
var Empty = Range{empty: true}

// ErrNotSupported is returned by Intersect when the two ranges'
// intersection cannot be expressed as a finite union of the supported
// part kinds (exact, exclude, half-open interval). Callers should treat
// this as a universal refusal to combine the two ranges.
var ErrNotSupported = fmt.Errorf("version: range intersection not supported")

// ParseRange parses a version-range expression.
func ParseRange(input string) (Range, error) {
	if input == "" {
		return Range{}, nil
	}

	var parts []rangePart
	for _, raw := range strings.Split(input, "|") {
		p, err := parseRangePart(raw)
		if err != nil {
			return Range{}, err
		}
		parts = append(parts, p)
	}
	return Range{parts: parts}, nil
}

func parseRangePart(raw string) (rangePart, error) {
	if raw == "" {
		return rangePart{}, &ErrSyntax{Input: raw}
	}

	if idx := strings.Index(raw, ".."); idx >= 0 {
		loText := raw[:idx]
		hiText := raw[idx+2:]

		var lo, hi *Version
		if loText != "" {
			v, err := Parse(loText)
			if err != nil {
				return rangePart{}, err
			}
			lo = &v
		}
		if hiText != "" {
			if !strings.HasPrefix(hiText, "!") {
				return rangePart{}, &ErrSyntax{Input: raw}
			}
			v, err := Parse(hiText[1:])
			if err != nil {
				return rangePart{}, err
			}
			hi = &v
		}
		return rangePart{kind: kindInterval, lo: lo, hi: hi}, nil
	}

	if strings.HasPrefix(raw, "!") {
		v, err := Parse(raw[1:])
		if err != nil {
			return rangePart{}, err
		}
		return rangePart{kind: kindExclude, v: v}, nil
	}

	v, err := Parse(raw)
	if err != nil {
		return rangePart{}, err
	}
	return rangePart{kind: kindExact, v: v}, nil
}

func (p rangePart) String() string {
	switch p.kind {
	case kindExclude:
		return "!" + p.v.String()
	case kindInterval:
		sb := &strings.Builder{}
		if p.lo != nil {
			sb.WriteString(p.lo.String())
		}
		sb.WriteString("..")
		if p.hi != nil {
			sb.WriteByte('!')
			sb.WriteString(p.hi.String())
		}
		return sb.String()
	default:
		return p.v.String()
	}
}

// String returns the canonical textual form of r.
func (r Range) String() string {
	if r.empty {
		return "<empty>"
	}
	texts := make([]string, len(r.parts))
	for i, p := range r.parts {
		texts[i] = p.String()
	}
	return strings.Join(texts, "|")
}

// IsUniversal reports whether r matches every version.
func (r Range) IsUniversal() bool {
	return !r.empty && len(r.parts) == 0
}

// IsEmpty reports whether r matches no version.
func (r Range) IsEmpty() bool {
	return r.empty
}

// Match reports whether v satisfies r.
func (r Range) Match(v Version) bool {
	if r.empty {
		return false
	}
	if len(r.parts) == 0 {
		return true
	}
	for _, p := range r.parts {
		if p.matches(v) {
			return true
		}
	}
	return false
}

func (p rangePart) matches(v Version) bool {
	switch p.kind {
	case kindExact:
		return Equal(v, p.v)
	case kindExclude:
		return !Equal(v, p.v)
	case kindInterval:
		if p.lo != nil {
			c, err := Compare(v, *p.lo)
			if err != nil || c < 0 {
				return false
			}
		}
		if p.hi != nil {
			c, err := Compare(v, *p.hi)
			if err != nil || c >= 0 {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Intersect returns the range that matches exactly those versions
// matched by both r and other. It fails with ErrNotSupported when the
// precise intersection would require a part kind this algebra does not
// support (see the package-level doc on ErrNotSupported).
func Intersect(r, other Range) (Range, error) {
	if r.empty || other.empty {
		return Empty, nil
	}
	if r.IsUniversal() {
		return other, nil
	}
	if other.IsUniversal() {
		return r, nil
	}

	var result []rangePart
	for _, pa := range r.parts {
		for _, pb := range other.parts {
			part, ok, err := intersectPart(pa, pb)
			if err != nil {
				return Range{}, err
			}
			if ok {
				result = append(result, part)
			}
		}
	}
	if len(result) == 0 {
		return Empty, nil
	}
	return Range{parts: result}, nil
}

func intersectPart(a, b rangePart) (rangePart, bool, error) {
	// Normalise so that the exact/interval/exclude combinations only
	// need to be handled in one order.
	switch {
	case a.kind == kindExact && b.kind == kindExact:
		if Equal(a.v, b.v) {
			return a, true, nil
		}
		return rangePart{}, false, nil

	case a.kind == kindExact || b.kind == kindExact:
		exact, other := a, b
		if b.kind == kindExact {
			exact, other = b, a
		}
		if other.matches(exact.v) {
			return exact, true, nil
		}
		return rangePart{}, false, nil

	case a.kind == kindInterval && b.kind == kindInterval:
		lo := laterBound(a.lo, b.lo)
		hi := earlierBound(a.hi, b.hi)
		if lo != nil && hi != nil {
			if c, err := Compare(*lo, *hi); err != nil {
				return rangePart{}, false, err
			} else if c >= 0 {
				return rangePart{}, false, nil
			}
		}
		return rangePart{kind: kindInterval, lo: lo, hi: hi}, true, nil

	case a.kind == kindExclude && b.kind == kindExclude:
		if Equal(a.v, b.v) {
			return a, true, nil
		}
		// "everything but two distinct points" cannot be expressed as
		// a finite union of exact/exclude/interval parts.
		return rangePart{}, false, ErrNotSupported

	default: // exclude ∧ interval
		excl, iv := a, b
		if a.kind == kindInterval {
			excl, iv = b, a
		}
		if !iv.matches(excl.v) {
			// The excluded point already lies outside the interval.
			return iv, true, nil
		}
		if iv.hi != nil && Equal(excl.v, *iv.hi) {
			// Already excluded by the interval's exclusive upper bound.
			return iv, true, nil
		}
		// The point is strictly inside the interval: removing it
		// would split the interval in two, which this algebra cannot
		// express as a single part.
		return rangePart{}, false, ErrNotSupported
	}
}

func laterBound(a, b *Version) *Version {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	if a.GreaterThan(*b) {
		return a
	}
	return b
}

func earlierBound(a, b *Version) *Version {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	if a.LessThan(*b) {
		return a
	}
	return b
}
