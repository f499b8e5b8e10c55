package model

import "github.com/0install/0install-dotnet-sub004/version"

// Importance controls whether a failed Dependency fails the whole
// solve, or is simply left unfulfilled.
type Importance int

const (
	Essential Importance = iota
	Recommended
)

// Restriction constrains an interface without requesting a binding to
// it: it only narrows which implementations of InterfaceUri may be
// selected elsewhere in the same solve.
type Restriction struct {
	InterfaceUri  string
	Versions      version.Range
	OS            OS // OSUnknown means "no OS filter"
	Distributions []string
}

// Allows reports whether an implementation with the given version and
// (optional, "" for zero-install implementations) distribution id
// satisfies r.
func (r Restriction) Allows(v version.Version, distribution string) bool {
	if !r.Versions.Match(v) {
		return false
	}
	if len(r.Distributions) == 0 {
		return true
	}
	if distribution == "" {
		return false
	}
	for _, d := range r.Distributions {
		if d == distribution {
			return true
		}
	}
	return false
}

// Dependency is a Restriction that additionally requests the
// dependency be bound into the running implementation.
type Dependency struct {
	Restriction
	Importance Importance
	Bindings   []Binding
}
