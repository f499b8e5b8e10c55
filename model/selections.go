package model

import "sort"

// ImplementationSelection is the solver's chosen implementation for one
// interface, enriched with the command it was selected for and the
// implementation's own dependencies and bindings (a command's own
// dependencies are not copied here).
type ImplementationSelection struct {
	InterfaceUri string
	FeedUri      string
	ID           string
	LocalPath    string

	Version      string
	Architecture Architecture
	Stability    Stability

	ManifestDigest ManifestDigest

	Command      string
	Dependencies []Dependency
	Bindings     []Binding

	// Distribution is non-empty when this selection came from a
	// PackageImplementation via a native package manager.
	Distribution string
}

// Selections is the solver's output: at most one selection per
// interface URI.
type Selections struct {
	InterfaceUri string // the top-level interface that was solved for
	Command      string

	Implementations []ImplementationSelection

	// Stale is set by RefreshingSolver when the result was computed
	// before feeds could be refreshed and a later refresh attempt
	// failed (spec §9 open question: the caller decides whether to
	// re-solve later).
	Stale bool
}

// Selection looks up the selection for the given interface.
func (s *Selections) Selection(interfaceUri string) (*ImplementationSelection, bool) {
	for i := range s.Implementations {
		if s.Implementations[i].InterfaceUri == interfaceUri {
			return &s.Implementations[i], true
		}
	}
	return nil, false
}

// SortByInterface sorts Implementations by interface URI, as required
// when a solve finishes (spec §4.4 "sort implementations by interface
// URI").
func (s *Selections) SortByInterface() {
	sort.Slice(s.Implementations, func(i, j int) bool {
		return s.Implementations[i].InterfaceUri < s.Implementations[j].InterfaceUri
	})
}

// Clone returns a deep-enough copy of s for the solver's
// snapshot-and-restore backtracking discipline (spec §4.4).
func (s *Selections) Clone() *Selections {
	out := &Selections{
		InterfaceUri: s.InterfaceUri,
		Command:      s.Command,
		Stale:        s.Stale,
	}
	out.Implementations = append([]ImplementationSelection{}, s.Implementations...)
	return out
}
