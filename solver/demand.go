// Package solver implements the recursive depth-first backtracking
// dependency solver: given Requirements and a candidates.Provider, it
// produces a model.Selections covering every transitively-reachable
// interface, preferring the candidate ordering the Provider already
// sorted into place.
package solver

import (
	"github.com/0install/0install-dotnet-sub004/candidates"
	"github.com/0install/0install-dotnet-sub004/model"
	"github.com/0install/0install-dotnet-sub004/version"
)

// Demand is one interface that needs fulfilling, carrying the
// Importance it was requested with.
type Demand struct {
	Requirements model.Requirements
	Importance   model.Importance
}

// demandsFor computes the demands a newly-chosen selection introduces:
// the implementation's own dependencies and, when sel has a command,
// that command's dependencies and runner, plus restrictions-only
// entries that narrow other
// interfaces without requesting a binding.
func demandsFor(sel *model.ImplementationSelection, impl *model.Implementation, requirements model.Requirements) []Demand {
	var deps []model.Dependency
	var restrictions []model.Restriction

	deps = append(deps, impl.Dependencies...)
	restrictions = append(restrictions, impl.Restrictions...)

	if sel.Command != "" {
		if cmd, ok := impl.Command(sel.Command); ok {
			deps = append(deps, cmd.Dependencies...)
			restrictions = append(restrictions, cmd.Restrictions...)

			if cmd.Runner != nil {
				deps = append(deps, model.Dependency{
					Restriction: model.Restriction{
						InterfaceUri: cmd.Runner.InterfaceUri,
						Versions:     cmd.Runner.Versions,
					},
					Importance: model.Essential,
				})
			}
		}
	}

	out := make([]Demand, 0, len(deps)+len(restrictions))
	for _, d := range deps {
		req := model.Requirements{
			InterfaceUri: d.InterfaceUri,
			Architecture: requirements.Architecture,
			Languages:    requirements.Languages,
			ExtraRestrictions: map[string]version.Range{
				d.InterfaceUri: intersectWithInherited(d.InterfaceUri, d.Versions, requirements),
			},
		}
		out = append(out, Demand{Requirements: req, Importance: d.Importance})
	}
	for _, r := range restrictions {
		out = append(out, Demand{
			Requirements: model.Requirements{
				InterfaceUri: r.InterfaceUri,
				Architecture: requirements.Architecture,
				Languages:    requirements.Languages,
				ExtraRestrictions: map[string]version.Range{
					r.InterfaceUri: intersectWithInherited(r.InterfaceUri, r.Versions, requirements),
				},
			},
			Importance: model.Essential,
		})
	}
	return out
}

// intersectWithInherited narrows versions by any restriction
// requirements already carries for interfaceUri, per spec.md §4.4.2:
// "version range = d.Versions ∩ (restrictions inherited from
// top-level)". If the two ranges can't be intersected exactly (an
// unsupported part-kind combination), the dependency's own range is
// kept and the inherited restriction is dropped.
func intersectWithInherited(interfaceUri string, versions version.Range, requirements model.Requirements) version.Range {
	inherited, ok := requirements.ExtraRestrictions[interfaceUri]
	if !ok {
		return versions
	}
	combined, err := version.Intersect(versions, inherited)
	if err != nil {
		return versions
	}
	return combined
}

// candidatesCompatibleWith filters provider-sorted candidates down to
// those compatible with the current selections (spec §4.4.1).
func candidatesCompatibleWith(cands []*candidates.SelectionCandidate, selections *model.Selections, demand Demand) []*candidates.SelectionCandidate {
	var out []*candidates.SelectionCandidate
	for _, c := range cands {
		if compatible(c, selections, demand) {
			out = append(out, c)
		}
	}
	return out
}

func compatible(c *candidates.SelectionCandidate, selections *model.Selections, demand Demand) bool {
	impl := c.Implementation
	if impl == nil {
		return false
	}

	if has64, has32 := bitWidths(selections); (has64 && impl.Architecture.CPU.Is32Bit()) || (has32 && impl.Architecture.CPU.Is64Bit()) {
		return false
	}

	if existing, ok := selections.Selection(c.InterfaceUri); ok {
		if existing.ID != impl.ID {
			// A different selection already claims this interface;
			// compatibility with *that* choice was already checked
			// when it was made.
			return true
		}
	}

	for _, r := range impl.Restrictions {
		if sel, ok := selections.Selection(r.InterfaceUri); ok {
			selVersion, err := version.Parse(sel.Version)
			if err != nil {
				return false
			}
			if !r.Allows(selVersion, sel.Distribution) {
				return false
			}
		}
	}

	return true
}

func bitWidths(selections *model.Selections) (has64, has32 bool) {
	for _, sel := range selections.Implementations {
		switch {
		case sel.Architecture.CPU.Is64Bit():
			has64 = true
		case sel.Architecture.CPU.Is32Bit():
			has32 = true
		}
	}
	return
}
