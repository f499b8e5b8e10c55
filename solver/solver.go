package solver

import (
	"fmt"
	"sort"
	"time"

	"github.com/0install/0install-dotnet-sub004/candidates"
	"github.com/0install/0install-dotnet-sub004/model"
)

// Error is raised when the solver cannot find a solution, or exceeds
// its backtrack budget.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("solver: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("solver: %s", e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Defaults for the tunables spec.md calls out as implementation-defined.
const (
	defaultBacktrackBudget = 256
	defaultSearchWidth     = 32
	permutationBound       = 6
)

// BacktrackingSolver is the recursive depth-first solver described in
// spec.md §4.4.
type BacktrackingSolver struct {
	Provider *candidates.Provider

	// BacktrackBudget bounds the number of failed branches tried
	// before giving up; zero means defaultBacktrackBudget.
	BacktrackBudget int
	// SearchWidth bounds how many candidates are tried per interface
	// before giving up on satisfying a single demand; zero means
	// defaultSearchWidth.
	SearchWidth int

	backtracks int
}

// Solve runs the solver for requirements and returns the resulting
// Selections, normalised and sorted by interface URI.
func (s *BacktrackingSolver) Solve(requirements model.Requirements) (*model.Selections, error) {
	metrics.init()
	start := time.Now()
	defer func() {
		metrics.solveTotal.Inc()
		metrics.solveDuration.Observe(time.Since(start).Seconds())
	}()

	requirements = requirements.ForCurrentSystem(model.AllArchitecture)
	s.backtracks = 0

	selections := &model.Selections{
		InterfaceUri: requirements.InterfaceUri,
		Command:      requirements.Command,
	}

	demand := Demand{Requirements: requirements, Importance: model.Essential}
	ok, err := s.tryFulfill(selections, demand)
	if err != nil {
		metrics.solveFailed.Inc()
		return nil, err
	}
	if !ok {
		metrics.solveFailed.Inc()
		if len(s.Provider.FailedFeeds) > 0 {
			for uri, cause := range s.Provider.FailedFeeds {
				return nil, &Error{Message: fmt.Sprintf("feed %s failed to load", uri), Cause: cause}
			}
		}
		return nil, &Error{Message: "no solution found"}
	}

	selections.SortByInterface()
	return selections, nil
}

func (s *BacktrackingSolver) budget() int {
	if s.BacktrackBudget > 0 {
		return s.BacktrackBudget
	}
	return defaultBacktrackBudget
}

func (s *BacktrackingSolver) width() int {
	if s.SearchWidth > 0 {
		return s.SearchWidth
	}
	return defaultSearchWidth
}

// tryFulfill implements spec.md §4.4's tryFulfill operation.
func (s *BacktrackingSolver) tryFulfill(selections *model.Selections, demand Demand) (bool, error) {
	all := s.Provider.Candidates(&demand.Requirements)
	compatible := candidatesCompatibleWith(all, selections, demand)

	if existing, ok := selections.Selection(demand.Requirements.InterfaceUri); ok {
		var match *candidates.SelectionCandidate
		for _, c := range compatible {
			if c.Implementation.ID == existing.ID {
				match = c
				break
			}
		}
		if match == nil {
			return false, nil
		}
		if existing.Command == "" && demand.Requirements.Command != "" {
			existing.Command = demand.Requirements.Command
			sub := demandsFor(existing, match.Implementation, demand.Requirements)
			return s.tryFulfillAll(selections, sub)
		}
		return true, nil
	}

	width := s.width()
	for i, c := range compatible {
		if i >= width {
			break
		}
		if !c.IsSuitable(&demand.Requirements, s.Provider.Policy) {
			continue
		}

		distribution := c.Distribution
		if distribution == "zero-install" {
			distribution = ""
		}
		sel := model.ImplementationSelection{
			InterfaceUri:   c.InterfaceUri,
			FeedUri:        c.Implementation.FeedUri,
			ID:             c.Implementation.ID,
			LocalPath:      c.Implementation.LocalPath,
			Version:        c.Implementation.Version.String(),
			Architecture:   c.Implementation.Architecture,
			Stability:      c.Implementation.Stability,
			ManifestDigest: c.Implementation.ManifestDigest,
			Command:        demand.Requirements.Command,
			Distribution:   distribution,
		}
		if len(c.Implementation.Dependencies) > 0 {
			sel.Dependencies = c.Implementation.Dependencies
		}
		if len(c.Implementation.Bindings) > 0 {
			sel.Bindings = c.Implementation.Bindings
		}

		selections.Implementations = append(selections.Implementations, sel)
		idx := len(selections.Implementations) - 1

		sub := demandsFor(&selections.Implementations[idx], c.Implementation, demand.Requirements)
		ok, err := s.tryFulfillAll(selections, sub)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}

		selections.Implementations = selections.Implementations[:idx]
		s.backtracks++
		metrics.backtracks.Inc()
		if s.backtracks > s.budget() {
			return false, &Error{Message: "too much backtracking"}
		}
	}

	if demand.Importance == model.Recommended {
		return true, nil
	}
	return false, nil
}

// tryFulfillAll implements spec.md §4.4's tryFulfillAll operation.
func (s *BacktrackingSolver) tryFulfillAll(selections *model.Selections, demands []Demand) (bool, error) {
	var essentials, recommended []Demand
	for _, d := range demands {
		if d.Importance == model.Essential {
			essentials = append(essentials, d)
		} else {
			recommended = append(recommended, d)
		}
	}

	for _, d := range essentials {
		if len(candidatesCompatibleWith(s.Provider.Candidates(&d.Requirements), selections, d)) == 0 {
			if _, alreadySelected := selections.Selection(d.Requirements.InterfaceUri); !alreadySelected {
				return false, nil
			}
		}
	}

	snapshot := selections.Clone()

	orderings := s.permutations(essentials)
	for _, order := range orderings {
		*selections = *snapshot.Clone()

		ok, err := s.fulfillSequence(selections, order)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}

		allRecommendedOK := true
		for _, d := range recommended {
			ok, err := s.tryFulfill(selections, d)
			if err != nil {
				return false, err
			}
			if !ok {
				allRecommendedOK = false
				break
			}
		}
		if allRecommendedOK {
			return true, nil
		}
	}

	*selections = *snapshot.Clone()
	return false, nil
}

func (s *BacktrackingSolver) fulfillSequence(selections *model.Selections, demands []Demand) (bool, error) {
	for _, d := range demands {
		ok, err := s.tryFulfill(selections, d)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// permutations returns every ordering of demands when small enough to
// explore exhaustively; beyond permutationBound it falls back to a
// single heuristic ordering (descending candidate count) to avoid
// factorial blow-up, per spec.md §4.4.
func (s *BacktrackingSolver) permutations(demands []Demand) [][]Demand {
	if len(demands) <= 1 {
		return [][]Demand{append([]Demand{}, demands...)}
	}
	if len(demands) > permutationBound {
		ordered := append([]Demand{}, demands...)
		sort.SliceStable(ordered, func(i, j int) bool {
			ci := len(s.Provider.Candidates(&ordered[i].Requirements))
			cj := len(s.Provider.Candidates(&ordered[j].Requirements))
			if ci != cj {
				return ci > cj
			}
			return ordered[i].Requirements.InterfaceUri < ordered[j].Requirements.InterfaceUri
		})
		return [][]Demand{ordered}
	}

	var out [][]Demand
	var rec func(remaining, chosen []Demand)
	rec = func(remaining, chosen []Demand) {
		if len(remaining) == 0 {
			out = append(out, append([]Demand{}, chosen...))
			return
		}
		for i := range remaining {
			next := append([]Demand{}, remaining[:i]...)
			next = append(next, remaining[i+1:]...)
			rec(next, append(chosen, remaining[i]))
		}
	}
	rec(demands, nil)
	return out
}
