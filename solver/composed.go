package solver

import (
	"errors"
	"fmt"

	"github.com/0install/0install-dotnet-sub004/model"
)

// Solver is implemented by every solver (Backtracking, composed, or
// external) so they can be layered transparently.
type Solver interface {
	Solve(requirements model.Requirements) (*model.Selections, error)
}

// WebError marks a failure caused by network I/O rather than an
// unsatisfiable dependency graph, so FallbackSolver and RefreshingSolver
// can tell the two apart.
type WebError struct {
	Cause error
}

func (e *WebError) Error() string  { return fmt.Sprintf("solver: network error: %v", e.Cause) }
func (e *WebError) Unwrap() error  { return e.Cause }
func IsWebError(err error) bool {
	var w *WebError
	return errors.As(err, &w)
}

// NotSupportedError is raised by a solver that cannot express a given
// requirement at all (as opposed to failing to find candidates for
// it) — e.g. the external solver refusing a Range it cannot encode.
type NotSupportedError struct {
	Cause error
}

func (e *NotSupportedError) Error() string { return fmt.Sprintf("solver: not supported: %v", e.Cause) }
func (e *NotSupportedError) Unwrap() error  { return e.Cause }

// FallbackSolver tries Primary first; on a *Error or *NotSupportedError
// it retries Secondary. If Secondary then fails with a *WebError, the
// primary's original failure is re-raised instead, since a download
// failure for the fallback path is rarely what the user actually wants
// to see (spec §4.4.5).
type FallbackSolver struct {
	Primary   Solver
	Secondary Solver
}

func (f *FallbackSolver) Solve(requirements model.Requirements) (*model.Selections, error) {
	sel, err := f.Primary.Solve(requirements)
	if err == nil {
		return sel, nil
	}

	var solverErr *Error
	var unsupported *NotSupportedError
	if !errors.As(err, &solverErr) && !errors.As(err, &unsupported) {
		return nil, err
	}

	secondarySel, secondaryErr := f.Secondary.Solve(requirements)
	if secondaryErr == nil {
		return secondarySel, nil
	}
	if IsWebError(secondaryErr) {
		return nil, err
	}
	return nil, secondaryErr
}

// FeedStaleness reports whether any feed behind requirements is stale
// enough to warrant a refresh, and lets RefreshingSolver flip modes.
type FeedStaleness interface {
	AnyStale(requirements model.Requirements) bool
}

// RefreshingSolver solves once, and if the feed manager reports any
// feed involved was stale, retries in refresh mode. A network error
// during the refresh attempt is swallowed and the first pass's result
// is kept, with Selections.Stale set so the caller can decide whether
// to retry later (spec §9 open question).
type RefreshingSolver struct {
	Inner     Solver
	Staleness FeedStaleness
	Refresh   func(requirements model.Requirements) (*model.Selections, error)
}

func (r *RefreshingSolver) Solve(requirements model.Requirements) (*model.Selections, error) {
	first, err := r.Inner.Solve(requirements)
	if err != nil {
		return nil, err
	}

	if r.Staleness == nil || !r.Staleness.AnyStale(requirements) {
		return first, nil
	}

	refreshed, err := r.Refresh(requirements)
	if err != nil {
		if IsWebError(err) {
			first.Stale = true
			return first, nil
		}
		return nil, err
	}
	return refreshed, nil
}
