package model

import (
	"fmt"
	"net/url"

	"github.com/0install/0install-dotnet-sub004/version"
)

// Element is the tagged union of the three kinds of thing a Feed's
// <group> tree can contain. The solver never sees raw Elements: Feed
// normalisation flattens the tree into Implementations and
// PackageImplementations (see Feed.Normalize).
type Element interface {
	elementTag()
}

// Implementation is one concrete version of an interface's code.
type Implementation struct {
	ID           string
	InterfaceUri string
	FeedUri      string

	Version      version.Version
	Architecture Architecture
	Languages    []string
	Stability    Stability

	ManifestDigest ManifestDigest
	LocalPath      string // non-empty for a locally-built implementation

	RetrievalMethods []RetrievalMethod
	Commands         []Command
	Dependencies     []Dependency
	Restrictions     []Restriction
	Bindings         []Binding

	// RolloutPercentage, when non-nil, gates this implementation
	// behind a per-user stable dice roll (solver §4.4.3).
	RolloutPercentage *int

	Capabilities []Capability
}

func (*Implementation) elementTag() {}

// Command looks up a named command, returning (nil, false) if absent.
func (impl *Implementation) Command(name string) (*Command, bool) {
	for i := range impl.Commands {
		if impl.Commands[i].Name == name {
			return &impl.Commands[i], true
		}
	}
	return nil, false
}

// IsLocal reports whether impl was built from a local directory rather
// than a downloadable archive.
func (impl *Implementation) IsLocal() bool {
	return impl.LocalPath != ""
}

// PackageImplementation is a pattern matched against a native
// (distribution) package manager rather than a concrete implementation.
type PackageImplementation struct {
	InterfaceUri string
	FeedUri      string

	Package      string // the distribution package name/pattern to query
	Architecture Architecture

	MainPath     string
	Commands     []Command
	Dependencies []Dependency
	Restrictions []Restriction
}

func (*PackageImplementation) elementTag() {}

// Group inherits attributes onto its descendants; it never appears in
// the solver's view of a feed, only in the raw document tree.
type Group struct {
	Languages    []string
	Architecture Architecture
	Stability    Stability
	License      string

	Dependencies []Dependency
	Restrictions []Restriction
	Bindings     []Binding
	Commands     []Command

	Elements []Element
}

func (*Group) elementTag() {}

// groupDefaults is the set of attributes a Group propagates to its
// descendants; it accumulates as normalisation walks down the tree.
type groupDefaults struct {
	Languages    []string
	Architecture Architecture
	Stability    Stability
	Dependencies []Dependency
	Restrictions []Restriction
	Bindings     []Binding
	Commands     map[string]Command
}

func (d groupDefaults) withGroup(g *Group) groupDefaults {
	out := d
	if len(g.Languages) > 0 {
		out.Languages = g.Languages
	}
	if g.Architecture != (Architecture{}) {
		out.Architecture = g.Architecture
	}
	if g.Stability != StabilityUnset {
		out.Stability = g.Stability
	}
	if len(g.Dependencies) > 0 {
		out.Dependencies = append(append([]Dependency{}, d.Dependencies...), g.Dependencies...)
	}
	if len(g.Restrictions) > 0 {
		out.Restrictions = append(append([]Restriction{}, d.Restrictions...), g.Restrictions...)
	}
	if len(g.Bindings) > 0 {
		out.Bindings = append(append([]Binding{}, d.Bindings...), g.Bindings...)
	}
	if len(g.Commands) > 0 {
		merged := map[string]Command{}
		for k, v := range d.Commands {
			merged[k] = v
		}
		for _, c := range g.Commands {
			merged[c.Name] = c
		}
		out.Commands = merged
	}
	return out
}

// ErrLocalPathInRemoteFeed is returned by Normalize when a non-local
// feed contains an Implementation with a LocalPath set, which is only
// meaningful for feeds loaded from the local filesystem.
type ErrLocalPathInRemoteFeed struct {
	InterfaceUri string
}

func (e *ErrLocalPathInRemoteFeed) Error() string {
	return fmt.Sprintf("model: local-path implementation in non-local feed %q", e.InterfaceUri)
}

// Normalize flattens f's Elements tree into f.Implementations and
// f.PackageImplementations, propagating Group-inherited attributes and
// resolving relative hrefs against f.URI. It must be called once after
// a Feed is parsed and before it is handed to the solver.
func (f *Feed) Normalize() error {
	f.implementations = nil
	f.packageImplementations = nil

	root := groupDefaults{Architecture: AllArchitecture}
	for _, el := range f.Elements {
		if err := f.normalizeElement(el, root); err != nil {
			return err
		}
	}
	return nil
}

func (f *Feed) normalizeElement(el Element, defaults groupDefaults) error {
	switch e := el.(type) {
	case *Group:
		merged := defaults.withGroup(e)
		for _, child := range e.Elements {
			if err := f.normalizeElement(child, merged); err != nil {
				return err
			}
		}
		return nil

	case *Implementation:
		if len(e.Languages) == 0 {
			e.Languages = defaults.Languages
		}
		if e.Architecture == (Architecture{}) {
			e.Architecture = defaults.Architecture
		}
		if e.Stability == StabilityUnset {
			e.Stability = defaults.Stability
		}
		if e.Stability == StabilityUnset {
			e.Stability = Stable
		}
		e.Dependencies = append(append([]Dependency{}, defaults.Dependencies...), e.Dependencies...)
		e.Restrictions = append(append([]Restriction{}, defaults.Restrictions...), e.Restrictions...)
		e.Bindings = append(append([]Binding{}, defaults.Bindings...), e.Bindings...)
		e.Commands = mergeCommands(defaults.Commands, e.Commands)
		e.FeedUri = f.URI
		e.InterfaceUri = f.InterfaceURI()

		if !f.IsLocal() && e.LocalPath != "" {
			return &ErrLocalPathInRemoteFeed{InterfaceUri: e.InterfaceUri}
		}
		if err := e.resolveHrefs(f.URI); err != nil {
			return err
		}

		f.implementations = append(f.implementations, e)
		return nil

	case *PackageImplementation:
		if e.Architecture == (Architecture{}) {
			e.Architecture = defaults.Architecture
		}
		e.Dependencies = append(append([]Dependency{}, defaults.Dependencies...), e.Dependencies...)
		e.Restrictions = append(append([]Restriction{}, defaults.Restrictions...), e.Restrictions...)
		e.Commands = mergeCommands(defaults.Commands, e.Commands)
		e.FeedUri = f.URI
		e.InterfaceUri = f.InterfaceURI()

		f.packageImplementations = append(f.packageImplementations, e)
		return nil

	default:
		return fmt.Errorf("model: unknown element type %T", el)
	}
}

func mergeCommands(inherited map[string]Command, own []Command) []Command {
	merged := map[string]Command{}
	for k, v := range inherited {
		merged[k] = v
	}
	for _, c := range own {
		merged[c.Name] = c
	}
	out := make([]Command, 0, len(merged))
	for _, c := range merged {
		out = append(out, c)
	}
	return out
}

// resolveHrefs rewrites every relative href in impl's retrieval methods
// to be absolute against feedURI.
func (impl *Implementation) resolveHrefs(feedURI string) error {
	base, err := url.Parse(feedURI)
	if err != nil || !base.IsAbs() {
		// Local feeds (plain filesystem paths) have nothing to resolve
		// against; retrieval hrefs on local implementations are
		// themselves local paths.
		return nil
	}

	for i, rm := range impl.RetrievalMethods {
		switch m := rm.(type) {
		case Archive:
			resolved, err := resolveHref(base, m.Href)
			if err != nil {
				return err
			}
			m.Href = resolved
			impl.RetrievalMethods[i] = m
		case File:
			resolved, err := resolveHref(base, m.Href)
			if err != nil {
				return err
			}
			m.Href = resolved
			impl.RetrievalMethods[i] = m
		}
	}
	return nil
}

func resolveHref(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("model: invalid href %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}
