package model

import "strings"

// Icon is a single icon offered for a feed, tagged with its MIME type.
type Icon struct {
	Href     string
	MimeType string
}

// FeedReference is a <feed> element nested inside another feed,
// optionally filtered to only apply for a given architecture/language.
type FeedReference struct {
	Href         string
	Architecture Architecture
	Languages    []string
}

// EntryPoint documents a Command intended to be exposed to the user
// (e.g. for desktop-shortcut generation).
type EntryPoint struct {
	Command string
	Names   map[string]string // language -> display name
}

// Feed is the composite document describing one interface: its
// implementations, retrieval methods, and commands.
//
// Feed is immutable once Normalize has been called; mutation only ever
// happens during normalisation itself (model/element.go).
type Feed struct {
	URI  string
	Name string

	Summaries    map[string]string
	Descriptions map[string]string
	Icons        []Icon
	Categories   []string

	NestedFeeds  []FeedReference
	EntryPoints  []EntryPoint
	Capabilities []Capability

	// MinInjectorVersion is the oldest injector version the feed
	// declares support for. It is carried as parsed; candidates.Provider
	// does not check it.
	MinInjectorVersion string

	Elements []Element

	implementations        []*Implementation
	packageImplementations []*PackageImplementation
}

// InterfaceURI is the canonical interface URI a feed describes. For a
// primary feed this is its own URI; feeds only ever describe a single
// interface in this model, so the two coincide.
func (f *Feed) InterfaceURI() string {
	return f.URI
}

// IsLocal reports whether f was loaded from a local filesystem path
// rather than fetched over the network.
func (f *Feed) IsLocal() bool {
	return !strings.Contains(f.URI, "://")
}

// Implementations returns the flattened, normalised Implementations.
// Normalize must have been called first.
func (f *Feed) Implementations() []*Implementation {
	return f.implementations
}

// PackageImplementations returns the flattened, normalised
// PackageImplementations. Normalize must have been called first.
func (f *Feed) PackageImplementations() []*PackageImplementation {
	return f.packageImplementations
}
