package candidates

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/0install/0install-dotnet-sub004/config"
	"github.com/0install/0install-dotnet-sub004/model"
)

// FeedLoader retrieves and normalises a single feed document. Implemented by
// the store/download layer; kept abstract here so Provider can be tested
// without real network or disk access.
type FeedLoader interface {
	Load(feedURI string) (*model.Feed, error)
}

// PackageQuery answers "what versions of this native package are
// installed/available", filtered by the active distribution filter.
type PackageQuery interface {
	Query(pkg *model.PackageImplementation, distroFilter []string) ([]*SelectionCandidate, error)
}

// StoreContains reports whether an implementation identified by digest
// is already present in the local implementation cache.
type StoreContains interface {
	Contains(digest model.ManifestDigest) bool
}

// PreferencesStore loads and persists the per-feed user preferences
// (stability overrides, rollout dice rolls) Provider consults when
// scoring candidates. A nil Provider.Preferences disables both the
// stability-override half of EffectiveStability and rollout gating.
type PreferencesStore interface {
	Load(interfaceUri string) (*config.FeedPreferences, error)
	Save(interfaceUri string, prefs *config.FeedPreferences) error
}

// Provider produces the sorted candidate list the solver iterates over
// for a given set of Requirements. It memoises feeds, package queries
// and store lookups for its own lifetime; call Clear to drop them (the
// "--refresh" path; see spec's RefreshingSolver).
type Provider struct {
	Loader      FeedLoader
	Package     PackageQuery
	Store       StoreContains
	Preferences PreferencesStore
	Network     NetworkUse
	Policy      StabilityPolicy

	// DistroFilter restricts which package-manager distributions are
	// considered; empty = every distribution is allowed.
	DistroFilter []string
	// AllowZeroInstall gates native (zero-install) Implementations;
	// spec: "Implementation iff the active distribution filter allows
	// zero-install".
	AllowZeroInstall bool

	// FailedFeeds records every feed that could not be loaded, keyed
	// by feed URI, for later re-surfacing to the user.
	FailedFeeds map[string]error

	mu         sync.Mutex
	feedCache  map[string]*model.Feed
	candCache  map[string][]*SelectionCandidate
}

// NewProvider returns a Provider ready to serve candidate queries.
func NewProvider(loader FeedLoader, pkgs PackageQuery, store StoreContains) *Provider {
	return &Provider{
		Loader:           loader,
		Package:          pkgs,
		Store:            store,
		AllowZeroInstall: true,
		FailedFeeds:      map[string]error{},
		feedCache:        map[string]*model.Feed{},
		candCache:        map[string][]*SelectionCandidate{},
	}
}

// Clear drops every memoised cache, forcing the next Candidates call to
// reload feeds and re-query package managers from scratch.
func (p *Provider) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.feedCache = map[string]*model.Feed{}
	p.candCache = map[string][]*SelectionCandidate{}
	p.FailedFeeds = map[string]error{}
}

// Candidates returns the sorted candidate list for requirements'
// interface, loading and caching feeds as needed.
func (p *Provider) Candidates(requirements *model.Requirements) []*SelectionCandidate {
	p.mu.Lock()
	if cached, ok := p.candCache[requirements.InterfaceUri]; ok {
		p.mu.Unlock()
		return cached
	}
	p.mu.Unlock()

	var out []*SelectionCandidate

	feed, err := p.loadFeed(requirements.InterfaceUri)
	if err != nil {
		p.mu.Lock()
		p.FailedFeeds[requirements.InterfaceUri] = err
		p.mu.Unlock()
	} else {
		out = append(out, p.candidatesFromFeed(feed, requirements)...)
	}

	var prefs *config.FeedPreferences
	if p.Preferences != nil {
		if loaded, err := p.Preferences.Load(requirements.InterfaceUri); err == nil {
			prefs = loaded
		}
	}
	dirty := false

	for _, impl := range out {
		stability := impl.Implementation.Stability
		if prefs != nil {
			if override, ok := prefs.Implementation[impl.Implementation.ID]; ok && override.UserStability != "" {
				if s, ok := model.ParseStability(override.UserStability); ok {
					stability = s
				}
			}
		}
		impl.EffectiveStability = p.Policy.effective(stability)

		if impl.Implementation != nil && p.Store != nil {
			impl.Cached = p.Store.Contains(impl.Implementation.ManifestDigest)
		}
		if p.Network == NetworkOffline && !impl.Cached && impl.Distribution == "zero-install" {
			impl.OfflineUncached = true
		}

		if impl.Implementation.RolloutPercentage != nil && prefs != nil {
			roll, rolled := prefs.RollFor(impl.Implementation.ID, rand.Int)
			impl.RolloutRoll = roll
			if rolled {
				dirty = true
			}
		}
	}

	if dirty {
		p.mu.Lock()
		// A failure to persist the roll just means it will be re-rolled
		// next run; it must not block solving.
		_ = p.Preferences.Save(requirements.InterfaceUri, prefs)
		p.mu.Unlock()
	}

	Sort(out, p.Network, p.Policy)

	p.mu.Lock()
	p.candCache[requirements.InterfaceUri] = out
	p.mu.Unlock()
	return out
}

func (p *Provider) loadFeed(feedURI string) (*model.Feed, error) {
	p.mu.Lock()
	if f, ok := p.feedCache[feedURI]; ok {
		p.mu.Unlock()
		return f, nil
	}
	p.mu.Unlock()

	if p.Loader == nil {
		return nil, fmt.Errorf("candidates: no feed loader configured for %s", feedURI)
	}
	feed, err := p.Loader.Load(feedURI)
	if err != nil {
		return nil, fmt.Errorf("candidates: loading feed %s: %w", feedURI, err)
	}
	if err := feed.Normalize(); err != nil {
		return nil, fmt.Errorf("candidates: normalising feed %s: %w", feedURI, err)
	}

	p.mu.Lock()
	p.feedCache[feedURI] = feed
	p.mu.Unlock()
	return feed, nil
}

func (p *Provider) candidatesFromFeed(feed *model.Feed, requirements *model.Requirements) []*SelectionCandidate {
	var out []*SelectionCandidate

	for _, impl := range feed.Implementations() {
		if !p.AllowZeroInstall {
			continue
		}
		languageRank, countryLangRank := computeLanguageRank(impl.Languages, requirements.Languages)
		out = append(out, &SelectionCandidate{
			InterfaceUri:    impl.InterfaceUri,
			Implementation:  impl,
			Distribution:    "zero-install",
			LanguageRank:    languageRank,
			CountryLangRank: countryLangRank,
		})
	}

	if p.Package != nil {
		for _, pkgImpl := range feed.PackageImplementations() {
			found, err := p.Package.Query(pkgImpl, p.DistroFilter)
			if err != nil {
				continue // a package-manager query failure just yields no candidates
			}
			for _, c := range found {
				if c.Implementation != nil {
					c.LanguageRank, c.CountryLangRank = computeLanguageRank(c.Implementation.Languages, requirements.Languages)
				}
			}
			out = append(out, found...)
		}
	}

	return out
}
