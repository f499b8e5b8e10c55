package main

import (
	"os"

	"github.com/0install/0install-dotnet-sub004/candidates"
	"github.com/0install/0install-dotnet-sub004/config"
	"github.com/0install/0install-dotnet-sub004/model"
)

// newProvider wires a candidates.Provider for the CLI: no native
// distribution-package integration (out of scope for this build), an
// implementation cache backed by locations.ImplementationDir, and
// per-feed preferences (stability overrides, rollout dice rolls)
// backed by locations.FeedPreferencesPath.
func newProvider(loader candidates.FeedLoader) *candidates.Provider {
	p := candidates.NewProvider(loader, noPackages{}, cacheStore{})
	p.Preferences = feedPreferencesStore{}
	return p
}

type feedPreferencesStore struct{}

func (feedPreferencesStore) Load(interfaceUri string) (*config.FeedPreferences, error) {
	path, err := locations.FeedPreferencesPath(interfaceUri)
	if err != nil {
		return nil, err
	}
	return config.LoadFeedPreferences(path)
}

func (feedPreferencesStore) Save(interfaceUri string, prefs *config.FeedPreferences) error {
	path, err := locations.FeedPreferencesPath(interfaceUri)
	if err != nil {
		return err
	}
	return prefs.Save(path)
}

type noPackages struct{}

func (noPackages) Query(*model.PackageImplementation, []string) ([]*candidates.SelectionCandidate, error) {
	return nil, nil
}

type cacheStore struct{}

func (cacheStore) Contains(digest model.ManifestDigest) bool {
	id, ok := digest.Best()
	if !ok {
		return false
	}
	dir, err := locations.ImplementationDir(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(dir)
	return err == nil
}
