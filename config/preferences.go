package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ImplPreferences holds the per-implementation user overrides stored
// inside a feed's preferences file.
type ImplPreferences struct {
	UserStability string `yaml:"stability,omitempty"`
}

// FeedPreferences is the YAML-serialised per-feed preferences
// document: the last time the feed was checked for updates, any
// per-implementation user stability overrides, and the persisted
// rollout dice rolls that keep a
// rollout-gated implementation from flickering in and out of
// availability between solves.
type FeedPreferences struct {
	LastChecked    int64                      `yaml:"last_checked,omitempty"`
	Implementation map[string]ImplPreferences `yaml:"implementations,omitempty"`

	// RolloutRolls maps an implementation ID to its persisted stable
	// dice roll, 0-99, used to decide whether a RolloutPercentage-gated
	// implementation is offered (spec §4.4.3).
	RolloutRolls map[string]int `yaml:"rollout_rolls,omitempty"`
}

// RollFor returns the persisted dice roll (0-99) for implementation id,
// generating and recording one via roll() if none has been persisted
// yet. dirty reports whether the caller must Save p for the roll to
// survive across runs.
func (p *FeedPreferences) RollFor(id string, roll func() int) (value int, dirty bool) {
	if p.RolloutRolls == nil {
		p.RolloutRolls = map[string]int{}
	}
	if v, ok := p.RolloutRolls[id]; ok {
		return v, false
	}
	v := roll() % 100
	if v < 0 {
		v += 100
	}
	p.RolloutRolls[id] = v
	return v, true
}

// LoadFeedPreferences reads the preferences file at path. A missing
// file yields a zero-value FeedPreferences, not an error, mirroring
// trust.Load's treatment of an absent trust database.
func LoadFeedPreferences(path string) (*FeedPreferences, error) {
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return &FeedPreferences{Implementation: map[string]ImplPreferences{}, RolloutRolls: map[string]int{}}, nil
	} else if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var prefs FeedPreferences
	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if prefs.Implementation == nil {
		prefs.Implementation = map[string]ImplPreferences{}
	}
	if prefs.RolloutRolls == nil {
		prefs.RolloutRolls = map[string]int{}
	}
	return &prefs, nil
}

// Save writes prefs to path atomically (temp file + rename), matching
// the discipline trust.Database.Save uses for the trust database.
func (p *FeedPreferences) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("config: marshaling feed preferences: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("config: creating %s: %w", dir, err)
	}

	tmp, err := ioutil.TempFile(dir, ".feedprefs-*.tmp")
	if err != nil {
		return fmt.Errorf("config: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("config: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("config: renaming into place: %w", err)
	}
	return nil
}
