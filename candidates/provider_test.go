package candidates

import (
	"testing"

	"github.com/0install/0install-dotnet-sub004/config"
	"github.com/0install/0install-dotnet-sub004/model"
	"github.com/0install/0install-dotnet-sub004/version"
)

type fakeFeedLoader struct{ feed *model.Feed }

func (f fakeFeedLoader) Load(string) (*model.Feed, error) { return f.feed, nil }

type fakeStore struct{}

func (fakeStore) Contains(model.ManifestDigest) bool { return false }

type memPreferences struct {
	prefs *config.FeedPreferences
}

func (m *memPreferences) Load(string) (*config.FeedPreferences, error) { return m.prefs, nil }
func (m *memPreferences) Save(_ string, prefs *config.FeedPreferences) error {
	m.prefs = prefs
	return nil
}

func TestCandidatesAppliesUserStabilityOverride(t *testing.T) {
	feed := &model.Feed{
		URI: "https://example.com/app.xml",
		Elements: []model.Element{
			&model.Implementation{ID: "sha256=a1", Version: version.MustParse("1.0"), Stability: model.Testing},
		},
	}
	prefs := &config.FeedPreferences{
		Implementation: map[string]config.ImplPreferences{
			"sha256=a1": {UserStability: "preferred"},
		},
	}

	p := NewProvider(fakeFeedLoader{feed: feed}, nil, fakeStore{})
	p.Policy = StabilityPolicy{Threshold: model.Preferred}
	p.Preferences = &memPreferences{prefs: prefs}

	cands := p.Candidates(&model.Requirements{InterfaceUri: feed.URI})
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	if cands[0].EffectiveStability != model.Preferred {
		t.Errorf("expected the user stability override to take effect, got %v", cands[0].EffectiveStability)
	}

	p.Clear()
	p.Preferences = nil
	cands = p.Candidates(&model.Requirements{InterfaceUri: feed.URI})
	if cands[0].EffectiveStability == model.Preferred {
		t.Errorf("expected Testing (below the Preferred threshold) without an override, got %v", cands[0].EffectiveStability)
	}
}

func TestCandidatesRollsAndPersistsRolloutOnce(t *testing.T) {
	percentage := 50
	feed := &model.Feed{
		URI: "https://example.com/app.xml",
		Elements: []model.Element{
			&model.Implementation{ID: "sha256=a1", Version: version.MustParse("1.0"), RolloutPercentage: &percentage},
		},
	}
	store := &memPreferences{prefs: &config.FeedPreferences{}}

	p := NewProvider(fakeFeedLoader{feed: feed}, nil, fakeStore{})
	p.Preferences = store

	cands := p.Candidates(&model.Requirements{InterfaceUri: feed.URI})
	roll := cands[0].RolloutRoll

	if store.prefs.RolloutRolls["sha256=a1"] != roll {
		t.Errorf("expected the roll to be persisted, got %d want %d", store.prefs.RolloutRolls["sha256=a1"], roll)
	}

	p.Clear()
	cands = p.Candidates(&model.Requirements{InterfaceUri: feed.URI})
	if cands[0].RolloutRoll != roll {
		t.Errorf("expected the persisted roll to be reused across calls, got %d want %d", cands[0].RolloutRoll, roll)
	}
}
