package solver

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/0install/0install-dotnet-sub004/candidates"
	"github.com/0install/0install-dotnet-sub004/model"
	"github.com/0install/0install-dotnet-sub004/version"
)

type fakeLoader struct {
	feeds map[string]*model.Feed
}

func (f *fakeLoader) Load(uri string) (*model.Feed, error) {
	feed, ok := f.feeds[uri]
	if !ok {
		return nil, &testError{uri}
	}
	return feed, nil
}

type testError struct{ uri string }

func (e *testError) Error() string { return "no such feed: " + e.uri }

type fakeStore struct{}

func (fakeStore) Contains(model.ManifestDigest) bool { return false }

func newSolver(feeds map[string]*model.Feed) *BacktrackingSolver {
	provider := candidates.NewProvider(&fakeLoader{feeds: feeds}, nil, fakeStore{})
	provider.Policy = candidates.StabilityPolicy{Threshold: model.Testing}
	return &BacktrackingSolver{Provider: provider}
}

func TestSolveSingleInterfaceNoDependencies(t *testing.T) {
	feeds := map[string]*model.Feed{
		"https://example.com/a.xml": {
			URI: "https://example.com/a.xml",
			Elements: []model.Element{
				&model.Implementation{ID: "sha256=a1", Version: version.MustParse("1.0")},
			},
		},
	}

	s := newSolver(feeds)
	sel, err := s.Solve(model.Requirements{InterfaceUri: "https://example.com/a.xml"})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(sel.Implementations) != 1 {
		t.Fatalf("expected 1 selection, got %d", len(sel.Implementations))
	}
	if sel.Implementations[0].ID != "sha256=a1" {
		t.Errorf("selected %s, want sha256=a1", sel.Implementations[0].ID)
	}
}

func TestSolveWithEssentialDependency(t *testing.T) {
	feeds := map[string]*model.Feed{
		"https://example.com/a.xml": {
			URI: "https://example.com/a.xml",
			Elements: []model.Element{
				&model.Implementation{
					ID:      "sha256=a1",
					Version: version.MustParse("1.0"),
					Dependencies: []model.Dependency{
						{
							Restriction: model.Restriction{InterfaceUri: "https://example.com/b.xml"},
							Importance:  model.Essential,
						},
					},
				},
			},
		},
		"https://example.com/b.xml": {
			URI: "https://example.com/b.xml",
			Elements: []model.Element{
				&model.Implementation{ID: "sha256=b1", Version: version.MustParse("2.0")},
			},
		},
	}

	s := newSolver(feeds)
	sel, err := s.Solve(model.Requirements{InterfaceUri: "https://example.com/a.xml"})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(sel.Implementations) != 2 {
		t.Fatalf("expected 2 selections (a and b), got %d", len(sel.Implementations))
	}
	if _, ok := sel.Selection("https://example.com/b.xml"); !ok {
		t.Errorf("expected a selection for the essential dependency b.xml")
	}

	want := &model.Selections{
		InterfaceUri: "https://example.com/a.xml",
		Command:      model.CommandRun,
		Implementations: []model.ImplementationSelection{
			{
				InterfaceUri: "https://example.com/a.xml",
				FeedUri:      "https://example.com/a.xml",
				ID:           "sha256=a1",
				Version:      "1.0",
				Architecture: model.AllArchitecture,
				Stability:    model.Stable,
				Command:      model.CommandRun,
				Dependencies: []model.Dependency{
					{
						Restriction: model.Restriction{InterfaceUri: "https://example.com/b.xml"},
						Importance:  model.Essential,
					},
				},
			},
			{
				InterfaceUri: "https://example.com/b.xml",
				FeedUri:      "https://example.com/b.xml",
				ID:           "sha256=b1",
				Version:      "2.0",
				Architecture: model.AllArchitecture,
				Stability:    model.Stable,
			},
		},
	}
	if diff := cmp.Diff(want, sel, cmp.AllowUnexported(version.Range{})); diff != "" {
		t.Errorf("selections mismatch (-want +got):\n%s", diff)
	}
}

func TestSolveFailsWhenEssentialDependencyMissing(t *testing.T) {
	feeds := map[string]*model.Feed{
		"https://example.com/a.xml": {
			URI: "https://example.com/a.xml",
			Elements: []model.Element{
				&model.Implementation{
					ID:      "sha256=a1",
					Version: version.MustParse("1.0"),
					Dependencies: []model.Dependency{
						{
							Restriction: model.Restriction{InterfaceUri: "https://example.com/missing.xml"},
							Importance:  model.Essential,
						},
					},
				},
			},
		},
	}

	s := newSolver(feeds)
	_, err := s.Solve(model.Requirements{InterfaceUri: "https://example.com/a.xml"})
	if err == nil {
		t.Fatalf("expected solve to fail when an essential dependency has no feed")
	}
}

func TestSolveSkipsFailingRecommendedDependency(t *testing.T) {
	feeds := map[string]*model.Feed{
		"https://example.com/a.xml": {
			URI: "https://example.com/a.xml",
			Elements: []model.Element{
				&model.Implementation{
					ID:      "sha256=a1",
					Version: version.MustParse("1.0"),
					Dependencies: []model.Dependency{
						{
							Restriction: model.Restriction{InterfaceUri: "https://example.com/missing.xml"},
							Importance:  model.Recommended,
						},
					},
				},
			},
		},
	}

	s := newSolver(feeds)
	sel, err := s.Solve(model.Requirements{InterfaceUri: "https://example.com/a.xml"})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(sel.Implementations) != 1 {
		t.Errorf("expected only the top-level selection, recommended dep should be silently skipped")
	}
}
