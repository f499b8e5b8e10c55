package model

import (
	"testing"

	"github.com/0install/0install-dotnet-sub004/version"
)

func TestNormalizeFlattensGroupsAndPropagatesDefaults(t *testing.T) {
	feed := &Feed{
		URI: "https://example.com/app.xml",
		Elements: []Element{
			&Group{
				Stability: Testing,
				Languages: []string{"en"},
				Elements: []Element{
					&Implementation{
						ID:      "sha256=aaa",
						Version: version.MustParse("1.0"),
					},
					&Implementation{
						ID:        "sha256=bbb",
						Version:   version.MustParse("2.0"),
						Stability: Stable, // overrides the group default
					},
				},
			},
		},
	}

	if err := feed.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	impls := feed.Implementations()
	if len(impls) != 2 {
		t.Fatalf("expected 2 implementations, got %d", len(impls))
	}

	if impls[0].Stability != Testing {
		t.Errorf("impl 0 stability = %v, want Testing (inherited)", impls[0].Stability)
	}
	if impls[1].Stability != Stable {
		t.Errorf("impl 1 stability = %v, want Stable (own)", impls[1].Stability)
	}
	for _, impl := range impls {
		if len(impl.Languages) != 1 || impl.Languages[0] != "en" {
			t.Errorf("impl %s languages = %v, want [en]", impl.ID, impl.Languages)
		}
		if impl.InterfaceUri != feed.URI {
			t.Errorf("impl %s InterfaceUri = %q, want %q", impl.ID, impl.InterfaceUri, feed.URI)
		}
	}
}

func TestNormalizeRejectsLocalPathInRemoteFeed(t *testing.T) {
	feed := &Feed{
		URI: "https://example.com/app.xml",
		Elements: []Element{
			&Implementation{ID: "sha256=aaa", LocalPath: "/home/user/build"},
		},
	}

	err := feed.Normalize()
	if err == nil {
		t.Fatalf("expected error for local-path implementation in remote feed")
	}
	if _, ok := err.(*ErrLocalPathInRemoteFeed); !ok {
		t.Errorf("expected *ErrLocalPathInRemoteFeed, got %T: %v", err, err)
	}
}

func TestNormalizeResolvesRelativeHrefs(t *testing.T) {
	feed := &Feed{
		URI: "https://example.com/feeds/app.xml",
		Elements: []Element{
			&Implementation{
				ID:      "sha256=aaa",
				Version: version.MustParse("1.0"),
				RetrievalMethods: []RetrievalMethod{
					Archive{Href: "app-1.0.tar.gz"},
				},
			},
		},
	}

	if err := feed.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	impls := feed.Implementations()
	archive := impls[0].RetrievalMethods[0].(Archive)
	want := "https://example.com/feeds/app-1.0.tar.gz"
	if archive.Href != want {
		t.Errorf("resolved href = %q, want %q", archive.Href, want)
	}
}
