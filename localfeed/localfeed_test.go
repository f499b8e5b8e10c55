package localfeed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/0install/0install-dotnet-sub004/config"
	"github.com/0install/0install-dotnet-sub004/model"
)

func TestDirectoryLoadParsesImplementations(t *testing.T) {
	dir := t.TempDir()
	const uri = "https://example.com/app.xml"

	const body = `{
		"uri": "https://example.com/app.xml",
		"name": "Example App",
		"implementations": [
			{
				"id": "sha256new=abc",
				"version": "1.2.3",
				"architecture": "Linux-x86_64",
				"stability": "stable",
				"commands": [{"name": "run", "path": "bin/app"}],
				"dependencies": [{"interface": "https://example.com/lib.xml", "versions": "2..!3"}]
			}
		]
	}`
	path := filepath.Join(dir, config.EscapeURI(uri)+".json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	feed, err := (Directory{Path: dir}).Load(uri)
	if err != nil {
		t.Fatal(err)
	}
	if feed.URI != uri || feed.Name != "Example App" {
		t.Errorf("got %+v", feed)
	}

	impls := feed.Implementations()
	if len(impls) != 1 {
		t.Fatalf("got %d implementations, want 1", len(impls))
	}
	impl := impls[0]
	if impl.Architecture != (model.Architecture{OS: model.OSLinux, CPU: model.CPUX64}) {
		t.Errorf("architecture = %v", impl.Architecture)
	}
	if impl.Stability != model.Stable {
		t.Errorf("stability = %v", impl.Stability)
	}
	if len(impl.Commands) != 1 || impl.Commands[0].Path != "bin/app" {
		t.Errorf("commands = %+v", impl.Commands)
	}
	if len(impl.Dependencies) != 1 || impl.Dependencies[0].InterfaceUri != "https://example.com/lib.xml" {
		t.Errorf("dependencies = %+v", impl.Dependencies)
	}
}

func TestDirectoryLoadMissingFileIsError(t *testing.T) {
	dir := t.TempDir()
	if _, err := (Directory{Path: dir}).Load("https://example.com/missing.xml"); err == nil {
		t.Fatal("expected an error for a missing feed file")
	}
}
