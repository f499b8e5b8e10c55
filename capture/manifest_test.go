package capture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/0install/0install-dotnet-sub004/model"
)

func TestGenerateManifestDigestDeterministic(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "b.txt"), []byte("world"), 0o644); err != nil {
		t.Fatal(err)
	}

	first, err := GenerateManifestDigest(dir)
	if err != nil {
		t.Fatal(err)
	}
	second, err := GenerateManifestDigest(dir)
	if err != nil {
		t.Fatal(err)
	}

	if !first.PartialEquals(second) {
		t.Fatalf("digest not reproducible: %v vs %v", first, second)
	}
	if _, ok := first[model.AlgoSha256New]; !ok {
		t.Fatalf("expected sha256new entry, got %v", first)
	}
}

func TestGenerateManifestDigestChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	before, err := GenerateManifestDigest(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("goodbye"), 0o644); err != nil {
		t.Fatal(err)
	}
	after, err := GenerateManifestDigest(dir)
	if err != nil {
		t.Fatal(err)
	}

	if before.PartialEquals(after) {
		t.Fatal("expected digest to change when file content changes")
	}
}

func TestGenerateManifestDigestEmptyDir(t *testing.T) {
	dir := t.TempDir()
	digest, err := GenerateManifestDigest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if digest.IsEmpty() {
		t.Fatal("expected a digest even for an empty tree")
	}
}
