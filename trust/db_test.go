package trust

import (
	"path/filepath"
	"testing"
)

func TestTrustUntrust(t *testing.T) {
	db := NewDatabase()
	fp := "AAAABBBBCCCCDDDDEEEEFFFF0000111122223333"

	if db.IsTrusted(fp, "example.com") {
		t.Fatalf("fresh database should trust nothing")
	}

	db.Trust(fp, "Example.com")
	if !db.IsTrusted(fp, "example.com") {
		t.Errorf("domain comparison should be case-insensitive")
	}
	if !db.IsTrusted(fp, "EXAMPLE.COM") {
		t.Errorf("domain comparison should be case-insensitive")
	}

	db.UntrustDomain(fp, "example.com")
	if db.IsTrusted(fp, "example.com") {
		t.Errorf("UntrustDomain should have removed the entry")
	}

	db.Trust(fp, "a.com")
	db.Trust(fp, "b.com")
	db.Untrust(fp)
	if db.IsTrusted(fp, "a.com") || db.IsTrusted(fp, "b.com") {
		t.Errorf("Untrust should remove all domains for the key")
	}
}

func TestDatabaseSaveLoadRoundTrip(t *testing.T) {
	db := NewDatabase()
	fp1 := "AAAABBBBCCCCDDDDEEEEFFFF0000111122223333"
	fp2 := "1111222233334444555566667777888899990000"
	db.Trust(fp1, "example.com")
	db.Trust(fp1, "example.org")
	db.Trust(fp2, "other.example.net")

	dir := t.TempDir()
	path := filepath.Join(dir, "trust.xml")

	if err := db.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !db.Equal(loaded) {
		t.Errorf("round-tripped database does not match original\nwant %+v\ngot  %+v", db.Keys(), loaded.Keys())
	}
}

func TestLoadMissingFileIsEmptyNotError(t *testing.T) {
	db, err := Load(filepath.Join(t.TempDir(), "does-not-exist.xml"))
	if err != nil {
		t.Fatalf("Load of missing file should not error: %v", err)
	}
	if len(db.Keys()) != 0 {
		t.Errorf("expected empty database, got %+v", db.Keys())
	}
}

func TestLoadMergedUnionsAcrossPaths(t *testing.T) {
	dir := t.TempDir()
	fp := "AAAABBBBCCCCDDDDEEEEFFFF0000111122223333"

	user := NewDatabase()
	user.Trust(fp, "user-trusted.example.com")
	userPath := filepath.Join(dir, "user.xml")
	if err := user.Save(userPath); err != nil {
		t.Fatalf("Save user db: %v", err)
	}

	system := NewDatabase()
	system.Trust(fp, "system-trusted.example.com")
	systemPath := filepath.Join(dir, "system.xml")
	if err := system.Save(systemPath); err != nil {
		t.Fatalf("Save system db: %v", err)
	}

	merged, err := LoadMerged([]string{userPath, systemPath})
	if err != nil {
		t.Fatalf("LoadMerged: %v", err)
	}

	if !merged.IsTrusted(fp, "user-trusted.example.com") {
		t.Errorf("merged database missing user-trusted domain")
	}
	if !merged.IsTrusted(fp, "system-trusted.example.com") {
		t.Errorf("merged database missing system-trusted domain")
	}
}

func TestValidateFingerprint(t *testing.T) {
	if err := ValidateFingerprint("AAAABBBBCCCCDDDDEEEEFFFF0000111122223333"); err != nil {
		t.Errorf("valid fingerprint rejected: %v", err)
	}
	if err := ValidateFingerprint("not-hex"); err == nil {
		t.Errorf("expected error for non-hex fingerprint")
	}
	if err := ValidateFingerprint("AAAA"); err == nil {
		t.Errorf("expected error for too-short fingerprint")
	}
}

func TestKeyID(t *testing.T) {
	got := KeyID("AAAABBBBCCCCDDDDEEEEFFFF0000111122223333")
	want := "0000111122223333"
	if got != want {
		t.Errorf("KeyID() = %q, want %q", got, want)
	}
}
