package config

import (
	"path/filepath"
	"testing"
)

func TestPortableBaseOverride(t *testing.T) {
	t.Setenv("ZEROINSTALL_PORTABLE_BASE", "/tmp/portable-test")

	l := &Locations{}
	cache, err := l.CacheDir()
	if err != nil {
		t.Fatalf("CacheDir: %v", err)
	}
	if cache != filepath.Join("/tmp/portable-test", "cache") {
		t.Errorf("CacheDir() = %q, want portable base", cache)
	}
}

func TestEscapeURI(t *testing.T) {
	got := EscapeURI("http://example.com/foo bar.xml")
	for _, r := range got {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '.' || r == '_' || r == '-') {
			t.Fatalf("EscapeURI produced unsafe character %q in %q", r, got)
		}
	}
}

func TestGnupgHomeOverride(t *testing.T) {
	t.Setenv("GNUPGHOME", "/tmp/my-gnupg")

	l := &Locations{}
	home, err := l.GnupgHome()
	if err != nil {
		t.Fatalf("GnupgHome: %v", err)
	}
	if home != "/tmp/my-gnupg" {
		t.Errorf("GnupgHome() = %q, want override honoured", home)
	}
}
