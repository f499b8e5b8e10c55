package model

import "testing"

func TestParseManifestDigest(t *testing.T) {
	d, err := ParseManifestDigest("sha1new=abc123,sha256=def456")
	if err != nil {
		t.Fatalf("ParseManifestDigest: %v", err)
	}
	if d[AlgoSha1New] != "abc123" || d[AlgoSha256] != "def456" {
		t.Errorf("unexpected digest: %+v", d)
	}

	d2, err := ParseManifestDigest("sha256new_ABCDEFG")
	if err != nil {
		t.Fatalf("ParseManifestDigest: %v", err)
	}
	if d2[AlgoSha256New] != "ABCDEFG" {
		t.Errorf("unexpected digest: %+v", d2)
	}
}

func TestManifestDigestBest(t *testing.T) {
	d, _ := ParseManifestDigest("sha1=aaa,sha256new_bbb,sha256=ccc")
	best, ok := d.Best()
	if !ok {
		t.Fatalf("expected a best digest")
	}
	if best != "sha256new_bbb" {
		t.Errorf("Best() = %q, want sha256new_bbb (strongest-first)", best)
	}
}

func TestManifestDigestPartialEquals(t *testing.T) {
	a, _ := ParseManifestDigest("sha1=aaa,sha256=ccc")
	b, _ := ParseManifestDigest("sha256=ccc,sha1new=zzz")
	c, _ := ParseManifestDigest("sha1=different")

	if !a.PartialEquals(b) {
		t.Errorf("a and b share sha256=ccc, should be partial-equal")
	}
	if !b.PartialEquals(a) {
		t.Errorf("PartialEquals should be symmetric")
	}
	if !a.PartialEquals(a) {
		t.Errorf("PartialEquals should be reflexive")
	}
	if a.PartialEquals(c) {
		t.Errorf("disjoint algorithm sets should never be partial-equal")
	}
}
