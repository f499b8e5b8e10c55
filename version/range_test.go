package version

import "testing"

func mustRange(t *testing.T, s string) Range {
	t.Helper()
	r, err := ParseRange(s)
	if err != nil {
		t.Fatalf("ParseRange(%q): %v", s, err)
	}
	return r
}

func TestRangeMatchIntervals(t *testing.T) {
	cases := []struct {
		rng  string
		v    string
		want bool
	}{
		{"..!3", "2", true},
		{"..!3", "3", false},
		{"..!3", "4", false},
		{"1..", "1", true},
		{"1..", "0.9", false},
		{"1..!3", "1", true},
		{"1..!3", "2.9", true},
		{"1..!3", "3", false},
		{"!1.0", "1.0", false},
		{"!1.0", "1.1", true},
		{"1.0", "1.0", true},
		{"1.0", "1.1", false},
	}

	for _, c := range cases {
		r := mustRange(t, c.rng)
		v := MustParse(c.v)
		if got := r.Match(v); got != c.want {
			t.Errorf("ParseRange(%q).Match(%q) = %v, want %v", c.rng, c.v, got, c.want)
		}
	}
}

func TestRangeMatchInvariants(t *testing.T) {
	// For all v, VersionRange("..!x").match(v) ⇔ v < x
	x := MustParse("5.0")
	lt := mustRange(t, "..!5.0")
	for _, s := range []string{"1", "4.9", "5.0", "5.1"} {
		v := MustParse(s)
		want := v.LessThan(x)
		if got := lt.Match(v); got != want {
			t.Errorf("..!5.0 match(%s) = %v, want %v", s, got, want)
		}
	}

	// VersionRange("x..").match(v) ⇔ v ≥ x
	ge := mustRange(t, "5.0..")
	for _, s := range []string{"1", "4.9", "5.0", "5.1"} {
		v := MustParse(s)
		want := !v.LessThan(x)
		if got := ge.Match(v); got != want {
			t.Errorf("5.0.. match(%s) = %v, want %v", s, got, want)
		}
	}

	// VersionRange("!x").match(v) ⇔ v ≠ x
	ne := mustRange(t, "!5.0")
	for _, s := range []string{"4.9", "5.0", "5.1"} {
		v := MustParse(s)
		want := !Equal(v, x)
		if got := ne.Match(v); got != want {
			t.Errorf("!5.0 match(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestIntersectUniversalAndEmpty(t *testing.T) {
	universal := Range{}
	x := mustRange(t, "1.0..!2.0")

	got, err := Intersect(universal, x)
	if err != nil {
		t.Fatalf("Intersect: %v", err)
	}
	if got.String() != x.String() {
		t.Errorf("universal ∩ X = %q, want %q", got, x)
	}

	got, err = Intersect(Empty, x)
	if err != nil {
		t.Fatalf("Intersect: %v", err)
	}
	if !got.IsEmpty() {
		t.Errorf("empty ∩ X should be empty, got %q", got)
	}
}

func TestIntersectIntervals(t *testing.T) {
	a := mustRange(t, "1..")
	b := mustRange(t, "..!3")

	got, err := Intersect(a, b)
	if err != nil {
		t.Fatalf("Intersect: %v", err)
	}
	want := mustRange(t, "1..!3")
	if got.String() != want.String() {
		t.Errorf("Intersect(1.., ..!3) = %q, want %q", got, want)
	}

	// Commutative
	got2, err := Intersect(b, a)
	if err != nil {
		t.Fatalf("Intersect: %v", err)
	}
	if got2.String() != got.String() {
		t.Errorf("Intersect not commutative: %q vs %q", got, got2)
	}

	c := mustRange(t, "1..!2")
	d := mustRange(t, "2..!3")
	empty, err := Intersect(c, d)
	if err != nil {
		t.Fatalf("Intersect: %v", err)
	}
	if !empty.IsEmpty() {
		t.Errorf("Intersect(1..!2, 2..!3) should be empty, got %q", empty)
	}
}

func TestIntersectExcludeExcludeNotSupported(t *testing.T) {
	a := mustRange(t, "!1.0")
	b := mustRange(t, "!2.0")

	if _, err := Intersect(a, b); err != ErrNotSupported {
		t.Errorf("Intersect(!1.0, !2.0) = %v, want ErrNotSupported", err)
	}
}

func TestIntersectExcludeInterior(t *testing.T) {
	a := mustRange(t, "1..!3")
	b := mustRange(t, "!2.0")

	if _, err := Intersect(a, b); err != ErrNotSupported {
		t.Errorf("Intersect(1..!3, !2.0) = %v, want ErrNotSupported", err)
	}

	// Excluding a point outside the interval is a no-op.
	c := mustRange(t, "!9.0")
	got, err := Intersect(a, c)
	if err != nil {
		t.Fatalf("Intersect: %v", err)
	}
	if got.String() != a.String() {
		t.Errorf("Intersect(1..!3, !9.0) = %q, want %q", got, a)
	}
}
