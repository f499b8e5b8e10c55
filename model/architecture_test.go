package model

import "testing"

func TestArchitectureCompatibleWith(t *testing.T) {
	cases := []struct {
		a, host Architecture
		want    bool
	}{
		{AllArchitecture, Architecture{OSLinux, CPUX64}, true},
		{Architecture{OSLinux, CPUX64}, AllArchitecture, true},
		{Architecture{OSLinux, CPUX64}, Architecture{OSLinux, CPUX64}, true},
		{Architecture{OSLinux, CPUX64}, Architecture{OSWindows, CPUX64}, false},
		{Architecture{OSMacOSX, CPUX64}, Architecture{OSLinux, CPUX64}, true}, // posix family
		{Architecture{OSLinux, CPUI386}, Architecture{OSLinux, CPUI686}, true},
		{Architecture{OSLinux, CPUI686}, Architecture{OSLinux, CPUI386}, false},
	}

	for _, c := range cases {
		if got := c.a.CompatibleWith(c.host); got != c.want {
			t.Errorf("%v.CompatibleWith(%v) = %v, want %v", c.a, c.host, got, c.want)
		}
	}
}

func TestParseArchitecture(t *testing.T) {
	cases := []struct {
		in   string
		want Architecture
	}{
		{"Linux-x86_64", Architecture{OSLinux, CPUX64}},
		{"*-*", AllArchitecture},
		{"Windows-*", Architecture{OSWindows, CPUAll}},
		{"*-i686", Architecture{OSAll, CPUI686}},
	}
	for _, c := range cases {
		got, err := ParseArchitecture(c.in)
		if err != nil {
			t.Errorf("ParseArchitecture(%q) error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseArchitecture(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseArchitectureRejectsMalformed(t *testing.T) {
	if _, err := ParseArchitecture("justoneword"); err == nil {
		t.Error("expected an error for an architecture string with no '-'")
	}
}

func TestCPUBitWidth(t *testing.T) {
	if !CPUX64.Is64Bit() {
		t.Errorf("x86_64 should be 64-bit")
	}
	if CPUX64.Is32Bit() {
		t.Errorf("x86_64 should not be 32-bit")
	}
	if !CPUI686.Is32Bit() {
		t.Errorf("i686 should be 32-bit")
	}
	if CPUI686.Is64Bit() {
		t.Errorf("i686 should not be 64-bit")
	}
}
