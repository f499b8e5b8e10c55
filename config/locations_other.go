//go:build !windows

package config

// systemTrustDBPath returns the system-wide trust database path on
// POSIX systems, or "" if this platform has no such convention.
func systemTrustDBPath() string {
	return "/etc/0install.net/injector/trustdb.xml"
}
