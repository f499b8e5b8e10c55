//go:build windows

package config

import "os"

// systemTrustDBPath returns the system-wide trust database path on
// Windows, rooted under %ALLUSERSPROFILE% (ProgramData).
func systemTrustDBPath() string {
	root := os.Getenv("ALLUSERSPROFILE")
	if root == "" {
		return ""
	}
	return root + `\0install.net\injector\trustdb.xml`
}
