// Package config resolves the on-disk locations used by the rest of
// the tool (cache, trust database, feed-preferences) and loads the
// per-feed preferences file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const appDirName = "0install"

// Locations resolves XDG-style paths for the running user, with the
// same lazy, memoize-on-first-use setup the teacher's Cache uses.
//
// ZEROINSTALL_PORTABLE_BASE, when set, roots every path under a single
// directory instead of the platform cache/config dirs — this is how a
// "portable" install (USB stick, CI sandbox) keeps all of its state
// next to the binary.
type Locations struct {
	once sync.Once
	err  error

	cacheDir  string
	configDir string
}

func (l *Locations) setup() {
	if base := os.Getenv("ZEROINSTALL_PORTABLE_BASE"); base != "" {
		l.cacheDir = filepath.Join(base, "cache")
		l.configDir = filepath.Join(base, "config")
		return
	}

	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		l.err = fmt.Errorf("config: resolving cache directory: %w", err)
		return
	}
	l.cacheDir = filepath.Join(userCacheDir, appDirName)

	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		l.err = fmt.Errorf("config: resolving config directory: %w", err)
		return
	}
	l.configDir = filepath.Join(userConfigDir, appDirName)
}

// CacheDir returns the root of the implementation/feed cache, creating
// it if necessary.
func (l *Locations) CacheDir() (string, error) {
	l.once.Do(l.setup)
	if l.err != nil {
		return "", l.err
	}
	if err := os.MkdirAll(l.cacheDir, 0777); err != nil {
		return "", fmt.Errorf("config: creating cache directory: %w", err)
	}
	return l.cacheDir, nil
}

// ConfigDir returns the root of the user configuration directory
// (trust database, global-preferences, feed-preferences), creating it
// if necessary.
func (l *Locations) ConfigDir() (string, error) {
	l.once.Do(l.setup)
	if l.err != nil {
		return "", l.err
	}
	if err := os.MkdirAll(l.configDir, 0700); err != nil {
		return "", fmt.Errorf("config: creating config directory: %w", err)
	}
	return l.configDir, nil
}

// TrustDBPaths returns the ordered list of trust-database files to
// merge: the user's own database first, followed by any system-wide
// database that exists on this platform. Only existing files are
// meaningful to trust.LoadMerged; a missing path yields an empty
// database for that layer.
func (l *Locations) TrustDBPaths() ([]string, error) {
	dir, err := l.ConfigDir()
	if err != nil {
		return nil, err
	}
	paths := []string{filepath.Join(dir, "trustdb.xml")}
	if sys := systemTrustDBPath(); sys != "" {
		paths = append(paths, sys)
	}
	return paths, nil
}

// ImplementationDir returns the cache directory an implementation
// identified by digest should be unpacked into.
func (l *Locations) ImplementationDir(digest string) (string, error) {
	cache, err := l.CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cache, "implementations", digest), nil
}

// FeedCacheDir returns the directory cached (downloaded) feed XML
// documents are stored in, keyed by escaped feed URI.
func (l *Locations) FeedCacheDir() (string, error) {
	cache, err := l.CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cache, "interfaces"), nil
}

// FeedPreferencesPath returns the path to the YAML feed-preferences
// file for the given interface URI.
func (l *Locations) FeedPreferencesPath(interfaceURI string) (string, error) {
	dir, err := l.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "interfaces", EscapeURI(interfaceURI)+".yaml"), nil
}

// GnupgHome returns the directory holding the secret keyring used for
// signing, honouring a GNUPGHOME override the same way gpg itself
// does.
func (l *Locations) GnupgHome() (string, error) {
	if home := os.Getenv("GNUPGHOME"); home != "" {
		return home, nil
	}
	dir, err := l.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "gnupg"), nil
}

// EscapeURI turns a feed URI into a filesystem-safe name by replacing
// every character outside [A-Za-z0-9._-] with '_'.
func EscapeURI(uri string) string {
	out := make([]rune, 0, len(uri))
	for _, r := range uri {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
