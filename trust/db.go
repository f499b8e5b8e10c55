package trust

import (
	"encoding/xml"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const trustNamespace = "http://zero-install.sourceforge.net/2007/injector/trust"

// Key is one fingerprint's set of trusted domains.
type Key struct {
	Fingerprint string
	domains     map[string]struct{} // keyed by lower-cased domain
}

func newKey(fingerprint string) *Key {
	return &Key{Fingerprint: fingerprint, domains: map[string]struct{}{}}
}

// Domains returns the trusted domains for this key, sorted for
// deterministic output.
func (k *Key) Domains() []string {
	out := make([]string, 0, len(k.domains))
	for d := range k.domains {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Database is the set of {fingerprint -> trusted domains} entries. It
// is safe for concurrent reads; callers should serialise writes to a
// single Database within a process (spec §5).
type Database struct {
	mu   sync.Mutex
	keys map[string]*Key
}

// NewDatabase returns an empty trust database.
func NewDatabase() *Database {
	return &Database{keys: map[string]*Key{}}
}

// Trust records that fingerprint is trusted to sign feeds from domain.
// Creating the key entry if it does not yet exist; idempotent.
func (db *Database) Trust(fingerprint, domain string) {
	db.mu.Lock()
	defer db.mu.Unlock()

	k, ok := db.keys[fingerprint]
	if !ok {
		k = newKey(fingerprint)
		db.keys[fingerprint] = k
	}
	k.domains[strings.ToLower(domain)] = struct{}{}
}

// Untrust removes every domain entry for fingerprint.
func (db *Database) Untrust(fingerprint string) {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.keys, fingerprint)
}

// UntrustDomain removes only the given domain from fingerprint's entry.
func (db *Database) UntrustDomain(fingerprint, domain string) {
	db.mu.Lock()
	defer db.mu.Unlock()

	k, ok := db.keys[fingerprint]
	if !ok {
		return
	}
	delete(k.domains, strings.ToLower(domain))
	if len(k.domains) == 0 {
		delete(db.keys, fingerprint)
	}
}

// IsTrusted reports whether fingerprint is trusted for domain.
// Fingerprint comparison is exact (string-equal); domain comparison is
// case-insensitive.
func (db *Database) IsTrusted(fingerprint, domain string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	k, ok := db.keys[fingerprint]
	if !ok {
		return false
	}
	_, ok = k.domains[strings.ToLower(domain)]
	return ok
}

// Keys returns every key entry, sorted by fingerprint for deterministic
// iteration/serialisation.
func (db *Database) Keys() []*Key {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]*Key, 0, len(db.keys))
	for _, k := range db.keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fingerprint < out[j].Fingerprint })
	return out
}

// Equal compares two databases as unordered sets of (fingerprint,
// domain) pairs.
func (db *Database) Equal(other *Database) bool {
	a, b := db.Keys(), other.Keys()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Fingerprint != b[i].Fingerprint {
			return false
		}
		da, dbb := a[i].Domains(), b[i].Domains()
		if len(da) != len(dbb) {
			return false
		}
		for j := range da {
			if da[j] != dbb[j] {
				return false
			}
		}
	}
	return true
}

// --- XML persistence -------------------------------------------------

type xmlDatabase struct {
	XMLName xml.Name `xml:"trusted-keys"`
	Xmlns   string   `xml:"xmlns,attr"`
	Keys    []xmlKey `xml:"key"`
}

type xmlKey struct {
	Fingerprint string      `xml:"fingerprint,attr"`
	Domains     []xmlDomain `xml:"domain"`
}

type xmlDomain struct {
	Value string `xml:"value,attr"`
}

// Load reads a trust database from path. A missing file yields an
// empty, non-error Database — the capture/trust layer never fails
// startup because a cache file is absent (spec §7).
func Load(path string) (*Database, error) {
	db := NewDatabase()

	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return db, nil
	} else if err != nil {
		return nil, fmt.Errorf("trust: reading %s: %w", path, err)
	}

	var doc xmlDatabase
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("trust: parsing %s: %w", path, err)
	}
	for _, k := range doc.Keys {
		for _, d := range k.Domains {
			db.Trust(k.Fingerprint, d.Value)
		}
	}
	return db, nil
}

// LoadMerged loads the trust database at paths[0] (or an empty database
// if it doesn't exist yet), then unions in every (fingerprint, domain)
// pair found in the remaining paths. This is how per-user and
// system-wide trust configuration are combined (spec §4.2 "merge
// semantics").
func LoadMerged(paths []string) (*Database, error) {
	if len(paths) == 0 {
		return NewDatabase(), nil
	}

	db, err := Load(paths[0])
	if err != nil {
		return nil, err
	}
	for _, p := range paths[1:] {
		other, err := Load(p)
		if err != nil {
			return nil, err
		}
		for _, k := range other.Keys() {
			for _, d := range k.Domains() {
				db.Trust(k.Fingerprint, d)
			}
		}
	}
	return db, nil
}

// Save writes db to path atomically: it is first written to a
// temporary file in the same directory, then renamed into place, the
// same discipline the teacher's Cache uses for its index file (spec §5
// "atomic-rename writes").
func (db *Database) Save(path string) error {
	doc := xmlDatabase{Xmlns: trustNamespace}
	for _, k := range db.Keys() {
		xk := xmlKey{Fingerprint: k.Fingerprint}
		for _, d := range k.Domains() {
			xk.Domains = append(xk.Domains, xmlDomain{Value: d})
		}
		doc.Keys = append(doc.Keys, xk)
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("trust: marshaling trust DB: %w", err)
	}
	data = append([]byte(xml.Header), data...)
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0777); err != nil {
		return fmt.Errorf("trust: creating %s: %w", dir, err)
	}

	tmp, err := ioutil.TempFile(dir, ".trustdb-*.tmp")
	if err != nil {
		return fmt.Errorf("trust: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("trust: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("trust: closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("trust: renaming into place: %w", err)
	}
	return nil
}
