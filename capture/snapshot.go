// Package capture implements the Windows application-capture
// pipeline: snapshot the registry and Program Files before and after
// running a third-party installer, diff the two snapshots, and turn
// the new registry state into a 0install feed describing the
// installed application's capabilities.
package capture

import "sort"

// RegistryEntry is one observed (key, value name, data) triple,
// normalised to a canonical string form so Snapshots taken on the same
// machine at different times can be diffed by simple set membership.
type RegistryEntry struct {
	Hive  string // "HKCU", "HKLM" or "HKCR"
	Key   string // backslash-separated path below the hive
	Name  string // value name; "" denotes the key's default value
	Value string
}

// Snapshot is a point-in-time capture of the registry subtrees the
// collectors care about, plus a listing of Program Files directories,
// used to detect the installer's target directory by diffing against
// a later Snapshot.
type Snapshot struct {
	Entries          []RegistryEntry
	ProgramFilesDirs []string
}

// Diff is every entry/directory present in "after" but not in
// "before".
type Diff struct {
	NewEntries []RegistryEntry
	NewDirs    []string
}

// ComputeDiff returns the entries and directories newly present in
// after relative to before.
func ComputeDiff(before, after *Snapshot) *Diff {
	seen := make(map[string]bool, len(before.Entries))
	for _, e := range before.Entries {
		seen[entryKey(e)] = true
	}

	d := &Diff{}
	for _, e := range after.Entries {
		if !seen[entryKey(e)] {
			d.NewEntries = append(d.NewEntries, e)
		}
	}

	seenDirs := make(map[string]bool, len(before.ProgramFilesDirs))
	for _, dir := range before.ProgramFilesDirs {
		seenDirs[dir] = true
	}
	for _, dir := range after.ProgramFilesDirs {
		if !seenDirs[dir] {
			d.NewDirs = append(d.NewDirs, dir)
		}
	}

	sort.Strings(d.NewDirs)
	return d
}

func entryKey(e RegistryEntry) string {
	return e.Hive + "\x00" + e.Key + "\x00" + e.Name + "\x00" + e.Value
}

// entriesUnder returns every entry in d.NewEntries whose Key is
// exactly prefix, or a descendant of it (prefix + `\`).
func (d *Diff) entriesUnder(prefix string) []RegistryEntry {
	var out []RegistryEntry
	for _, e := range d.NewEntries {
		if e.Key == prefix || (len(e.Key) > len(prefix) && e.Key[:len(prefix)+1] == prefix+`\`) {
			out = append(out, e)
		}
	}
	return out
}

// valueOf returns the value of name under key, and whether it was
// found, among the diff's new entries.
func (d *Diff) valueOf(key, name string) (string, bool) {
	for _, e := range d.NewEntries {
		if e.Key == key && e.Name == name {
			return e.Value, true
		}
	}
	return "", false
}
