//go:build windows

package capture

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows/registry"
)

// captureRoots lists the registry subtrees the collectors inspect.
var captureRoots = []struct {
	hive registry.Key
	name string
	path string
}{
	{registry.CLASSES_ROOT, "HKCR", ``},
	{registry.LOCAL_MACHINE, "HKLM", `SOFTWARE\Clients`},
	{registry.LOCAL_MACHINE, "HKLM", `SOFTWARE\RegisteredApplications`},
	{registry.LOCAL_MACHINE, "HKLM", `SOFTWARE\Microsoft\Windows\CurrentVersion\Explorer\FileExts`},
	{registry.CURRENT_USER, "HKCU", `SOFTWARE\Microsoft\Windows\CurrentVersion\Explorer\FileExts`},
}

// TakeSnapshot walks every capture root and the Program Files
// directories, producing a Snapshot suitable for diffing against a
// later capture.
func TakeSnapshot() (*Snapshot, error) {
	snap := &Snapshot{}

	for _, root := range captureRoots {
		if err := walkKey(snap, root.hive, root.name, root.path); err != nil {
			return nil, fmt.Errorf("capture: walking %s\\%s: %w", root.name, root.path, err)
		}
	}

	for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)"} {
		base := os.Getenv(env)
		if base == "" {
			continue
		}
		entries, err := os.ReadDir(base)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				snap.ProgramFilesDirs = append(snap.ProgramFilesDirs, filepath.Join(base, e.Name()))
			}
		}
	}

	return snap, nil
}

func walkKey(snap *Snapshot, hive registry.Key, hiveName, path string) error {
	k, err := registry.OpenKey(hive, path, registry.READ)
	if err != nil {
		if err == registry.ErrNotExist {
			return nil
		}
		return err
	}
	defer k.Close()

	valueNames, err := k.ReadValueNames(-1)
	if err == nil {
		for _, name := range valueNames {
			value, _, err := k.GetStringValue(name)
			if err != nil {
				continue
			}
			snap.Entries = append(snap.Entries, RegistryEntry{Hive: hiveName, Key: path, Name: name, Value: value})
		}
	}

	subkeys, err := k.ReadSubKeyNames(-1)
	if err != nil {
		return nil
	}
	for _, sub := range subkeys {
		childPath := sub
		if path != "" {
			childPath = path + `\` + sub
		}
		if err := walkKey(snap, hive, hiveName, childPath); err != nil {
			return err
		}
	}
	return nil
}
