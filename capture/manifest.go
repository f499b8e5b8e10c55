package capture

import (
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/0install/0install-dotnet-sub004/model"
)

// GenerateManifestDigest walks dir and computes its sha256new manifest
// digest: a line per entry ("F <hash> <size> <name>", "X <hash> <size>
// <name>" for executables, "D <name>" for directories), sorted and
// newline-joined, then hashed again to produce the digest value. This
// mirrors the two-level hashing 0install's own manifest format uses so
// that the digest changes if, and only if, the tree's contents or
// executable bits change.
func GenerateManifestDigest(dir string) (model.ManifestDigest, error) {
	return GenerateManifestDigestWithProgress(dir, nil)
}

// GenerateManifestDigestWithProgress is GenerateManifestDigest with an
// optional onFile callback invoked once per file hashed, so a caller
// packaging a large installation directory can drive a progress bar.
func GenerateManifestDigestWithProgress(dir string, onFile func()) (model.ManifestDigest, error) {
	lines, err := manifestLines(dir, "", onFile)
	if err != nil {
		return nil, err
	}
	sort.Strings(lines)

	listing := strings.Join(lines, "\n")
	if listing != "" {
		listing += "\n"
	}

	sum := sha256.Sum256([]byte(listing))
	value := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum[:])
	return model.ManifestDigest{model.AlgoSha256New: value}, nil
}

func manifestLines(dir, prefix string, onFile func()) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("capture: reading %s: %w", dir, err)
	}

	var lines []string
	for _, entry := range entries {
		name := prefix + entry.Name()
		full := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			lines = append(lines, "D "+name)
			sub, err := manifestLines(full, name+"/", onFile)
			if err != nil {
				return nil, err
			}
			lines = append(lines, sub...)
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, err
		}

		hash, err := hashFile(full)
		if err != nil {
			return nil, err
		}
		if onFile != nil {
			onFile()
		}

		kind := "F"
		if info.Mode()&0o111 != 0 {
			kind = "X"
		}
		lines = append(lines, fmt.Sprintf("%s %s %d %s", kind, hash, info.Size(), name))
	}
	return lines, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
