package capture

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/0install/0install-dotnet-sub004/model"
)

// Session drives a before/after capture around running a third-party
// installer: Start records the machine's state, Diff (once the
// installer has finished) computes what changed and locates the new
// installation directory, and Finish turns that directory into a
// Feed ready to publish.
type Session struct {
	before *Snapshot
}

// Start takes the "before" snapshot. Call it immediately before
// launching the installer under test.
func Start() (*Session, error) {
	snap, err := TakeSnapshot()
	if err != nil {
		return nil, err
	}
	return &Session{before: snap}, nil
}

// ErrAmbiguousInstallDir describes the case of more than one new
// Program Files directory. Diff does not return it: Diff reports that
// case (and the case of no new directory) with an empty installDir and
// a nil error.
var ErrAmbiguousInstallDir = fmt.Errorf("capture: multiple new installation directories found; pass one explicitly")

// Diff takes the "after" snapshot and computes what changed since
// Start. When exactly one new Program Files directory appeared, it is
// returned as the detected install directory; when none or several
// did, installDir is "" and the caller must supply one to Finish.
func (s *Session) Diff() (diff *Diff, installDir string, err error) {
	after, err := TakeSnapshot()
	if err != nil {
		return nil, "", err
	}
	d := ComputeDiff(s.before, after)

	if len(d.NewDirs) == 1 {
		return d, d.NewDirs[0], nil
	}
	return d, "", nil
}

// Finish assembles a Feed describing the captured application: a
// single local Implementation whose manifest digest is computed over
// installDir, with every collector's findings attached as
// Capabilities, and an Archive retrieval method pointing at
// archivePath/archiveURL once it is packaged and published.
func Finish(d *Diff, installDir string, commands []model.Command, feedURI, archiveURL, archivePath string) (*model.Feed, error) {
	return FinishWithProgress(d, installDir, commands, feedURI, archiveURL, archivePath, nil)
}

// FinishWithProgress is Finish with an optional onFile callback,
// invoked once per file hashed while building the manifest digest, so
// a caller packaging a large installation directory can drive a
// progress bar.
func FinishWithProgress(d *Diff, installDir string, commands []model.Command, feedURI, archiveURL, archivePath string, onFile func()) (*model.Feed, error) {
	if installDir == "" {
		return nil, fmt.Errorf("capture: no installation directory to build a feed from")
	}

	digest, err := GenerateManifestDigestWithProgress(installDir, onFile)
	if err != nil {
		return nil, err
	}

	mapper := NewCommandMapper(installDir, commands)

	var caps []model.Capability
	caps = append(caps, collectFileTypes(d, mapper)...)
	caps = append(caps, collectContextMenus(d, mapper)...)
	caps = append(caps, collectAutoPlay(d)...)
	caps = append(caps, collectDefaultPrograms(d, installDir)...)
	if reg := collectAppRegistration(d); reg != nil {
		caps = append(caps, reg)
	}

	archive, err := buildArchiveMethod(archiveURL, archivePath)
	if err != nil {
		return nil, err
	}

	id, _ := digest.Best()
	impl := &model.Implementation{
		ID:               id,
		InterfaceUri:     feedURI,
		FeedUri:          feedURI,
		ManifestDigest:   digest,
		RetrievalMethods: []model.RetrievalMethod{archive},
		Commands:         commands,
		Capabilities:     caps,
	}

	return &model.Feed{
		URI:          feedURI,
		Elements:     []model.Element{impl},
		Capabilities: caps,
	}, nil
}

// buildArchiveMethod implements spec.md §4.6's collectFiles: the
// archive's MIME type is guessed from its extension and its size read
// straight off disk.
func buildArchiveMethod(archiveURL, archivePath string) (model.Archive, error) {
	info, err := os.Stat(archivePath)
	if err != nil {
		return model.Archive{}, fmt.Errorf("capture: reading archive %s: %w", archivePath, err)
	}

	mimeType := archiveMimeByExt(archivePath)
	if mimeType == "application/octet-stream" {
		if guessed := mime.TypeByExtension(filepath.Ext(archivePath)); guessed != "" {
			mimeType = guessed
		}
	}

	return model.Archive{
		Href:     archiveURL,
		MimeType: mimeType,
		Size:     info.Size(),
	}, nil
}

// archiveMimeByExt recognises the handful of archive formats 0install
// feeds commonly reference; stdlib mime.TypeByExtension is consulted
// only as a fallback, since it depends on the host's installed
// mime.types and does not know compound extensions like .tar.gz.
func archiveMimeByExt(path string) string {
	switch {
	case hasSuffixFold(path, ".tar.gz"), hasSuffixFold(path, ".tgz"):
		return "application/x-compressed-tar"
	case hasSuffixFold(path, ".tar.bz2"):
		return "application/x-bzip-compressed-tar"
	case hasSuffixFold(path, ".zip"):
		return "application/zip"
	case hasSuffixFold(path, ".7z"):
		return "application/x-7z-compressed"
	default:
		return "application/octet-stream"
	}
}

func hasSuffixFold(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	tail := s[len(s)-len(suffix):]
	for i := 0; i < len(suffix); i++ {
		a, b := tail[i], suffix[i]
		if 'A' <= a && a <= 'Z' {
			a += 'a' - 'A'
		}
		if 'A' <= b && b <= 'Z' {
			b += 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}
