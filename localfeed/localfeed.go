// Package localfeed loads feed documents from a directory of JSON
// files for offline use by the cmd/0install CLI.
//
// Feed/catalog XML serialization is explicitly out of scope for this
// tool (spec.md's Non-goals list it as an external collaborator
// reached through candidates.FeedLoader); this package is the minimal
// stand-in that boundary calls for so the CLI has something concrete
// to solve against without a network fetcher or XML document store.
package localfeed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/0install/0install-dotnet-sub004/config"
	"github.com/0install/0install-dotnet-sub004/model"
	"github.com/0install/0install-dotnet-sub004/version"
)

// Directory is a candidates.FeedLoader backed by "<dir>/<escaped
// URI>.json" files.
type Directory struct {
	Path string
}

type doc struct {
	URI          string           `json:"uri"`
	Name         string           `json:"name"`
	Implementations []implDoc     `json:"implementations"`
}

type implDoc struct {
	ID             string            `json:"id"`
	Version        string            `json:"version"`
	Architecture   string            `json:"architecture,omitempty"`
	Stability      string            `json:"stability,omitempty"`
	ManifestDigest string            `json:"manifest_digest,omitempty"`
	Commands       []commandDoc      `json:"commands,omitempty"`
	Dependencies   []dependencyDoc   `json:"dependencies,omitempty"`
	ArchiveHref    string            `json:"archive_href,omitempty"`
	ArchiveMime    string            `json:"archive_mime,omitempty"`
	ArchiveSize    int64             `json:"archive_size,omitempty"`
}

type commandDoc struct {
	Name      string   `json:"name"`
	Path      string   `json:"path"`
	Arguments []string `json:"arguments,omitempty"`
}

type dependencyDoc struct {
	InterfaceUri string `json:"interface"`
	Versions     string `json:"versions,omitempty"`
	Importance   string `json:"importance,omitempty"` // "essential" (default) or "recommended"
}

// Load reads "<dir>/<escaped feedURI>.json" and builds the
// corresponding normalised Feed.
func (d Directory) Load(feedURI string) (*model.Feed, error) {
	path := filepath.Join(d.Path, config.EscapeURI(feedURI)+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("localfeed: reading %s: %w", path, err)
	}

	var parsed doc
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("localfeed: parsing %s: %w", path, err)
	}
	if parsed.URI == "" {
		parsed.URI = feedURI
	}

	feed := &model.Feed{URI: parsed.URI, Name: parsed.Name}
	for _, id := range parsed.Implementations {
		impl, err := id.toImplementation()
		if err != nil {
			return nil, fmt.Errorf("localfeed: %s: implementation %s: %w", path, id.ID, err)
		}
		feed.Elements = append(feed.Elements, impl)
	}

	if err := feed.Normalize(); err != nil {
		return nil, fmt.Errorf("localfeed: normalising %s: %w", path, err)
	}
	return feed, nil
}

func (id implDoc) toImplementation() (*model.Implementation, error) {
	v, err := version.Parse(id.Version)
	if err != nil {
		return nil, fmt.Errorf("version: %w", err)
	}

	arch := model.AllArchitecture
	if id.Architecture != "" {
		arch, err = model.ParseArchitecture(id.Architecture)
		if err != nil {
			return nil, err
		}
	}

	stability := model.StabilityUnset
	if id.Stability != "" {
		var ok bool
		stability, ok = model.ParseStability(id.Stability)
		if !ok {
			return nil, fmt.Errorf("unknown stability %q", id.Stability)
		}
	}

	digest := model.ManifestDigest{}
	if id.ManifestDigest != "" {
		digest, err = model.ParseManifestDigest(id.ManifestDigest)
		if err != nil {
			return nil, err
		}
	}

	impl := &model.Implementation{
		ID:             id.ID,
		Version:        v,
		Architecture:   arch,
		Stability:      stability,
		ManifestDigest: digest,
	}

	for _, c := range id.Commands {
		impl.Commands = append(impl.Commands, model.Command{Name: c.Name, Path: c.Path, Arguments: c.Arguments})
	}

	for _, dd := range id.Dependencies {
		restriction := model.Restriction{InterfaceUri: dd.InterfaceUri}
		if dd.Versions != "" {
			r, err := version.ParseRange(dd.Versions)
			if err != nil {
				return nil, fmt.Errorf("dependency %s: %w", dd.InterfaceUri, err)
			}
			restriction.Versions = r
		}
		importance := model.Essential
		if dd.Importance == "recommended" {
			importance = model.Recommended
		}
		impl.Dependencies = append(impl.Dependencies, model.Dependency{Restriction: restriction, Importance: importance})
	}

	if id.ArchiveHref != "" {
		impl.RetrievalMethods = append(impl.RetrievalMethods, model.Archive{
			Href:     id.ArchiveHref,
			MimeType: id.ArchiveMime,
			Size:     id.ArchiveSize,
		})
	}

	return impl, nil
}
