// Package bundle reads and writes compressed archives of a recipe
// collection. A bundle is a .tar.xz holding the collection's markup
// sources and unit definition files plus a manifest. Bundles written
// by older tooling as .tar.gz can still be read.
package bundle

import (
	"encoding/json"
	"strings"
)

// ManifestName is the manifest filename inside a bundle.
const ManifestName = "manifest.json"

// ManifestVersion is the manifest format written by Create.
const ManifestVersion = "1"

// Manifest describes a bundle's contents.
type Manifest struct {
	Version   string `json:"version"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	Recipes   int    `json:"recipes"`
	Units     int    `json:"units_files,omitempty"`
}

// Stem strips the bundle extensions from a filename, giving the
// collection name used as the directory prefix inside the archive.
func Stem(filename string) string {
	for _, ext := range []string{".tar.xz", ".tar.gz", ".tar"} {
		if strings.HasSuffix(filename, ext) {
			return strings.TrimSuffix(filename, ext)
		}
	}
	return filename
}

// DetectFormat detects the archive format from the file extension.
func DetectFormat(path string) string {
	switch {
	case strings.HasSuffix(path, ".tar.xz"):
		return "tar.xz"
	case strings.HasSuffix(path, ".tar.gz"):
		return "tar.gz"
	case strings.HasSuffix(path, ".tar"):
		return "tar"
	default:
		return "unknown"
	}
}

// IsSupportedFormat returns true if the file has a supported archive extension.
func IsSupportedFormat(path string) bool {
	return DetectFormat(path) != "unknown"
}

// ReadManifest reads the manifest from a bundle.
func ReadManifest(path string) (*Manifest, error) {
	content, _, err := FindFile(path, func(name string) bool {
		return name == ManifestName || strings.HasSuffix(name, "/"+ManifestName)
	})
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(content, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
