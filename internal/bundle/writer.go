package bundle

import (
	"archive/tar"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/Galley/internal/validation"
)

func isUnitsFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// Create writes a .tar.xz bundle of the collection at srcDir. Recipe
// sources and unit definition files are included; everything else is
// left out. The manifest is written as the first entry and returned.
func Create(srcDir, dstPath string) (*Manifest, error) {
	var recipes, units []string
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != srcDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		switch {
		case validation.IsRecipeFile(d.Name()):
			recipes = append(recipes, filepath.ToSlash(rel))
		case isUnitsFile(d.Name()):
			units = append(units, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", srcDir, err)
	}

	name := Stem(filepath.Base(dstPath))
	manifest := &Manifest{
		Version:   ManifestVersion,
		Name:      name,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Recipes:   len(recipes),
		Units:     len(units),
	}

	outFile, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create bundle file: %w", err)
	}
	defer outFile.Close()

	xzw, err := xz.NewWriter(outFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create xz writer: %w", err)
	}

	tw := tar.NewWriter(xzw)

	// Same timestamp on every entry so rebuilding an unchanged
	// collection differs only in created_at.
	now := time.Now()

	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := writeEntry(tw, name+"/"+ManifestName, manifestJSON, now); err != nil {
		return nil, err
	}

	for _, rel := range append(recipes, units...) {
		data, err := os.ReadFile(filepath.Join(srcDir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", rel, err)
		}
		if err := writeEntry(tw, name+"/"+rel, data, now); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	if err := xzw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish compression: %w", err)
	}
	return manifest, nil
}

func writeEntry(tw *tar.Writer, name string, data []byte, modTime time.Time) error {
	header := &tar.Header{
		Name:    name,
		Mode:    0644,
		Size:    int64(len(data)),
		ModTime: modTime,
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write header for %s: %w", name, err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Extract unpacks a bundle into dstDir and returns the number of files
// written. Entry names are validated so a crafted bundle cannot write
// outside dstDir.
func Extract(path, dstDir string) (int, error) {
	r, err := NewReader(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	written := 0
	err = r.Iterate(func(header *tar.Header, content io.Reader) (bool, error) {
		if header.Typeflag != tar.TypeReg {
			return false, nil
		}
		if header.Size > validation.MaxBundleSize {
			return false, fmt.Errorf("entry %s exceeds size limit", header.Name)
		}

		rel, err := validation.SanitizePath(dstDir, header.Name)
		if err != nil {
			return false, fmt.Errorf("unsafe entry %s: %w", header.Name, err)
		}

		full := filepath.Join(dstDir, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return false, err
		}

		f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return false, err
		}
		if _, err := io.Copy(f, content); err != nil {
			f.Close()
			return false, fmt.Errorf("failed to extract %s: %w", header.Name, err)
		}
		if err := f.Close(); err != nil {
			return false, err
		}
		written++
		return false, nil
	})
	if err != nil {
		return written, err
	}
	return written, nil
}
