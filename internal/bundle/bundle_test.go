package bundle

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ulikunitz/xz"
)

// makeCollection writes a small recipe collection and returns its path.
func makeCollection(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "dinner")
	files := map[string]string{
		"pancakes.cook":            ">> servings: 4\n\nMix @flour{200%g}.\n",
		"sauces/tomato sauce.cook": "Simmer @tomatoes{1%kg}.\n",
		"units.yaml":               "default_system: metric\n",
		"notes.txt":                "not bundled",
		".git/config.cook":         "not bundled either",
	}
	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", rel, err)
		}
	}
	return dir
}

func bundleNames(t *testing.T, path string) []string {
	t.Helper()
	var names []string
	err := IterateBundle(path, func(header *tar.Header, _ io.Reader) (bool, error) {
		names = append(names, header.Name)
		return false, nil
	})
	if err != nil {
		t.Fatalf("failed to iterate bundle: %v", err)
	}
	return names
}

func TestCreate(t *testing.T) {
	srcDir := makeCollection(t)
	dstPath := filepath.Join(t.TempDir(), "dinner.tar.xz")

	manifest, err := Create(srcDir, dstPath)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if manifest.Version != ManifestVersion {
		t.Errorf("manifest version = %q, want %q", manifest.Version, ManifestVersion)
	}
	if manifest.Name != "dinner" {
		t.Errorf("manifest name = %q, want dinner", manifest.Name)
	}
	if manifest.Recipes != 2 {
		t.Errorf("manifest recipes = %d, want 2", manifest.Recipes)
	}
	if manifest.Units != 1 {
		t.Errorf("manifest units = %d, want 1", manifest.Units)
	}
	if _, err := time.Parse(time.RFC3339, manifest.CreatedAt); err != nil {
		t.Errorf("created_at %q is not RFC3339: %v", manifest.CreatedAt, err)
	}

	names := bundleNames(t, dstPath)
	want := map[string]bool{
		"dinner/manifest.json":            false,
		"dinner/pancakes.cook":            false,
		"dinner/sauces/tomato sauce.cook": false,
		"dinner/units.yaml":               false,
	}
	for _, n := range names {
		if _, ok := want[n]; !ok {
			t.Errorf("unexpected entry in bundle: %s", n)
			continue
		}
		want[n] = true
	}
	for n, found := range want {
		if !found {
			t.Errorf("missing entry in bundle: %s", n)
		}
	}

	// manifest comes first so tooling can read it without a full pass
	if len(names) == 0 || names[0] != "dinner/manifest.json" {
		t.Errorf("first entry = %v, want dinner/manifest.json", names)
	}
}

func TestReadManifest(t *testing.T) {
	srcDir := makeCollection(t)
	dstPath := filepath.Join(t.TempDir(), "dinner.tar.xz")

	if _, err := Create(srcDir, dstPath); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	m, err := ReadManifest(dstPath)
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	if m.Name != "dinner" || m.Recipes != 2 || m.Units != 1 {
		t.Errorf("manifest = %+v", m)
	}
}

func TestExtractRoundTrip(t *testing.T) {
	srcDir := makeCollection(t)
	dstPath := filepath.Join(t.TempDir(), "dinner.tar.xz")

	if _, err := Create(srcDir, dstPath); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	outDir := t.TempDir()
	written, err := Extract(dstPath, outDir)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if written != 4 {
		t.Errorf("Extract wrote %d files, want 4", written)
	}

	got, err := os.ReadFile(filepath.Join(outDir, "dinner", "sauces", "tomato sauce.cook"))
	if err != nil {
		t.Fatalf("extracted recipe missing: %v", err)
	}
	if string(got) != "Simmer @tomatoes{1%kg}.\n" {
		t.Errorf("extracted content = %q", got)
	}

	if _, err := os.Stat(filepath.Join(outDir, "dinner", "notes.txt")); !os.IsNotExist(err) {
		t.Error("notes.txt should not have been bundled")
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	// Hand-craft a bundle with an escaping entry.
	dstPath := filepath.Join(t.TempDir(), "evil.tar.xz")
	f, err := os.Create(dstPath)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	xzw, err := xz.NewWriter(f)
	if err != nil {
		t.Fatalf("failed to create xz writer: %v", err)
	}
	tw := tar.NewWriter(xzw)
	content := []byte("pwned")
	if err := tw.WriteHeader(&tar.Header{Name: "../escape.cook", Mode: 0644, Size: int64(len(content))}); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatalf("failed to write content: %v", err)
	}
	tw.Close()
	xzw.Close()
	f.Close()

	outDir := t.TempDir()
	if _, err := Extract(dstPath, outDir); err == nil {
		t.Fatal("expected error extracting bundle with traversal entry")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(outDir), "escape.cook")); !os.IsNotExist(err) {
		t.Error("traversal entry was written outside the target directory")
	}
}

func TestReadFile(t *testing.T) {
	srcDir := makeCollection(t)
	dstPath := filepath.Join(t.TempDir(), "dinner.tar.xz")

	if _, err := Create(srcDir, dstPath); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// lookup works with the collection prefix stripped
	got, err := ReadFile(dstPath, "pancakes.cook")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(got), "@flour{200%g}") {
		t.Errorf("unexpected content: %q", got)
	}

	if _, err := ReadFile(dstPath, "missing.cook"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestContainsPath(t *testing.T) {
	srcDir := makeCollection(t)
	dstPath := filepath.Join(t.TempDir(), "dinner.tar.xz")

	if _, err := Create(srcDir, dstPath); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := ContainsPath(dstPath, func(name string) bool {
		return strings.HasSuffix(name, "units.yaml")
	})
	if err != nil {
		t.Fatalf("ContainsPath failed: %v", err)
	}
	if !found {
		t.Error("units.yaml not found in bundle")
	}

	found, err = ContainsPath(dstPath, func(name string) bool {
		return strings.HasSuffix(name, ".txt")
	})
	if err != nil {
		t.Fatalf("ContainsPath failed: %v", err)
	}
	if found {
		t.Error("bundle should contain no .txt entries")
	}
}

func TestNewReaderUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.zip")
	if err := os.WriteFile(path, []byte("PK"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := NewReader(path); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestStem(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"dinner.tar.xz", "dinner"},
		{"dinner.tar.gz", "dinner"},
		{"dinner.tar", "dinner"},
		{"dinner", "dinner"},
		{"week.menu.tar.xz", "week.menu"},
	}
	for _, tt := range tests {
		if got := Stem(tt.in); got != tt.want {
			t.Errorf("Stem(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a.tar.xz", "tar.xz"},
		{"a.tar.gz", "tar.gz"},
		{"a.tar", "tar"},
		{"a.zip", "unknown"},
	}
	for _, tt := range tests {
		if got := DetectFormat(tt.path); got != tt.want {
			t.Errorf("DetectFormat(%q) = %q, want %q", tt.path, got, tt.want)
		}
		wantSupported := tt.want != "unknown"
		if got := IsSupportedFormat(tt.path); got != wantSupported {
			t.Errorf("IsSupportedFormat(%q) = %v, want %v", tt.path, got, wantSupported)
		}
	}
}

func TestReadGzipBundle(t *testing.T) {
	// Older bundles were gzip-compressed; reading them still works.
	dstPath := filepath.Join(t.TempDir(), "old.tar.gz")
	f, err := os.Create(dstPath)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	gzw := gzip.NewWriter(f)
	tw := tar.NewWriter(gzw)
	content := []byte("Stir @porridge{}.\n")
	if err := tw.WriteHeader(&tar.Header{Name: "old/porridge.cook", Mode: 0644, Size: int64(len(content))}); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatalf("failed to write content: %v", err)
	}
	tw.Close()
	gzw.Close()
	f.Close()

	got, err := ReadFile(dstPath, "porridge.cook")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content = %q, want %q", got, content)
	}
}
