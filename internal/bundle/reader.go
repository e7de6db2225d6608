package bundle

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

// Reader streams the entries of a bundle, decompressing as needed.
type Reader struct {
	tr      *tar.Reader
	closers []io.Closer // closed in reverse order
}

// NewReader opens the bundle at path. The compression layer follows
// the extension, so every format DetectFormat knows is readable.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	r := &Reader{closers: []io.Closer{f}}

	switch DetectFormat(path) {
	case "tar.xz":
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		r.tr = tar.NewReader(xzr)
	case "tar.gz":
		gzr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		r.closers = append(r.closers, gzr)
		r.tr = tar.NewReader(gzr)
	case "tar":
		r.tr = tar.NewReader(f)
	default:
		f.Close()
		return nil, fmt.Errorf("unsupported bundle format: %s", path)
	}
	return r, nil
}

// Close releases the compression layer and the underlying file.
func (r *Reader) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Visitor handles one bundle entry. Returning stop ends the walk early;
// content is only valid until the visitor returns.
type Visitor func(header *tar.Header, content io.Reader) (stop bool, err error)

// Iterate calls visitor for every entry in order.
func (r *Reader) Iterate(visitor Visitor) error {
	for {
		header, err := r.tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}
		stop, err := visitor(header, r.tr)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// IterateBundle opens the bundle at path and walks its entries.
func IterateBundle(path string, visitor Visitor) error {
	r, err := NewReader(path)
	if err != nil {
		return err
	}
	defer r.Close()
	return r.Iterate(visitor)
}

// find walks the bundle until match accepts an entry name. It returns
// the entry's name and, when wantContent is set, its content.
func find(path string, match func(name string) bool, wantContent bool) (content []byte, name string, found bool, err error) {
	err = IterateBundle(path, func(header *tar.Header, r io.Reader) (bool, error) {
		if !match(header.Name) {
			return false, nil
		}
		found = true
		name = header.Name
		if !wantContent {
			return true, nil
		}
		var readErr error
		content, readErr = io.ReadAll(r)
		return true, readErr
	})
	return content, name, found, err
}

// ContainsPath reports whether any entry name satisfies the predicate.
func ContainsPath(path string, predicate func(name string) bool) (bool, error) {
	_, _, found, err := find(path, predicate, false)
	return found, err
}

// ReadFile returns the content of the named file. The collection
// prefix Create adds is ignored, so "pancakes.cook" finds
// "dinner/pancakes.cook" as well as a bare entry.
func ReadFile(bundlePath, filename string) ([]byte, error) {
	content, _, found, err := find(bundlePath, func(name string) bool {
		if name == filename {
			return true
		}
		_, base, ok := strings.Cut(name, "/")
		return ok && base == filename
	}, true)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("file not found: %s", filename)
	}
	return content, nil
}

// FindFile returns the content and full name of the first entry whose
// name satisfies the predicate.
func FindFile(bundlePath string, predicate func(name string) bool) ([]byte, string, error) {
	content, name, found, err := find(bundlePath, predicate, true)
	if err != nil {
		return nil, "", err
	}
	if !found {
		return nil, "", fmt.Errorf("no matching file found")
	}
	return content, name, nil
}
