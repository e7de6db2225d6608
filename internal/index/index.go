// Package index maintains a SQLite catalog of a recipe collection.
// A scan walks the collection directory, parses the metadata of every
// markup source, and records name, path, servings, tags and a content
// hash. Re-scans skip files whose hash is unchanged, so only edited
// recipes are parsed again. The catalog backs recipe-reference
// resolution and the server's name lookups.
package index

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	galley "github.com/FocuswithJustin/Galley"
	"github.com/FocuswithJustin/Galley/core/analysis"
	"github.com/FocuswithJustin/Galley/core/sqlite"
	"github.com/FocuswithJustin/Galley/internal/logging"
	"github.com/FocuswithJustin/Galley/internal/validation"
)

const schema = `
CREATE TABLE IF NOT EXISTS recipes (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	path       TEXT NOT NULL UNIQUE,
	hash       TEXT NOT NULL,
	servings   INTEGER,
	tags       TEXT NOT NULL DEFAULT '',
	scanned_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_recipes_name ON recipes (name)`

// Entry is one indexed recipe.
type Entry struct {
	ID        string
	Name      string
	Path      string // relative to the collection root, slash-separated
	Hash      string
	Servings  *int32
	Tags      []string
	ScannedAt time.Time
}

// Index is a catalog of recipes stored in a SQLite database.
type Index struct {
	db *sql.DB
}

// Open opens (creating if necessary) the index database at path.
func Open(path string) (*Index, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize index schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Close closes the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// ScanResult summarizes one collection scan.
type ScanResult struct {
	Scanned  int // recipe files examined
	Updated  int // entries inserted or refreshed
	Skipped  int // unchanged, unreadable or oversized files
	Pruned   int // entries whose file vanished
	Duration time.Duration
}

type scanItem struct {
	rel   string
	entry *Entry // nil when the file was skipped
}

// Scan walks dir for recipe files and brings the catalog up to date.
// Files are hashed and parsed in parallel; database writes stay on the
// calling goroutine. Entries for files no longer on disk are pruned.
func (ix *Index) Scan(ctx context.Context, dir string) (*ScanResult, error) {
	start := time.Now()

	known, err := ix.knownHashes()
	if err != nil {
		return nil, err
	}

	files, err := collectRecipeFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	// Buffer covers every file so workers never block on the writer.
	results := make(chan scanItem, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, rel := range files {
		rel := rel
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results <- examine(dir, rel, known[rel])
			return nil
		})
	}

	go func() {
		g.Wait()
		close(results)
	}()

	res := &ScanResult{Scanned: len(files)}
	seen := make(map[string]bool, len(files))
	for item := range results {
		seen[item.rel] = true
		if item.entry == nil {
			res.Skipped++
			continue
		}
		if err := ix.upsert(item.entry); err != nil {
			return nil, err
		}
		res.Updated++
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for path := range known {
		if seen[path] {
			continue
		}
		if _, err := ix.db.Exec(`DELETE FROM recipes WHERE path = ?`, path); err != nil {
			return nil, fmt.Errorf("failed to prune %s: %w", path, err)
		}
		res.Pruned++
	}

	res.Duration = time.Since(start)
	logging.IndexScan(dir, res.Scanned, res.Updated, res.Skipped, res.Duration, "pruned", res.Pruned)
	return res, nil
}

// examine reads and hashes one recipe file. It returns an entry to
// upsert, or a bare item when the file is unchanged or unusable.
func examine(dir, rel, knownHash string) scanItem {
	full := filepath.Join(dir, filepath.FromSlash(rel))
	data, err := os.ReadFile(full)
	if err != nil {
		logging.Warn("skipping unreadable recipe", "path", rel, "error", err)
		return scanItem{rel: rel}
	}
	if len(data) > validation.MaxRecipeSize {
		logging.Warn("skipping oversized recipe", "path", rel, "size", len(data))
		return scanItem{rel: rel}
	}

	sum := blake3.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	if hash == knownHash {
		return scanItem{rel: rel}
	}

	name := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
	meta, rep := galley.ParseMetadata(string(data))
	if len(rep.Errors()) > 0 || len(rep.Warnings()) > 0 {
		logging.RecipeParsed(name, len(rep.Errors()), len(rep.Warnings()), "path", rel)
	}

	return scanItem{rel: rel, entry: &Entry{
		Name:      name,
		Path:      rel,
		Hash:      hash,
		Servings:  meta.Special.Servings,
		Tags:      meta.Special.Tags,
		ScannedAt: time.Now(),
	}}
}

// collectRecipeFiles returns the slash-separated relative paths of all
// recipe files under dir. Hidden directories are not descended into.
func collectRecipeFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !validation.IsRecipeFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (ix *Index) knownHashes() (map[string]string, error) {
	rows, err := ix.db.Query(`SELECT path, hash FROM recipes`)
	if err != nil {
		return nil, fmt.Errorf("failed to load known hashes: %w", err)
	}
	defer rows.Close()

	known := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, err
		}
		known[path] = hash
	}
	return known, rows.Err()
}

// upsert inserts or refreshes an entry. A path conflict keeps the
// existing row id so entry identity survives edits.
func (ix *Index) upsert(e *Entry) error {
	var servings any
	if e.Servings != nil {
		servings = int64(*e.Servings)
	}

	_, err := ix.db.Exec(`INSERT INTO recipes (id, name, path, hash, servings, tags, scanned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name = excluded.name,
			hash = excluded.hash,
			servings = excluded.servings,
			tags = excluded.tags,
			scanned_at = excluded.scanned_at`,
		uuid.New().String(), e.Name, e.Path, e.Hash, servings,
		strings.Join(e.Tags, ","), e.ScannedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to index %s: %w", e.Path, err)
	}
	return nil
}

// Lookup returns all entries whose name matches, ignoring case.
func (ix *Index) Lookup(name string) ([]Entry, error) {
	return ix.queryEntries(`SELECT id, name, path, hash, servings, tags, scanned_at
		FROM recipes WHERE name = ? COLLATE NOCASE ORDER BY path`, name)
}

// List returns every entry ordered by name.
func (ix *Index) List() ([]Entry, error) {
	return ix.queryEntries(`SELECT id, name, path, hash, servings, tags, scanned_at
		FROM recipes ORDER BY name, path`)
}

// Count returns the number of indexed recipes.
func (ix *Index) Count() (int, error) {
	var n int
	err := ix.db.QueryRow(`SELECT COUNT(*) FROM recipes`).Scan(&n)
	return n, err
}

func (ix *Index) queryEntries(query string, args ...any) ([]Entry, error) {
	rows, err := ix.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var servings sql.NullInt64
		var tags string
		var scannedAt int64
		if err := rows.Scan(&e.ID, &e.Name, &e.Path, &e.Hash, &servings, &tags, &scannedAt); err != nil {
			return nil, err
		}
		if servings.Valid {
			v := int32(servings.Int64)
			e.Servings = &v
		}
		if tags != "" {
			e.Tags = strings.Split(tags, ",")
		}
		e.ScannedAt = time.Unix(scannedAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Checker returns a recipe reference checker backed by the catalog.
// One name match resolves the reference, none reports it missing, and
// several leave it ambiguous.
func (ix *Index) Checker() analysis.RecipeChecker {
	return func(name string) analysis.RefCheck {
		entries, err := ix.Lookup(name)
		if err != nil {
			return analysis.RefCheck{
				Kind:    analysis.RefNotFound,
				Message: fmt.Sprintf("recipe index unavailable: %v", err),
			}
		}
		switch len(entries) {
		case 0:
			return analysis.RefCheck{Kind: analysis.RefNotFound}
		case 1:
			return analysis.RefCheck{Kind: analysis.RefFound}
		default:
			return analysis.RefCheck{
				Kind:    analysis.RefAmbiguous,
				Message: fmt.Sprintf("%d recipes share this name", len(entries)),
			}
		}
	}
}
