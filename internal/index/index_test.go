package index

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/Galley/core/analysis"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := Open(filepath.Join(t.TempDir(), "galley.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix
}

func writeRecipe(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
}

func TestScanBuildsEntries(t *testing.T) {
	ix := newTestIndex(t)
	dir := t.TempDir()

	writeRecipe(t, dir, "breakfast/pancakes.cook",
		">> servings: 4\n>> tags: breakfast, quick\n\nMix @flour{200%g} with @milk{300%ml}.\n")
	writeRecipe(t, dir, "sauces/pesto.cook",
		"Blend @basil{1%bunch} with @olive oil{50%ml}.\n")
	writeRecipe(t, dir, "notes.txt", "not a recipe")

	res, err := ix.Scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if res.Scanned != 2 {
		t.Errorf("Scanned = %d, want 2", res.Scanned)
	}
	if res.Updated != 2 {
		t.Errorf("Updated = %d, want 2", res.Updated)
	}
	if res.Skipped != 0 || res.Pruned != 0 {
		t.Errorf("Skipped/Pruned = %d/%d, want 0/0", res.Skipped, res.Pruned)
	}

	entries, err := ix.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List returned %d entries, want 2", len(entries))
	}

	// ordered by name: pancakes, pesto
	pancakes := entries[0]
	if pancakes.Name != "pancakes" {
		t.Fatalf("first entry name = %q, want pancakes", pancakes.Name)
	}
	if pancakes.Path != "breakfast/pancakes.cook" {
		t.Errorf("path = %q, want breakfast/pancakes.cook", pancakes.Path)
	}
	if pancakes.ID == "" {
		t.Error("entry has no id")
	}
	if len(pancakes.Hash) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(pancakes.Hash))
	}
	if pancakes.Servings == nil || *pancakes.Servings != 4 {
		t.Errorf("servings = %v, want 4", pancakes.Servings)
	}
	if len(pancakes.Tags) != 2 || pancakes.Tags[0] != "breakfast" || pancakes.Tags[1] != "quick" {
		t.Errorf("tags = %v, want [breakfast quick]", pancakes.Tags)
	}

	pesto := entries[1]
	if pesto.Name != "pesto" {
		t.Fatalf("second entry name = %q, want pesto", pesto.Name)
	}
	if pesto.Servings != nil {
		t.Errorf("pesto servings = %d, want none", *pesto.Servings)
	}
	if len(pesto.Tags) != 0 {
		t.Errorf("pesto tags = %v, want none", pesto.Tags)
	}
}

func TestRescanSkipsUnchanged(t *testing.T) {
	ix := newTestIndex(t)
	dir := t.TempDir()

	writeRecipe(t, dir, "soup.cook", "Simmer @stock{1%l}.\n")
	writeRecipe(t, dir, "bread.cook", "Knead @flour{500%g}.\n")

	if _, err := ix.Scan(context.Background(), dir); err != nil {
		t.Fatalf("first scan failed: %v", err)
	}

	res, err := ix.Scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("second scan failed: %v", err)
	}
	if res.Updated != 0 || res.Skipped != 2 {
		t.Errorf("rescan Updated/Skipped = %d/%d, want 0/2", res.Updated, res.Skipped)
	}

	before, err := ix.Lookup("soup")
	if err != nil || len(before) != 1 {
		t.Fatalf("Lookup soup: %v entries, err %v", len(before), err)
	}

	writeRecipe(t, dir, "soup.cook", ">> servings: 2\n\nSimmer @stock{2%l}.\n")

	res, err = ix.Scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("third scan failed: %v", err)
	}
	if res.Updated != 1 || res.Skipped != 1 {
		t.Errorf("after edit Updated/Skipped = %d/%d, want 1/1", res.Updated, res.Skipped)
	}

	after, err := ix.Lookup("soup")
	if err != nil || len(after) != 1 {
		t.Fatalf("Lookup soup after edit: %v entries, err %v", len(after), err)
	}
	if after[0].Hash == before[0].Hash {
		t.Error("hash did not change after edit")
	}
	if after[0].ID != before[0].ID {
		t.Errorf("entry id changed across rescan: %s -> %s", before[0].ID, after[0].ID)
	}
	if after[0].Servings == nil || *after[0].Servings != 2 {
		t.Errorf("servings = %v, want 2", after[0].Servings)
	}
}

func TestScanPrunesDeleted(t *testing.T) {
	ix := newTestIndex(t)
	dir := t.TempDir()

	writeRecipe(t, dir, "keep.cook", "Keep @salt{}.\n")
	writeRecipe(t, dir, "gone.cook", "Remove @pepper{}.\n")

	if _, err := ix.Scan(context.Background(), dir); err != nil {
		t.Fatalf("first scan failed: %v", err)
	}

	if err := os.Remove(filepath.Join(dir, "gone.cook")); err != nil {
		t.Fatalf("failed to remove file: %v", err)
	}

	res, err := ix.Scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("second scan failed: %v", err)
	}
	if res.Pruned != 1 {
		t.Errorf("Pruned = %d, want 1", res.Pruned)
	}

	count, err := ix.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Count = %d, want 1", count)
	}

	entries, _ := ix.Lookup("gone")
	if len(entries) != 0 {
		t.Errorf("pruned recipe still resolvable: %v", entries)
	}
}

func TestScanSkipsHiddenAndOversized(t *testing.T) {
	ix := newTestIndex(t)
	dir := t.TempDir()

	writeRecipe(t, dir, "visible.cook", "Add @salt{}.\n")
	writeRecipe(t, dir, ".git/hidden.cook", "Add @secrets{}.\n")
	writeRecipe(t, dir, "huge.cook", strings.Repeat("Stir the pot for a while.\n", 200_000))

	res, err := ix.Scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	// hidden.cook is never walked; huge.cook is examined but skipped
	if res.Scanned != 2 {
		t.Errorf("Scanned = %d, want 2", res.Scanned)
	}
	if res.Updated != 1 {
		t.Errorf("Updated = %d, want 1", res.Updated)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
}

func TestLookupIgnoresCase(t *testing.T) {
	ix := newTestIndex(t)
	dir := t.TempDir()

	writeRecipe(t, dir, "sauces/Tomato Sauce.cook", "Simmer @tomatoes{1%kg}.\n")

	if _, err := ix.Scan(context.Background(), dir); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	for _, query := range []string{"Tomato Sauce", "tomato sauce", "TOMATO SAUCE"} {
		entries, err := ix.Lookup(query)
		if err != nil {
			t.Fatalf("Lookup(%q) failed: %v", query, err)
		}
		if len(entries) != 1 {
			t.Errorf("Lookup(%q) returned %d entries, want 1", query, len(entries))
		}
	}
}

func TestChecker(t *testing.T) {
	ix := newTestIndex(t)
	dir := t.TempDir()

	writeRecipe(t, dir, "basics/tomato sauce.cook", "Simmer @tomatoes{1%kg}.\n")
	writeRecipe(t, dir, "italian/tomato sauce.cook", "Simmer @san marzano{1%kg}.\n")
	writeRecipe(t, dir, "pesto.cook", "Blend @basil{1%bunch}.\n")

	if _, err := ix.Scan(context.Background(), dir); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	check := ix.Checker()

	if res := check("pesto"); res.Kind != analysis.RefFound {
		t.Errorf("pesto: kind = %v, want RefFound", res.Kind)
	}
	if res := check("tomato sauce"); res.Kind != analysis.RefAmbiguous {
		t.Errorf("tomato sauce: kind = %v, want RefAmbiguous", res.Kind)
	} else if !strings.Contains(res.Message, "2 recipes") {
		t.Errorf("ambiguous message = %q", res.Message)
	}
	if res := check("aioli"); res.Kind != analysis.RefNotFound {
		t.Errorf("aioli: kind = %v, want RefNotFound", res.Kind)
	}
}

func TestOpenBadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "nested", "galley.db"))
	if err == nil {
		t.Fatal("expected error opening database in missing directory")
	}
}
