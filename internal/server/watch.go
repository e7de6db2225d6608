package server

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/FocuswithJustin/Galley/internal/logging"
	"github.com/FocuswithJustin/Galley/internal/validation"
)

// fileStamp is the cheap change signal for one recipe file.
type fileStamp struct {
	size    int64
	modTime int64
}

// watch polls the collection for changed recipe files and pushes the
// results to connected clients. Polling keeps the server dependency
// free of platform notification APIs and is plenty for a directory of
// recipes.
func (s *Server) watch(ctx context.Context) {
	interval := s.cfg.PollInterval
	if interval <= 0 {
		interval = time.Second
	}

	last, err := s.stamps()
	if err != nil {
		logging.Error("initial watch scan failed", "error", err)
		last = map[string]fileStamp{}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		next, err := s.stamps()
		if err != nil {
			logging.Error("watch scan failed", "error", err)
			continue
		}

		dirty := false
		for rel, st := range next {
			if prev, ok := last[rel]; !ok || prev != st {
				dirty = true
				s.broadcastParse(rel)
			}
		}
		for rel := range last {
			if _, ok := next[rel]; !ok {
				dirty = true
				name := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
				s.hub.Broadcast(UpdateMessage{Type: "remove", Name: name, Path: rel})
			}
		}
		last = next

		if dirty {
			// Unchanged files are hash-skipped, so a full rescan stays cheap.
			if _, err := s.idx.Scan(ctx, s.cfg.Dir); err != nil {
				logging.Error("index rescan failed", "error", err)
			}
		}
	}
}

// stamps snapshots every recipe file under the collection root, keyed
// by slash-separated relative path. Hidden directories are skipped the
// same way the index walker skips them.
func (s *Server) stamps() (map[string]fileStamp, error) {
	out := make(map[string]fileStamp)
	root := s.cfg.Dir
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !validation.IsRecipeFile(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = fileStamp{size: info.Size(), modTime: info.ModTime().UnixNano()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// broadcastParse re-parses one changed file and announces the result.
func (s *Server) broadcastParse(rel string) {
	p, err := s.loadRecipe(rel)
	if err != nil {
		logging.Error("failed to reload recipe", "path", rel, "error", err)
		return
	}
	name := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
	errs := len(p.rep.Errors())
	warns := len(p.rep.Warnings())
	s.hub.Broadcast(UpdateMessage{
		Type:     "update",
		Name:     name,
		Path:     rel,
		Errors:   errs,
		Warnings: warns,
	})
	logging.RecipeParsed(name, errs, warns, "trigger", "watch")
}
