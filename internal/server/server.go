// Package server runs the live-preview server over a recipe collection:
// a small JSON API backed by the collection index, plus a websocket feed
// that re-parses recipes as their files change on disk.
package server

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	galley "github.com/FocuswithJustin/Galley"
	"github.com/FocuswithJustin/Galley/core/cache"
	"github.com/FocuswithJustin/Galley/core/recipe"
	"github.com/FocuswithJustin/Galley/core/report"
	"github.com/FocuswithJustin/Galley/internal/index"
	"github.com/FocuswithJustin/Galley/internal/logging"
	"github.com/FocuswithJustin/Galley/internal/validation"
)

// Config holds the live-preview server configuration.
type Config struct {
	// Dir is the collection root the server previews.
	Dir string

	// IndexPath is the SQLite index location.
	IndexPath string

	// Port is the TCP port to listen on.
	Port int

	// AllowedOrigins restricts CORS and websocket origins. Empty allows
	// any origin, which suits local preview.
	AllowedOrigins []string

	// PollInterval is the change-watcher cadence. Zero means one second.
	PollInterval time.Duration
}

// parsed is one cached parse: the model together with its report, keyed
// by content hash so edits invalidate naturally.
type parsed struct {
	rec *recipe.Recipe
	rep *report.Report
}

// Server serves one recipe collection.
type Server struct {
	cfg    Config
	parser *galley.Parser
	idx    *index.Index
	parses cache.Cache[string, parsed]
	hub    *Hub
}

// New opens the collection index and builds a server around it. The
// parser resolves recipe references against the index catalog.
func New(cfg Config) (*Server, error) {
	ix, err := index.Open(cfg.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	p := galley.NewParser()
	p.RecipeChecker = ix.Checker()
	return &Server{
		cfg:    cfg,
		parser: p,
		idx:    ix,
		parses: cache.NewLRUCache[string, parsed](cache.Config{MaxSize: 128}),
		hub:    NewHub(),
	}, nil
}

// Close releases the index.
func (s *Server) Close() error {
	return s.idx.Close()
}

// Handler returns the complete middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/recipes", s.handleRecipes)
	mux.HandleFunc("/api/recipe", s.handleRecipe)
	mux.HandleFunc("/api/watch", s.handleWatch)

	var handler http.Handler = securityHeaders(mux)
	handler = corsMiddleware(s.cfg.AllowedOrigins, handler)
	return logging.CombinedMiddleware(handler)
}

// Start brings the catalog up to date, starts the hub and the change
// watcher, and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if _, err := s.idx.Scan(ctx, s.cfg.Dir); err != nil {
		return fmt.Errorf("failed to scan collection: %w", err)
	}
	go s.hub.Run(ctx)
	go s.watch(ctx)

	logging.ServerStartup("live_preview", "http", s.cfg.Port,
		"collection", s.cfg.Dir,
		"websocket_protocol", "ws")
	if len(s.cfg.AllowedOrigins) > 0 {
		logging.SecurityEvent("cors_configured", "server",
			"mode", "restricted",
			"allowed_origins", len(s.cfg.AllowedOrigins))
	} else {
		logging.SecurityEvent("cors_configured", "server",
			"mode", "permissive")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(sctx)
	}()
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// loadRecipe reads and parses one collection file. Repeated requests for
// unchanged content come out of the parse cache; the cached entry keeps
// the report so a hit answers with the same diagnostics as the parse did.
func (s *Server) loadRecipe(rel string) (parsed, error) {
	clean, err := validation.SanitizePath(s.cfg.Dir, filepath.FromSlash(rel))
	if err != nil {
		logging.SecurityEvent("path_rejected", "server", "path", rel, "error", err.Error())
		return parsed{}, fmt.Errorf("invalid recipe path %q: %w", rel, err)
	}
	data, err := os.ReadFile(filepath.Join(s.cfg.Dir, clean))
	if err != nil {
		return parsed{}, fmt.Errorf("failed to read recipe: %w", err)
	}

	sum := blake3.Sum256(data)
	key := hex.EncodeToString(sum[:])
	if p, ok := s.parses.Get(key); ok {
		return p, nil
	}

	rec, rep := s.parser.Parse(string(data))
	p := parsed{rec: rec, rep: rep}
	s.parses.Put(key, p)
	return p, nil
}
