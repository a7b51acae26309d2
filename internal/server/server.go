package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lazypower/recount/internal/config"
	"github.com/lazypower/recount/internal/store"
)

// Server is the local recount HTTP API: browse discovered conversations,
// preview their rendered Markdown, and trigger exports.
type Server struct {
	db          *store.DB
	cfg         config.Config
	projectsDir string
	router      chi.Router
	version     string
	started     time.Time
}

// New creates a Server over the given export-history database, config, and
// conversation projects directory.
func New(db *store.DB, cfg config.Config, projectsDir, version string) *Server {
	s := &Server{
		db:          db,
		cfg:         cfg,
		projectsDir: projectsDir,
		version:     version,
		started:     time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/conversations", s.handleListConversations)
		r.Get("/conversations/{sessionID}/markdown", s.handleConversationMarkdown)
		r.Post("/exports", s.handleCreateExport)
		r.Get("/exports", s.handleListExports)
	})

	r.Get("/*", spaHandler())

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
