package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docstruct/internal/config"
	"github.com/dgallion1/docstruct/internal/pathstore"
	"github.com/dgallion1/docstruct/internal/pipeline"
	"github.com/dgallion1/docstruct/internal/stats"
	"github.com/dgallion1/docstruct/internal/store"
)

// DocumentStore is the read/delete side of the result store.
type DocumentStore interface {
	List(ctx context.Context, limit int) ([]store.Document, error)
	GetByDocID(ctx context.Context, docID string) ([]store.Extraction, error)
	Delete(ctx context.Context, docID string) (int, error)
}

// Mirror is the pathstore side of document management.
type Mirror interface {
	Unpublish(ctx context.Context, docID string) error
	Published(ctx context.Context, docID string, limit int) ([]pathstore.ListChildrenResponse, error)
}

// Deps are the collaborators the API serves from. Mirror may be nil.
type Deps struct {
	Orchestrator *pipeline.Orchestrator
	Extractor    *pipeline.Extractor
	Store        DocumentStore
	Mirror       Mirror
	Stats        *stats.Tracker
}

// Server is the HTTP API server for docstruct.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/extract/{kind}", s.handleExtract)
		r.Post("/api/detect", s.handleDetect)

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Post("/api/ingest/batch", s.handleBatchIngest)

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{docID}", s.handleGetDocument)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)

		r.Get("/api/stats/extract", s.handleExtractStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
