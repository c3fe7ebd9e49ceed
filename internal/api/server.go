package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dgallion1/formulatag/internal/config"
	"github.com/dgallion1/formulatag/internal/paragraphs"
	"github.com/dgallion1/formulatag/internal/pipeline"
	"github.com/dgallion1/formulatag/internal/store"
	"github.com/dgallion1/formulatag/internal/vocab"
)

// Server is the HTTP API server for formulatag.
type Server struct {
	router     chi.Router
	store      store.Store
	paragraphs *paragraphs.Library
	pretag     *pipeline.Orchestrator
	vocab      *vocab.Vocabulary
	log        *slog.Logger
	cfg        *config.Config
}

// NewServer creates and configures the HTTP server. lib and pretag may be
// nil, in which case the paragraph and pre-tagging endpoints answer 503.
func NewServer(st store.Store, lib *paragraphs.Library, pretag *pipeline.Orchestrator, v *vocab.Vocabulary, log *slog.Logger, cfg *config.Config) *Server {
	s := &Server{
		store:      st,
		paragraphs: lib,
		pretag:     pretag,
		vocab:      v,
		log:        log,
		cfg:        cfg,
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
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "If-None-Match"},
		ExposedHeaders: []string{"ETag"},
		MaxAge:         300,
	}))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	// Authenticated endpoints, when an API key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Get("/annotations", s.handleListAnnotations)
		r.Get("/annotations/{docID}", s.handleGetAnnotations)
		r.Put("/annotations/{docID}", s.handlePutAnnotations)
		r.Get("/stats", s.handleTagStats)

		r.Get("/paragraph/random", s.handleRandomParagraph)
		r.Get("/paragraph/{ref}", s.handleGetParagraph)
		r.Get("/suggestions/{ref}", s.handleSuggestions)
		r.Post("/paragraphs", s.handleSplitUpload)

		r.Post("/pretag", s.handlePretag)
		r.Get("/pretag/{jobID}", s.handlePretagStatus)

		r.Get("/vocabulary", s.handleVocabulary)

		// Paths used by the older browser clients.
		r.Get("/getAnnotations/{docID}", s.handleGetAnnotations)
		r.Put("/storeAnnotations/{docID}", s.handlePutAnnotations)
		r.Put("/storeAnnos/{docID}", s.handlePutAnnotations)
		r.Get("/getRandomParagraph", s.handleRandomParagraph)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
