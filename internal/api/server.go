// Package api provides the HTTP API server and handlers for chapterd.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/chapterdapp/chapterd/internal/config"
	"github.com/chapterdapp/chapterd/internal/ratelimit"
	"github.com/chapterdapp/chapterd/internal/search"
	"github.com/chapterdapp/chapterd/internal/service"
	"github.com/chapterdapp/chapterd/internal/store"
	"github.com/chapterdapp/chapterd/internal/transcribe"
	"github.com/chapterdapp/chapterd/internal/validation"
)

// apiVersion is reported in the OpenAPI document and the health response.
const apiVersion = "1.0.0"

// Server holds dependencies for HTTP handlers.
type Server struct {
	service     *service.ChapterService
	store       *store.Store
	index       *search.SegmentIndex
	transcriber transcribe.Transcriber
	validator   *validation.Validator
	limiter     *ratelimit.Keyed
	router      *chi.Mux
	api         huma.API
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	cfg config.ServerConfig,
	svc *service.ChapterService,
	st *store.Store,
	index *search.SegmentIndex,
	transcriber transcribe.Transcriber,
	logger *slog.Logger,
) *Server {
	s := &Server{
		service:     svc,
		store:       st,
		index:       index,
		transcriber: transcriber,
		validator:   validation.New(),
		limiter:     ratelimit.New(cfg.RateLimit, cfg.RateBurst),
		router:      chi.NewRouter(),
		logger:      logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig(cfg.Name+" API", apiVersion)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerJobRoutes()
	s.registerSearchRoutes()
	s.registerLanguageRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
}
