// Package api exposes the HTTP surface: subtitle search and download under
// /api/v1 plus a liveness probe. Handlers stay thin; resolution, coalescing
// and caching live behind the injected interfaces.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/subtitlarr/subtitlarr/internal/catalog"
	"github.com/subtitlarr/subtitlarr/internal/config"
	"github.com/subtitlarr/subtitlarr/internal/models"
)

// KeyResolver turns request parameters into a catalog-backed SearchKey.
type KeyResolver interface {
	Resolve(ctx context.Context, ref catalog.Ref) (models.SearchKey, error)
}

// SearchCoordinator is the slice of the search coordinator the handlers
// consume.
type SearchCoordinator interface {
	Search(ctx context.Context, key models.SearchKey, requestedLanguage string, timeout time.Duration) (*models.SearchResult, error)
}

// Downloader fetches one subtitle payload by provider token.
type Downloader interface {
	DownloadSubtitle(ctx context.Context, req models.DownloadRequest) (*models.DownloadResult, error)
}

// Dependencies carries everything the server needs; all of it is injected so
// tests can substitute stubs.
type Dependencies struct {
	Config      *config.Config
	Resolver    KeyResolver
	Coordinator SearchCoordinator
	Downloader  Downloader
}

// Server is the HTTP front of the service.
type Server struct {
	server *http.Server
	logger zerolog.Logger
	cfg    *config.Config

	resolver    KeyResolver
	coordinator SearchCoordinator
	downloader  Downloader
}

func NewServer(deps *Dependencies) *Server {
	return &Server{
		server: &http.Server{
			ReadHeaderTimeout: 15 * time.Second,
			ReadTimeout:       30 * time.Second,
			// A search with no caller timeout legitimately blocks until the
			// upstream call finishes, which can take many minutes; writes
			// must not be bounded below that.
			WriteTimeout: 0,
			IdleTimeout:  180 * time.Second,
		},
		logger:      config.GetLogger().With().Str("module", "api").Logger(),
		cfg:         deps.Config,
		resolver:    deps.Resolver,
		coordinator: deps.Coordinator,
		downloader:  deps.Downloader,
	}
}

// Handler builds the router. Exposed separately from ListenAndServe so tests
// can drive it without a listener.
func (s *Server) Handler() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	// Liveness stays outside the logged group to keep probe noise out of the
	// request log.
	r.Get("/healthz", s.handleHealthz)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(requestLogger(s.logger))

		api.Get("/subtitles/search", s.handleSearch)
		api.Get("/subtitles/download", s.handleDownload)
	})

	return r
}

// ListenAndServe blocks serving requests until the listener fails or the
// server is shut down.
func (s *Server) ListenAndServe() error {
	s.server.Addr = fmt.Sprintf("%s:%d", s.cfg.Server.Address, s.cfg.Server.Port)
	s.server.Handler = s.Handler()

	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting API server")
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
