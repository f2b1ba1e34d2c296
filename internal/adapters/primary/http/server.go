package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
	"github.com/fredcamaral/deckforge/internal/domain/services"
)

// ThemeService resolves and merges theme sources
type ThemeService interface {
	Merge(sources []entities.ThemeSource, priority entities.MergePriority) (*entities.ThemeResolution, error)
}

// LayoutCatalog lists the built-in layouts
type LayoutCatalog interface {
	Catalog() []entities.LayoutDefinition
}

// DeckValidator checks a deck without rendering it
type DeckValidator interface {
	Validate(ctx context.Context, spec *entities.DeckSpec) entities.ValidationReport
}

// DeckCompiler renders a deck into an artifact
type DeckCompiler interface {
	Compile(ctx context.Context, spec *entities.DeckSpec, progress services.ProgressFunc) (*entities.CompileResult, error)
}

// API bundles the domain services the server exposes. Cache and Metrics
// may be nil.
type API struct {
	Themes    ThemeService
	Layouts   LayoutCatalog
	Validator DeckValidator
	Compiler  DeckCompiler
	Cache     ports.AssetCache
	Metrics   ports.MetricsRecorder
}

// Options controls where request documents resolve paths and where
// artifacts are written
type Options struct {
	BaseDir   string
	OutputDir string
	RateLimit int // requests per minute per client, 0 for the default
}

// Server implements the HTTPServer interface
type Server struct {
	server  *http.Server
	connMgr *ConnectionManager
	limiter *rateLimiter
	api     API
	config  entities.ServerConfig
	opts    Options
	logger  *slog.Logger
	mu      sync.RWMutex
	running bool
}

// NewServer creates a new HTTP server
func NewServer(api API, config entities.ServerConfig, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 100
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	return &Server{
		api:     api,
		config:  config,
		opts:    opts,
		connMgr: NewConnectionManager(),
		limiter: newRateLimiter(opts.RateLimit, time.Minute),
		logger:  logger.With(slog.String("component", "http")),
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context, port int, host string) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}

	go s.connMgr.Run(ctx)
	go s.limiter.cleanupRoutine(ctx)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.config.GetCORSOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      c.Handler(s.Handler()),
		ReadTimeout:  s.config.GetReadTimeout(),
		WriteTimeout: s.config.GetWriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}
	s.running = true
	s.mu.Unlock()

	go func() {
		s.logger.Info("server starting", slog.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return errors.New("server not running")
	}

	s.connMgr.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.GetShutdownTimeout())
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.running = false
	return nil
}

// Publish sends an event to every connected websocket client
func (s *Server) Publish(event ports.StreamEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return errors.New("server not running")
	}

	s.connMgr.Broadcast(event)
	return nil
}

// IsRunning returns whether the server is currently running
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/ws/compile", s.handleCompileStream).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	api.HandleFunc("/layouts", s.handleLayouts).Methods(http.MethodGet)
	api.HandleFunc("/theme/resolve", s.handleThemeResolve).Methods(http.MethodPost)
	api.HandleFunc("/theme/merge", s.handleThemeMerge).Methods(http.MethodPost)
	api.HandleFunc("/validate", s.handleValidate).Methods(http.MethodPost)
	api.HandleFunc("/compile", s.handleCompile).Methods(http.MethodPost)
	api.HandleFunc("/cache/stats", s.handleCacheStats).Methods(http.MethodGet)
	api.HandleFunc("/cache/sweep", s.handleCacheSweep).Methods(http.MethodPost)

	// security -> rate limiting -> logging -> recovery
	var handler http.Handler = securityHeadersMiddleware(r)
	handler = s.rateLimitMiddleware(handler)
	handler = loggingMiddleware(handler, s.logger)
	handler = recoveryMiddleware(handler, s.logger)

	return handler
}

var _ ports.HTTPServer = (*Server)(nil)
