// Package server exposes live documents over an HTTP JSON API.
//
// Documents are created, driven with pointer input and toolbar commands,
// exported as markup or rendered artifacts, and saved as snapshots. Every
// request that touches a document goes through [session.Document.Do], so
// concurrent requests against one document are serialised.
//
// # Routes
//
//	GET    /healthz
//	GET    /api/documents
//	POST   /api/documents
//	GET    /api/documents/{id}
//	DELETE /api/documents/{id}
//	POST   /api/documents/{id}/pointer
//	POST   /api/documents/{id}/cells/{cellID}/toggle
//	POST   /api/documents/{id}/commands
//	GET    /api/documents/{id}/markup
//	PUT    /api/documents/{id}/markup
//	GET    /api/documents/{id}/render.png
//	GET    /api/documents/{id}/stack.svg
//	GET    /api/documents/{id}/render.txt
//	GET    /api/documents/{id}/events
//	POST   /api/documents/{id}/snapshots
//	GET    /api/snapshots
//	GET    /api/snapshots/{sid}
//	POST   /api/snapshots/{sid}/open
//	DELETE /api/snapshots/{sid}
//
// Errors are returned as {"code": ..., "error": ...} with a status derived
// from the error code.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/gridcraft/internal/session"
	"github.com/matzehuels/gridcraft/pkg/buildinfo"
	"github.com/matzehuels/gridcraft/pkg/observability"
	"github.com/matzehuels/gridcraft/pkg/pipeline"
)

// maxBodyBytes bounds JSON and markup request bodies.
const maxBodyBytes = 2 << 20

// shutdownTimeout is how long Run waits for in-flight requests.
const shutdownTimeout = 10 * time.Second

// Server is the HTTP API.
type Server struct {
	router   chi.Router
	sessions *session.Manager
	runner   *pipeline.Runner
	events   *broadcaster
	logger   *log.Logger
	grid     [2]int
}

// Option configures a Server.
type Option func(*Server)

// WithRunner sets the artifact pipeline, which carries the cache.
func WithRunner(r *pipeline.Runner) Option {
	return func(s *Server) { s.runner = r }
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithDefaultGrid sets the grid used when a create request omits one.
func WithDefaultGrid(xCells, yCells int) Option {
	return func(s *Server) { s.grid = [2]int{xCells, yCells} }
}

// New returns a server for the documents of m.
func New(m *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions: m,
		events:   newBroadcaster(),
		logger:   log.Default(),
		grid:     [2]int{50, 20},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Use(securityHeaders)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.handleListDocuments)
			r.Post("/", s.handleCreateDocument)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDocument)
				r.Delete("/", s.handleDeleteDocument)
				r.Post("/pointer", s.handlePointer)
				r.Post("/cells/{cellID}/toggle", s.handleToggle)
				r.Post("/commands", s.handleCommand)
				r.Get("/markup", s.handleGetMarkup)
				r.Put("/markup", s.handlePutMarkup)
				r.Get("/render.png", s.handleArtifact(pipeline.FormatPNG))
				r.Get("/stack.svg", s.handleArtifact(pipeline.FormatSVG))
				r.Get("/render.txt", s.handleArtifact(pipeline.FormatText))
				r.Get("/events", s.handleEvents)
				r.Post("/snapshots", s.handleSaveSnapshot)
			})
		})
		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", s.handleListSnapshots)
			r.Get("/{sid}", s.handleGetSnapshot)
			r.Post("/{sid}/open", s.handleOpenSnapshot)
			r.Delete("/{sid}", s.handleDeleteSnapshot)
		})
	})
	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// observe logs every request and reports it to the HTTP hooks.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, status, elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed.Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Lifecycle
// =============================================================================

// RunOptions configures the listener.
type RunOptions struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// IdleTimeout closes documents unused for this long. Zero disables it.
	IdleTimeout time.Duration
}

// Run listens on opts.Addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, opts RunOptions) error {
	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln, opts)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. Open event streams are closed when shutdown begins.
func (s *Server) Serve(ctx context.Context, ln net.Listener, opts RunOptions) error {
	srv := &http.Server{
		Handler:      s,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	srv.RegisterOnShutdown(s.events.closeAll)

	if opts.IdleTimeout > 0 {
		go s.sweep(ctx, opts.IdleTimeout)
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String(), "version", buildinfo.Version)
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// sweep closes idle documents until ctx is cancelled.
func (s *Server) sweep(ctx context.Context, idle time.Duration) {
	ticker := time.NewTicker(max(idle/4, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sessions.Cleanup(idle)
		}
	}
}
