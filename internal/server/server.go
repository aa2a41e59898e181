// Package server exposes templates, exports, delivery and rewriting over an
// HTTP API.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shineum/eml-studio/internal/eml"
	"github.com/shineum/eml-studio/internal/provider"
	"github.com/shineum/eml-studio/internal/rewrite"
	"github.com/shineum/eml-studio/internal/store"
)

const (
	// defaultShutdownTimeout bounds how long in-flight requests may run
	// after shutdown starts.
	defaultShutdownTimeout = 10 * time.Second

	defaultMaxBodyBytes = 5 << 20
)

// ServerConfig holds the configuration for the HTTP API.
type ServerConfig struct {
	// ListenAddr is the address to listen on (e.g., ":8080").
	ListenAddr string

	Store    store.Store
	Provider provider.Provider

	// Rewriter is optional. Without it POST /rewrite answers 503.
	Rewriter rewrite.Rewriter

	// Serializer defaults to eml.New().
	Serializer *eml.Serializer

	// TLSConfig enables HTTPS when non-nil.
	TLSConfig *tls.Config

	// AuthUsername and AuthPassword configure HTTP basic auth.
	// If both are empty, authentication is not required.
	AuthUsername string
	AuthPassword string

	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

// Server serves the HTTP API.
type Server struct {
	config ServerConfig
	auth   *Authenticator

	mu       sync.Mutex
	listener net.Listener
}

// New creates a new Server with the given configuration.
func New(cfg ServerConfig) *Server {
	if cfg.Serializer == nil {
		cfg.Serializer = eml.New()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	return &Server{
		config: cfg,
		auth:   NewAuthenticator(cfg.AuthUsername, cfg.AuthPassword),
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Use(identityMiddleware)
		r.Use(s.limitBody)

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.listTemplates)
			r.Post("/", s.createTemplate)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getTemplate)
				r.Put("/", s.updateTemplate)
				r.Delete("/", s.deleteTemplate)
				r.Post("/export", s.exportTemplate)
				r.Post("/send", s.sendTemplate)
			})
		})

		r.Post("/rewrite", s.rewrite)
	})

	return r
}

// ListenAndServe starts the HTTP server and blocks until the context is
// cancelled. On cancellation it stops accepting connections and waits up to
// the shutdown timeout for in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return err
	}
	if s.config.TLSConfig != nil {
		ln = tls.NewListener(ln, s.config.TLSConfig)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	providerName := ""
	if s.config.Provider != nil {
		providerName = s.config.Provider.Name()
	}
	slog.Info("HTTP server listening",
		"addr", ln.Addr().String(),
		"provider", providerName,
		"rewrite_enabled", s.config.Rewriter != nil,
		"auth_enabled", s.auth.Enabled(),
		"tls_enabled", s.config.TLSConfig != nil,
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown timeout reached, forcing close", "error", err)
		srv.Close()
	} else {
		slog.Info("all requests completed")
	}
	<-errCh
	return nil
}

// Addr returns the listener address, or empty string if not listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
