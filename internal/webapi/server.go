// Package webapi serves the dissection engine over HTTP.
package webapi

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dissect-kit/dissect-go/internal/host"
	"github.com/dissect-kit/dissect-go/pkg/discovery"
	"github.com/dissect-kit/dissect-go/pkg/inspect"
)

// MaxBodySize limits the packet bytes accepted per request.
const MaxBodySize = 1 << 20

// Config holds API server configuration.
type Config struct {
	Listen  string
	Version string

	// Announce advertises the server over DNS-SD once it is listening.
	Announce bool

	// Instance overrides the DNS-SD instance name.
	Instance string
}

// Server is the HTTP API server.
type Server struct {
	config    Config
	host      *host.Host
	inspector *inspect.Inspector
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a server for h. A nil logger uses slog.Default().
func New(config Config, h *host.Host, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Version == "" {
		config.Version = "dev"
	}
	return &Server{
		config:    config,
		host:      h,
		inspector: inspect.NewInspector(h.Registry()),
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Listen, err)
	}
	s.logger.Info("API server starting", "listen", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	if s.config.Announce {
		adv := discovery.NewAdvertiser(discovery.AdvertiserConfig{TTL: discovery.DefaultTTL, Logger: s.logger})
		if err := adv.Advertise(s.serviceInfo(ln.Addr())); err != nil {
			s.logger.Warn("DNS-SD announcement failed", "error", err)
		}
		defer adv.Stop()
	}

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// serviceInfo describes this server for DNS-SD.
func (s *Server) serviceInfo(addr net.Addr) *discovery.ServiceInfo {
	instance := s.config.Instance
	if instance == "" {
		hostname, _ := os.Hostname()
		instance = discovery.InstanceName(hostname)
	}
	var port uint16
	if tcp, ok := addr.(*net.TCPAddr); ok {
		port = uint16(tcp.Port)
	}
	return &discovery.ServiceInfo{
		Instance:    instance,
		Port:        port,
		Version:     s.config.Version,
		Fingerprint: s.host.Registry().Fingerprint(),
		Protocols:   len(s.host.Filters()),
		APIPrefix:   discovery.DefaultAPIPrefix,
	}
}

// Handler returns the router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/protocols", s.handleProtocols)
		r.Get("/protocols/{protocol}", s.handleProtocol)
		r.Get("/tables", s.handleTables)
		r.Put("/tables/{table}/decode-as", s.handleDecodeAs)
		r.Post("/dissect/{protocol}", s.handleDissect)
		r.Post("/size/{protocol}", s.handleSize)
	})
	return r
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
