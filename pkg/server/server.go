// Package server exposes the release registry over HTTP: signed version
// and hash metadata, and the raw release bytes.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/patchgo/patchgo/pkg/release"
)

// Server wraps a release.Registry with the HTTP surface that serves it.
type Server struct {
	registry *release.Registry
	logger   *zap.Logger

	httpServer *http.Server
	listener   net.Listener
}

// New builds a Server listening on addr and serving registry. logger may be
// nil, in which case a no-op logger is used.
func New(addr string, registry *release.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{registry: registry, logger: logger}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      withRequestID(s.withAccessLog(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /latest", s.handleLatest)
	mux.HandleFunc("GET /hashes/{version}", s.handleHash)
	mux.HandleFunc("GET /releases/{version}", s.handleRelease)
}

// Start begins serving in a background goroutine. It returns once the
// listener is bound, mirroring the synchronous-bind/async-serve split
// daemons typically use so the caller can observe bind failures.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server: failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.listener = listener

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("release server stopped unexpectedly", zap.Error(err))
		}
	}()

	s.logger.Info("release server listening", zap.String("addr", listener.Addr().String()))
	return nil
}

// Addr returns the bound listener address. Valid only after Start succeeds.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully stops the HTTP server, waiting up to the context
// deadline for in-flight requests (notably large streamed downloads) to
// finish.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
