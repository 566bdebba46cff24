// Package server provides HTTP server initialization and management.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/speakaboutai/micdrop-go/internal/application/container"
	"github.com/speakaboutai/micdrop-go/internal/presentation/http/routes"
	"github.com/speakaboutai/micdrop-go/pkg/config"
)

// Server wraps http.Server with the wired container and the timeouts from
// config. The zero value is not usable; construct with New.
type Server struct {
	httpServer *http.Server
	container  *container.Container
}

// New builds the server around the full route tree.
func New(port string, appContainer *container.Container) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + port,
			Handler:      routes.SetupRoutes(appContainer),
			ReadTimeout:  config.ServerReadTimeout,
			WriteTimeout: config.ServerWriteTimeout,
			IdleTimeout:  config.ServerIdleTimeout,
		},
		container: appContainer,
	}
}

// Start listens and serves until Stop is called. A server closed through
// Stop returns nil, not http.ErrServerClosed.
func (s *Server) Start() error {
	s.container.Logger.System().Info("HTTP server listening", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Stop drains in-flight requests until the context expires.
func (s *Server) Stop(ctx context.Context) error {
	s.container.Logger.Shutdown().Info("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}
