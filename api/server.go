package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ruizcommerce/storefront-backend/pkg/config"
	"github.com/ruizcommerce/storefront-backend/pkg/logger"
)

const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 120 * time.Second
)

// Server wraps http.Server with the timeouts the API runs with.
type Server struct {
	httpServer *http.Server
	logg       *logger.Logger
}

// NewServer builds the API server around the given handler.
func NewServer(cfg *config.Config, handler http.Handler, logg *logger.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.App.Port,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
		logg: logg,
	}
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "addr", s.httpServer.Addr), "api server listening")
	}
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
