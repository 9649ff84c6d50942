package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"

	"spry-hq/sprylog/pkg/config"
)

// Server is the sidecar HTTP server.
type Server struct {
	config     *config.ServerConfig
	handler    http.Handler
	httpServer *http.Server
	logger     *slog.Logger

	onShutdown []func(ctx context.Context)

	mu           sync.RWMutex
	addr         net.Addr
	isRunning    bool
	shutdownOnce sync.Once
	ready        chan struct{}
}

// NewServer creates a server for handler.
func NewServer(cfg *config.ServerConfig, handler http.Handler) *Server {
	return &Server{
		config:  cfg,
		handler: handler,
		logger:  slog.Default().With("component", "server"),
		ready:   make(chan struct{}),
	}
}

// OnShutdown registers fn to run after the server stopped serving, within
// the shutdown timeout.
func (s *Server) OnShutdown(fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onShutdown = append(s.onShutdown, fn)
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down. It returns the listener error, if any.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	listener, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("listen on %s: %w", s.config.ListenAddress, err)
	}

	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.addr = listener.Addr()
	s.isRunning = true
	s.mu.Unlock()
	close(s.ready)

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "address", s.addr.String())
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		_ = s.Shutdown(context.Background())
		return err
	}
}

// Shutdown gracefully shuts down the server. Only the first call has an
// effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		hooks := slices.Clone(s.onShutdown)
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx := ctx
		if s.config.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
			defer cancel()
		}

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown failed: %w", err)
		}
		for _, fn := range hooks {
			fn(shutdownCtx)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server shutdown complete")
	})

	return shutdownErr
}

// Ready is closed once the server is listening.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
