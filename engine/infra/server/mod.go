package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stackmesh/template-agent/engine/agent"
	"github.com/stackmesh/template-agent/engine/infra/store"
	"github.com/stackmesh/template-agent/pkg/config"
	"github.com/stackmesh/template-agent/pkg/logger"
)

// agentSession is the slice of agent.Session the handlers need. Tests swap
// in fakes through the acquire hook.
type agentSession interface {
	Run(ctx context.Context, sessionID, input string) (string, error)
	Saver() store.Saver
	Release(ctx context.Context)
}

type acquireFunc func(ctx context.Context, cfg *config.Config, opts ...agent.Option) (agentSession, error)

func defaultAcquire(ctx context.Context, cfg *config.Config, opts ...agent.Option) (agentSession, error) {
	session, err := agent.Acquire(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Server is the HTTP serving surface. Each chat request acquires its own
// agent session and releases it when the request scope ends.
type Server struct {
	cfg     *config.Config
	router  *gin.Engine
	acquire acquireFunc
}

func NewServer(cfg *config.Config) *Server {
	s := &Server{cfg: cfg, acquire: defaultAcquire}
	s.buildRouter()
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP listener and blocks until the context is canceled or
// a termination signal arrives, then shuts down gracefully. TLS is enabled
// when both the key and certificate files are configured.
func (s *Server) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// Model calls dominate response time, so writes get a generous bound.
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	useTLS := s.cfg.Server.SSLKeyfile != "" && s.cfg.Server.SSLCertfile != ""
	errCh := make(chan error, 1)
	go func() {
		var err error
		if useTLS {
			log.Info("Starting HTTPS server", "address", addr)
			err = srv.ListenAndServeTLS(s.cfg.Server.SSLCertfile, s.cfg.Server.SSLKeyfile)
		} else {
			log.Info("Starting HTTP server", "address", addr)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
		log.Debug("Received shutdown signal, initiating graceful shutdown")
	case <-ctx.Done():
		log.Debug("Context canceled, initiating graceful shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("Server shutdown completed")
	return nil
}
