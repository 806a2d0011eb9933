// Package server exposes the dashboard controller over HTTP with gin.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"jobhub/services/dashboard/internal/config"
	"jobhub/services/dashboard/internal/dashboard"
	"jobhub/services/dashboard/internal/models"
	"jobhub/services/dashboard/internal/query"
	"jobhub/services/dashboard/internal/tracker"

	"go.uber.org/zap"
)

// Dashboard is the controller surface the handlers use.
type Dashboard interface {
	View(d query.Descriptor) dashboard.View
	ViewFromURL(raw string) dashboard.View
	CurrentView() dashboard.View
	AddSearchToken(token string) dashboard.View
	Job(id string) (models.Job, bool)
	CreateOrUpdateJob(ctx context.Context, in dashboard.JobInput) (models.Job, error)
	DeleteJob(ctx context.Context, id string) (bool, error)
	Apply(ctx context.Context, jobID string) (bool, error)
	Applications(ctx context.Context, key query.SortKey) ([]tracker.Entry, error)
	ApplicationHistory(ctx context.Context) ([]models.ApplicationRecord, error)
	ClearApplications(ctx context.Context) error
	Refresh(ctx context.Context) error
}

type Server struct {
	dashboard Dashboard
	logger    *zap.Logger
	cfg       *config.Config
	http      *http.Server
}

func New(cfg *config.Config, d Dashboard, logger *zap.Logger) *Server {
	s := &Server{
		dashboard: d,
		logger:    logger,
		cfg:       cfg,
	}
	s.http = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start binds the listen address and serves in the background. Bind errors
// are returned; serve errors after that are logged.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.http.Addr)
	if err != nil {
		return err
	}

	s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.http.Shutdown(ctx)
}
