package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"crouswatch/internal/config"
	"crouswatch/internal/monitor"
)

// Server holds the dependencies for the HTTP control surface.
type Server struct {
	config     *config.Config
	router     http.Handler
	httpServer *http.Server
	monitor    *monitor.Monitor
	settings   *config.Store
	logger     *zap.Logger
}

func NewServer(cfg *config.Config, mon *monitor.Monitor, settings *config.Store, l *zap.Logger) *Server {
	s := &Server{
		config:   cfg,
		monitor:  mon,
		settings: settings,
		logger:   l,
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", s.config.ServerPort),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
