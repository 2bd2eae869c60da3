// Package server exposes the notification webhook and the read API over HTTP.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shintopc/UPI-voice-alert/internal/announce"
	"github.com/shintopc/UPI-voice-alert/internal/common"
	"github.com/shintopc/UPI-voice-alert/internal/ingest"
	"github.com/shintopc/UPI-voice-alert/internal/model"
	"github.com/shintopc/UPI-voice-alert/internal/report"
	"github.com/shintopc/UPI-voice-alert/internal/service"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8765"

// maxBodyBytes caps request bodies; notifications are a few hundred bytes.
const maxBodyBytes = 64 << 10

// NotificationHandler runs one notification through ingestion.
type NotificationHandler interface {
	Handle(ctx context.Context, event model.NotificationEvent) ingest.Outcome
}

// Announcer is the announcement queue as seen by the API.
type Announcer interface {
	Enqueue(req announce.Request) error
	Pending() int
	Ready() bool
}

// Config wires a Server.
type Config struct {
	Pipeline  NotificationHandler
	Announcer Announcer
	Store     service.Storage
	Settings  service.SettingsProvider
	Logger    *slog.Logger
	Now       func() time.Time
	TLS       *tls.Config // nil serves plain HTTP
	Addr      string
}

// Server is the HTTP adapter.
type Server struct {
	pipeline  NotificationHandler
	announcer Announcer
	store     service.Storage
	settings  service.SettingsProvider
	reporter  *report.Reporter
	logger    *slog.Logger
	now       func() time.Time
	router    *gin.Engine
	last      *receivedEvent
	mu        sync.Mutex
	httpSrv   *http.Server
	tls       *tls.Config
	addr      string
}

type receivedEvent struct {
	ReceivedAt time.Time               `json:"received_at"`
	Event      model.NotificationEvent `json:"event"`
	Status     ingest.Status           `json:"status"`
}

// New builds a server and its routes.
func New(cfg Config) (*Server, error) {
	switch {
	case cfg.Pipeline == nil:
		return nil, fmt.Errorf("%w: pipeline", common.ErrMissingConfig)
	case cfg.Announcer == nil:
		return nil, fmt.Errorf("%w: announcer", common.ErrMissingConfig)
	case cfg.Store == nil:
		return nil, fmt.Errorf("%w: store", common.ErrMissingConfig)
	case cfg.Settings == nil:
		return nil, fmt.Errorf("%w: settings", common.ErrMissingConfig)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	s := &Server{
		pipeline:  cfg.Pipeline,
		announcer: cfg.Announcer,
		store:     cfg.Store,
		settings:  cfg.Settings,
		reporter:  report.NewReporter(cfg.Store),
		logger:    cfg.Logger.With("component", "http"),
		now:       cfg.Now,
		addr:      cfg.Addr,
		tls:       cfg.TLS,
		router:    gin.New(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.logger.Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	s.router.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
		c.Next()
	})

	s.router.Use(s.loggingMiddleware())
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.Request.URL.Path == "/metrics" || c.Request.URL.Path == "/health" {
			return
		}
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/api/v1")
	v1.POST("/notifications", s.postNotification)
	v1.POST("/announcements", s.postAnnouncement)

	v1.GET("/transactions", s.listTransactions)
	v1.DELETE("/transactions", s.clearTransactions)
	v1.GET("/transactions/:id", s.getTransaction)
	v1.DELETE("/transactions/:id", s.deleteTransaction)

	v1.GET("/overview", s.overview)
	v1.GET("/reports/:period", s.periodReport)

	v1.GET("/mute", s.muteStatus)
	v1.GET("/diagnostics/last", s.lastNotification)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	s.httpSrv = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		TLSConfig:         s.tls,
	}
	srv := s.httpSrv
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.addr, "tls", srv.TLSConfig != nil)
		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) recordLast(event model.NotificationEvent, status ingest.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &receivedEvent{ReceivedAt: s.now(), Event: event, Status: status}
}

func (s *Server) lastReceived() *receivedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	cp := *s.last
	return &cp
}
