package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"complaint-service/internal/handler"
	"complaint-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Options configures the HTTP server.
type Options struct {
	Port           string
	Mode           string   // gin mode
	JWTSecret      []byte   // nil disables bearer authentication
	TrustedProxies []string // may set X-Forwarded-For; empty means the peer address is the client IP
}

type Server struct {
	router *gin.Engine
	opts   Options
	logger *zap.Logger
}

func NewServer(
	opts Options,
	complaints handler.ComplaintHandler,
	health *handler.HealthHandler,
	logger *zap.Logger,
) (*Server, error) {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}

	router := gin.New()
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))

	s := &Server{
		router: router,
		opts:   opts,
		logger: logger,
	}
	s.setupRoutes(complaints, health)

	return s, nil
}

func (s *Server) setupRoutes(complaints handler.ComplaintHandler, health *handler.HealthHandler) {
	s.router.GET("/ping", health.Ping)
	s.router.GET("/health", health.Health)

	api := s.router.Group("/api/v1")
	if s.opts.JWTSecret != nil {
		api.Use(middleware.AuthMiddleware(s.opts.JWTSecret, s.logger))
	}
	{
		api.POST("/complaints", complaints.CreateComplaint)
		api.GET("/complaints", complaints.ListComplaints)
		api.GET("/complaints/:id", complaints.GetComplaint)
		api.PATCH("/complaints/:id/status", complaints.UpdateComplaintStatus)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.opts.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.logger.Info("Server exited")
	return nil
}
