// Package http provides the HTTP API for advisord.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wattlelabs/advisord/internal/retrieval"
)

// Server exposes the retrieval subsystem over HTTP.
type Server struct {
	echo      *echo.Echo
	retriever *retrieval.Service
	logger    *zap.Logger
	config    *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server around the retrieval service.
func NewServer(retriever *retrieval.Service, logger *zap.Logger, cfg *Config) (*Server, error) {
	if retriever == nil {
		return nil, fmt.Errorf("retrieval service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8088,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:      e,
		retriever: retriever,
		logger:    logger,
		config:    cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/query", s.handleQuery)
	v1.POST("/ingest", s.handleIngest)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleQuery answers a retrieval query.
func (s *Server) handleQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	results, err := s.retriever.Query(c.Request().Context(), req.Query, req.K, retrieval.Filter{
		Source:   req.FilterSource,
		Type:     req.FilterType,
		UnitCode: req.FilterUnitCode,
	})
	if err != nil {
		s.logger.Error("query failed", zap.String("query", req.Query), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "query failed")
	}

	return c.JSON(http.StatusOK, QueryResponse{
		Results: results,
		Count:   len(results),
	})
}

// handleIngest runs all three ingestion sources. Sources fail
// independently; a partial failure still reports the sources that
// succeeded.
func (s *Server) handleIngest(c echo.Context) error {
	ctx := c.Request().Context()

	var failed []string
	for source, ingest := range map[string]func(context.Context) error{
		"units":     s.retriever.IngestUnits,
		"skills":    s.retriever.IngestSkills,
		"materials": s.retriever.IngestMaterials,
	} {
		if err := ingest(ctx); err != nil {
			s.logger.Error("ingestion failed", zap.String("source", source), zap.Error(err))
			failed = append(failed, source)
		}
	}

	resp := IngestResponse{Status: "completed", Failed: failed}
	if len(failed) > 0 {
		resp.Status = "partial"
		return c.JSON(http.StatusInternalServerError, resp)
	}

	return c.JSON(http.StatusOK, resp)
}

// Start begins serving. Blocks until shutdown or failure.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("http server starting", zap.String("addr", addr))

	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
