// Package http exposes the learning hooks over an HTTP API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/learnhooks/internal/hooks"
	"github.com/fyrsmithlabs/learnhooks/internal/logging"
	"github.com/fyrsmithlabs/learnhooks/internal/progress"
)

const maxBodyBytes = "64K"

// Server provides HTTP endpoints for running hooks and reading progress.
type Server struct {
	echo    *echo.Echo
	manager *hooks.Manager
	tracker *progress.Tracker
	logger  *logging.Logger
	config  *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// RateLimit is requests per second per client IP; 0 disables limiting.
	RateLimit float64
	RateBurst int
}

// NewServer creates a new HTTP server.
func NewServer(manager *hooks.Manager, tracker *progress.Tracker, logger *logging.Logger, cfg *Config) (*Server, error) {
	if manager == nil {
		return nil, fmt.Errorf("hook manager cannot be nil")
	}
	if tracker == nil {
		return nil, fmt.Errorf("tracker cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9191,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit(maxBodyBytes))
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())
	if cfg.RateLimit > 0 {
		e.Use(newIPRateLimiter(cfg.RateLimit, cfg.RateBurst, logger).Middleware())
	}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			ctx := logging.WithRequestID(req.Context(), c.Response().Header().Get(echo.HeaderXRequestID))
			c.SetRequest(req.WithContext(ctx))

			if err := next(c); err != nil {
				c.Error(err)
			}

			logger.Info(ctx, "http request",
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return nil
		}
	})

	s := &Server{
		echo:    e,
		manager: manager,
		tracker: tracker,
		logger:  logger,
		config:  cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.GET("/hooks", s.handleListHooks)
	v1.POST("/hooks/:hook", s.handleRunHook)
	v1.GET("/users/:id/progress", s.handleProgress)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
		Skills: s.tracker.Catalog().Len(),
	})
}

func (s *Server) handleListHooks(c echo.Context) error {
	return c.JSON(http.StatusOK, HooksResponse{Hooks: s.manager.Types()})
}

// handleRunHook runs one hook for a learner. A hook that ran but failed is
// still a 200; the failure is in the result.
func (s *Server) handleRunHook(c echo.Context) error {
	hookType := hooks.HookType(c.Param("hook"))
	if !s.manager.Has(hookType) {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown hook %q", hookType))
	}

	var req HookRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid hook request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if hookType == hooks.HookOnSkillInvoke && req.SkillID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "skillId field is required")
	}

	notices := &progress.Collector{}
	session, err := s.tracker.Session(progress.SessionParams{
		UserID:   req.UserID,
		UserName: req.UserName,
		SkillID:  req.SkillID,
		Notifier: notices,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := logging.WithUserID(c.Request().Context(), req.UserID)
	if req.SkillID != "" {
		ctx = logging.WithSkillID(ctx, req.SkillID)
	}
	res := s.manager.Execute(ctx, hookType, session)

	return c.JSON(http.StatusOK, HookResponse{
		Hook:    hookType,
		Result:  res,
		Notices: notices.Notices(),
	})
}

func (s *Server) handleProgress(c echo.Context) error {
	userID := c.Param("id")
	if err := logging.ValidateID(userID, "user id"); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := logging.WithUserID(c.Request().Context(), userID)
	summary, err := s.tracker.Summary(ctx, userID)
	if errors.Is(err, progress.ErrUserNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err != nil {
		s.logger.Error(ctx, "loading progress summary", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load progress")
	}
	return c.JSON(http.StatusOK, summary)
}

// Start starts the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
