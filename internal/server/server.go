// Package server is a small json-server compatible backend for local
// development. It serves /Project and /Issue from SQLite and honours the
// X-HTTP-Method-Override header the client sends.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/tgienger/issues/internal/db"
	"github.com/tgienger/issues/internal/models"
)

const shutdownTimeout = 5 * time.Second

// Storage is the persistence the handlers need
type Storage interface {
	ListProjects(ctx context.Context) ([]db.ProjectRow, error)
	GetProject(ctx context.Context, id string) (*db.ProjectRow, error)
	CreateProject(ctx context.Context, p db.ProjectRow) (*db.ProjectRow, error)
	UpdateProject(ctx context.Context, id string, name *string, active *bool) (*db.ProjectRow, error)

	ListIssues(ctx context.Context, projectID string) ([]models.Issue, error)
	GetIssue(ctx context.Context, id string) (*models.Issue, error)
	CreateIssue(ctx context.Context, i models.Issue) (*models.Issue, error)
	UpdateIssue(ctx context.Context, id string, patch models.Issue, fields models.IssueFields) (*models.Issue, error)
	DeleteIssue(ctx context.Context, id string) error

	ProjectCount(ctx context.Context) (int, error)
}

var _ Storage = (*db.DB)(nil)

// Server serves the development backend
type Server struct {
	e   *echo.Echo
	log *log.Logger
}

// New builds the echo instance with middleware and routes
func New(store Storage, logger *log.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.MethodOverride())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXHTTPMethodOverride},
	}))
	e.Use(requestLogger(logger))

	Register(e, store, logger)
	return &Server{e: e, log: logger}
}

// Register wires up all routes on the provided Echo instance
func Register(e *echo.Echo, store Storage, logger *log.Logger) {
	e.GET("/Project", listProjects(store, logger))
	e.POST("/Project", createProject(store, logger))
	e.GET("/Project/:id", getProject(store, logger))
	e.PATCH("/Project/:id", updateProject(store, logger))

	e.GET("/Issue", listIssues(store, logger))
	e.POST("/Issue", createIssue(store, logger))
	e.GET("/Issue/:id", getIssue(store, logger))
	e.PATCH("/Issue/:id", updateIssue(store, logger))
	e.DELETE("/Issue/:id", deleteIssue(store, logger))

	e.GET("/healthz", healthz(store))
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.e
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("backend listening")
		errc <- s.e.Start(addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("backend stopped")
	return nil
}

func requestLogger(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			entry := logger.WithFields(log.Fields{
				"method":  req.Method,
				"path":    req.URL.Path,
				"status":  c.Response().Status,
				"latency": time.Since(start).String(),
			})
			if err != nil {
				entry = entry.WithError(err)
			}
			entry.Debug("request")
			return err
		}
	}
}

func healthz(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		n, err := store.ProjectCount(c.Request().Context())
		if err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "storage unavailable")
		}
		return c.JSON(http.StatusOK, map[string]any{"status": "ok", "projects": n})
	}
}

// storageError maps storage failures onto HTTP errors
func storageError(logger *log.Logger, op string, err error) error {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, db.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "id already exists")
	}
	logger.WithError(err).WithField("op", op).Error("storage failure")
	return echo.NewHTTPError(http.StatusInternalServerError, "storage error")
}
