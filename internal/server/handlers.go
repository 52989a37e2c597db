package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/tgienger/issues/internal/db"
	"github.com/tgienger/issues/internal/normalize"
)

const maxBodyBytes = 1 << 20

// decodeObject reads a JSON object body without a fixed schema
func decodeObject(c echo.Context) (normalize.Record, error) {
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	var body any
	if err := sonic.Unmarshal(data, &body); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	r, ok := body.(map[string]any)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "body must be an object")
	}
	return r, nil
}

func listProjects(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		projects, err := store.ListProjects(c.Request().Context())
		if err != nil {
			return storageError(logger, "listProjects", err)
		}
		return c.JSON(http.StatusOK, projects)
	}
}

func getProject(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := store.GetProject(c.Request().Context(), c.Param("id"))
		if err != nil {
			return storageError(logger, "getProject", err)
		}
		return c.JSON(http.StatusOK, p)
	}
}

func createProject(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		r, err := decodeObject(c)
		if err != nil {
			return err
		}
		if _, ok := normalize.Project(r); !ok {
			r["id"] = uuid.NewString()
		}
		p, _ := normalize.Project(r)

		created, err := store.CreateProject(c.Request().Context(), db.ProjectRow{Project: p, Active: normalize.Active(r)})
		if err != nil {
			return storageError(logger, "createProject", err)
		}
		return c.JSON(http.StatusCreated, created)
	}
}

func updateProject(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		r, err := decodeObject(c)
		if err != nil {
			return err
		}

		var (
			name   *string
			active *bool
		)
		if v, ok := r["name"].(string); ok && strings.TrimSpace(v) != "" {
			n := strings.TrimSpace(v)
			name = &n
		}
		if v, ok := r["active"]; ok {
			a := normalize.Truthy(v)
			active = &a
		}

		p, err := store.UpdateProject(c.Request().Context(), c.Param("id"), name, active)
		if err != nil {
			return storageError(logger, "updateProject", err)
		}
		return c.JSON(http.StatusOK, p)
	}
}

func listIssues(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		issues, err := store.ListIssues(c.Request().Context(), c.QueryParam("projectId"))
		if err != nil {
			return storageError(logger, "listIssues", err)
		}
		return c.JSON(http.StatusOK, issues)
	}
}

func getIssue(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		i, err := store.GetIssue(c.Request().Context(), c.Param("id"))
		if err != nil {
			return storageError(logger, "getIssue", err)
		}
		return c.JSON(http.StatusOK, i)
	}
}

func createIssue(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		r, err := decodeObject(c)
		if err != nil {
			return err
		}
		if _, ok := normalize.Issue(r); !ok {
			r["id"] = uuid.NewString()
		}
		issue, _ := normalize.Issue(r)
		issue.ProjectName = ""

		created, err := store.CreateIssue(c.Request().Context(), issue)
		if err != nil {
			return storageError(logger, "createIssue", err)
		}
		return c.JSON(http.StatusCreated, created)
	}
}

func updateIssue(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		r, err := decodeObject(c)
		if err != nil {
			return err
		}
		id := c.Param("id")
		// the path decides which record changes
		r["id"] = id
		patch, fields, _ := normalize.IssueFields(r)

		updated, err := store.UpdateIssue(c.Request().Context(), id, patch, fields)
		if err != nil {
			return storageError(logger, "updateIssue", err)
		}
		return c.JSON(http.StatusOK, updated)
	}
}

func deleteIssue(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := store.DeleteIssue(c.Request().Context(), c.Param("id")); err != nil {
			return storageError(logger, "deleteIssue", err)
		}
		return c.JSON(http.StatusOK, map[string]any{})
	}
}
