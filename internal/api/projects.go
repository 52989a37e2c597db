package api

import (
	"context"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/tgienger/issues/internal/models"
	"github.com/tgienger/issues/internal/normalize"
)

var errUnexpectedShape = errors.New("unexpected response shape")

// projectRecord is the wire form sent when creating a project
type projectRecord struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// GetProjects returns all active projects, or an empty list on failure
func (c *Client) GetProjects(ctx context.Context) []models.Project {
	body, err := c.do(ctx, request{method: http.MethodGet, url: c.endpoint(projectPath, ""), decode: true})
	if err != nil {
		c.fail("getProjects", err, nil)
		return []models.Project{}
	}
	records, ok := normalize.Records(body)
	if !ok {
		c.fail("getProjects", errUnexpectedShape, nil)
		return []models.Project{}
	}

	projects := make([]models.Project, 0, len(records))
	for _, r := range records {
		if !normalize.Active(r) {
			continue
		}
		if p, ok := normalize.Project(r); ok {
			projects = append(projects, p)
		}
	}
	return projects
}

// CreateProject creates a project with a client-generated id and returns the
// server's record, or nil on failure
func (c *Client) CreateProject(ctx context.Context, name string) *models.Project {
	rec := projectRecord{ID: c.newID(), Name: name, Active: true}
	body, err := c.do(ctx, request{method: http.MethodPost, url: c.endpoint(projectPath, ""), body: rec, decode: true})
	if err != nil {
		c.fail("createProject", err, log.Fields{"name": name})
		return nil
	}

	sent := models.Project{ID: rec.ID, Name: rec.Name}
	r, ok := normalize.Single(body)
	if !ok {
		c.log.WithField("op", "createProject").Warn("server echo is not an object; using sent record")
		return &sent
	}
	p, ok := normalize.Project(r)
	if !ok {
		return &sent
	}
	return &p
}

// DeleteProject marks a project inactive. The update is sent as a POST with a
// PATCH override.
func (c *Client) DeleteProject(ctx context.Context, id string) bool {
	_, err := c.do(ctx, request{
		method:   http.MethodPatch,
		override: true,
		url:      c.endpoint(projectPath, id),
		body:     map[string]any{"active": false},
	})
	if err != nil {
		c.fail("deleteProject", err, log.Fields{"id": id})
		return false
	}
	return true
}
