package api

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/tgienger/issues/internal/models"
	"github.com/tgienger/issues/internal/normalize"
)

// GetIssues returns all issues, or an empty list on failure
func (c *Client) GetIssues(ctx context.Context) []models.Issue {
	body, err := c.do(ctx, request{method: http.MethodGet, url: c.endpoint(issuePath, ""), decode: true})
	if err != nil {
		c.fail("getIssues", err, nil)
		return []models.Issue{}
	}
	records, ok := normalize.Records(body)
	if !ok {
		c.fail("getIssues", errUnexpectedShape, nil)
		return []models.Issue{}
	}

	issues := make([]models.Issue, 0, len(records))
	for _, r := range records {
		if issue, ok := normalize.Issue(r); ok {
			issues = append(issues, issue)
		}
	}
	return issues
}

// GetIssuesByProject returns the issues belonging to a project
func (c *Client) GetIssuesByProject(ctx context.Context, projectID string) []models.Issue {
	all := c.GetIssues(ctx)
	out := make([]models.Issue, 0, len(all))
	for _, issue := range all {
		if issue.ProjectID == projectID {
			out = append(out, issue)
		}
	}
	return out
}

// CreateIssue creates an issue with a client-generated id. Any id on the
// argument is ignored. Returns the server's record or nil on failure.
func (c *Client) CreateIssue(ctx context.Context, issue models.Issue) *models.Issue {
	issue.ID = c.newID()
	body, err := c.do(ctx, request{method: http.MethodPost, url: c.endpoint(issuePath, ""), body: issue, decode: true})
	if err != nil {
		c.fail("createIssue", err, log.Fields{"title": issue.Title, "projectId": issue.ProjectID})
		return nil
	}

	r, ok := normalize.Single(body)
	if !ok {
		c.log.WithField("op", "createIssue").Warn("server echo is not an object; using sent record")
		return &issue
	}
	created, fields, ok := normalize.IssueFields(r)
	if !ok {
		return &issue
	}
	// The sent record fills in whatever the echo left out.
	merged := issue.Overlay(models.IssueEcho{Issue: created, Fields: fields})
	merged.ID = created.ID
	return &merged
}

// updatePayload builds the partial body for an update from the set fields only
func updatePayload(u models.IssueUpdate) map[string]any {
	payload := make(map[string]any, 4)
	if u.Done != nil {
		payload["done"] = *u.Done
	}
	if u.Title != nil {
		payload["title"] = *u.Title
	}
	if u.DueDate != nil {
		payload["dueDate"] = *u.DueDate
	}
	if u.Priority != nil {
		payload["priority"] = string(*u.Priority)
	}
	return payload
}

// UpdateIssue sends the set fields of u as a partial update (POST with a PATCH
// override) and returns the server's record with the fields it carried, or nil
// on failure.
func (c *Client) UpdateIssue(ctx context.Context, id string, u models.IssueUpdate) *models.IssueEcho {
	if u.Empty() {
		c.log.WithField("op", "updateIssue").WithField("id", id).Warn("empty update not sent")
		return nil
	}
	body, err := c.do(ctx, request{
		method:   http.MethodPatch,
		override: true,
		url:      c.endpoint(issuePath, id),
		body:     updatePayload(u),
		decode:   true,
	})
	if err != nil {
		c.fail("updateIssue", err, log.Fields{"id": id})
		return nil
	}

	r, ok := normalize.Single(body)
	if !ok {
		c.fail("updateIssue", errUnexpectedShape, log.Fields{"id": id})
		return nil
	}
	if _, ok := normalize.Issue(r); !ok {
		// Some servers echo only the changed fields.
		r["id"] = id
	}
	issue, fields, ok := normalize.IssueFields(r)
	if !ok {
		c.fail("updateIssue", errUnexpectedShape, log.Fields{"id": id})
		return nil
	}
	return &models.IssueEcho{Issue: issue, Fields: fields}
}

// DeleteIssue removes an issue (POST with a DELETE override)
func (c *Client) DeleteIssue(ctx context.Context, id string) bool {
	_, err := c.do(ctx, request{
		method:   http.MethodDelete,
		override: true,
		url:      c.endpoint(issuePath, id),
	})
	if err != nil {
		c.fail("deleteIssue", err, log.Fields{"id": id})
		return false
	}
	return true
}
