package db

import (
	"context"

	"github.com/tgienger/issues/internal/models"
)

const issueColumns = "id, project_id, title, priority, due_date, done"

type scanner interface {
	Scan(dest ...any) error
}

func scanIssue(s scanner) (models.Issue, error) {
	var i models.Issue
	err := s.Scan(&i.ID, &i.ProjectID, &i.Title, &i.Priority, &i.DueDate, &i.Done)
	return i, err
}

// CreateIssue inserts an issue. The id is chosen by the caller.
func (db *DB) CreateIssue(ctx context.Context, i models.Issue) (*models.Issue, error) {
	_, err := db.ExecContext(ctx, `
		INSERT INTO issues (id, project_id, title, priority, due_date, done) VALUES (?, ?, ?, ?, ?, ?)
	`, i.ID, i.ProjectID, i.Title, string(i.Priority), i.DueDate, i.Done)
	if err != nil {
		return nil, conflict(err)
	}

	return db.GetIssue(ctx, i.ID)
}

// GetIssue retrieves an issue by ID
func (db *DB) GetIssue(ctx context.Context, id string) (*models.Issue, error) {
	i, err := scanIssue(db.QueryRowContext(ctx, "SELECT "+issueColumns+" FROM issues WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &i, nil
}

// ListIssues returns all issues, oldest first. A non-empty projectID limits
// the result to that project.
func (db *DB) ListIssues(ctx context.Context, projectID string) ([]models.Issue, error) {
	query := "SELECT " + issueColumns + " FROM issues"
	var args []any
	if projectID != "" {
		query += " WHERE project_id = ?"
		args = append(args, projectID)
	}
	query += " ORDER BY created_at, rowid"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	issues := []models.Issue{}
	for rows.Next() {
		i, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, i)
	}
	return issues, rows.Err()
}

// UpdateIssue writes the fields of patch selected by fields onto the stored
// issue and returns the result
func (db *DB) UpdateIssue(ctx context.Context, id string, patch models.Issue, fields models.IssueFields) (*models.Issue, error) {
	cur, err := db.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	if fields.Has(models.FieldTitle) {
		cur.Title = patch.Title
	}
	if fields.Has(models.FieldPriority) {
		cur.Priority = patch.Priority
	}
	if fields.Has(models.FieldDueDate) {
		cur.DueDate = patch.DueDate
	}
	if fields.Has(models.FieldDone) {
		cur.Done = patch.Done
	}
	if fields.Has(models.FieldProjectID) {
		cur.ProjectID = patch.ProjectID
	}

	_, err = db.ExecContext(ctx, `
		UPDATE issues SET project_id = ?, title = ?, priority = ?, due_date = ?, done = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, cur.ProjectID, cur.Title, string(cur.Priority), cur.DueDate, cur.Done, id)
	if err != nil {
		return nil, err
	}
	return cur, nil
}

// DeleteIssue deletes an issue
func (db *DB) DeleteIssue(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, "DELETE FROM issues WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
