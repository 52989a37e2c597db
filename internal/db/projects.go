package db

import (
	"context"

	"github.com/tgienger/issues/internal/models"
)

// ProjectRow is a stored project including its soft-delete flag
type ProjectRow struct {
	models.Project
	Active bool `json:"active"`
}

// CreateProject inserts a project. The id is chosen by the caller.
func (db *DB) CreateProject(ctx context.Context, p ProjectRow) (*ProjectRow, error) {
	_, err := db.ExecContext(ctx, `
		INSERT INTO projects (id, name, active) VALUES (?, ?, ?)
	`, p.ID, p.Name, p.Active)
	if err != nil {
		return nil, conflict(err)
	}

	return db.GetProject(ctx, p.ID)
}

// GetProject retrieves a project by ID
func (db *DB) GetProject(ctx context.Context, id string) (*ProjectRow, error) {
	p := &ProjectRow{}
	err := db.QueryRowContext(ctx, `
		SELECT id, name, active FROM projects WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Active)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// ListProjects returns all projects, inactive ones included, oldest first
func (db *DB) ListProjects(ctx context.Context) ([]ProjectRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, active FROM projects ORDER BY created_at, rowid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []ProjectRow{}
	for rows.Next() {
		var p ProjectRow
		if err := rows.Scan(&p.ID, &p.Name, &p.Active); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject changes the name and/or active flag of a project. Nil
// arguments leave the column untouched.
func (db *DB) UpdateProject(ctx context.Context, id string, name *string, active *bool) (*ProjectRow, error) {
	p, err := db.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		p.Name = *name
	}
	if active != nil {
		p.Active = *active
	}

	_, err = db.ExecContext(ctx, `
		UPDATE projects SET name = ?, active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, p.Name, p.Active, id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ProjectCount returns the number of active projects
func (db *DB) ProjectCount(ctx context.Context) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects WHERE active = 1").Scan(&count)
	return count, err
}
