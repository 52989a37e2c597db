package models

import "time"

// NoProjectLabel is shown for issues whose project is not loaded
const NoProjectLabel = "Kein Projekt"

// Project represents an issue tracker project
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Priority is a string-encoded small integer; the empty string means none
type Priority string

const (
	PriorityNone   Priority = ""
	PriorityHigh   Priority = "1"
	PriorityMedium Priority = "2"
	PriorityLow    Priority = "3"
)

// Priorities lists the selectable priorities in display order
var Priorities = []Priority{PriorityNone, PriorityHigh, PriorityMedium, PriorityLow}

// Label returns the display label for a priority
func (p Priority) Label() string {
	switch p {
	case PriorityHigh:
		return "Hoch"
	case PriorityMedium:
		return "Mittel"
	case PriorityLow:
		return "Niedrig"
	}
	return "-"
}

// Issue represents a single issue
type Issue struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Priority    Priority `json:"priority"`
	DueDate     string   `json:"dueDate"`
	Done        bool     `json:"done"`
	ProjectID   string   `json:"projectId"`
	ProjectName string   `json:"projectName,omitempty"`
}

// IssueUpdate holds the fields of a partial issue update; nil fields are not sent
type IssueUpdate struct {
	Done     *bool
	Title    *string
	DueDate  *string
	Priority *Priority
}

// Empty reports whether no field is set
func (u IssueUpdate) Empty() bool {
	return u.Done == nil && u.Title == nil && u.DueDate == nil && u.Priority == nil
}

// IssueFields is a set of issue fields present in a server record
type IssueFields uint8

const (
	FieldTitle IssueFields = 1 << iota
	FieldPriority
	FieldDueDate
	FieldDone
	FieldProjectID
	FieldProjectName
)

// Has reports whether every field in f is in the set
func (s IssueFields) Has(f IssueFields) bool {
	return s&f == f
}

// IssueEcho is a normalized server record along with the fields it carried
type IssueEcho struct {
	Issue  Issue
	Fields IssueFields
}

// Overlay returns i with the fields the echo explicitly carried applied on top.
// A non-empty local ProjectID is never replaced by an empty one.
func (i Issue) Overlay(e IssueEcho) Issue {
	out := i
	if e.Fields.Has(FieldTitle) && e.Issue.Title != "" {
		out.Title = e.Issue.Title
	}
	if e.Fields.Has(FieldPriority) {
		out.Priority = e.Issue.Priority
	}
	if e.Fields.Has(FieldDueDate) {
		out.DueDate = e.Issue.DueDate
	}
	if e.Fields.Has(FieldDone) {
		out.Done = e.Issue.Done
	}
	if e.Fields.Has(FieldProjectID) && e.Issue.ProjectID != "" {
		out.ProjectID = e.Issue.ProjectID
	}
	if e.Fields.Has(FieldProjectName) && e.Issue.ProjectName != "" {
		out.ProjectName = e.Issue.ProjectName
	}
	return out
}

// FormatDueDate renders an ISO date as DD.MM.YYYY, returning other input unchanged
func FormatDueDate(s string) string {
	if s == "" {
		return ""
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("02.01.2006")
		}
	}
	return s
}
