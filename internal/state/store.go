// Package state holds the in-memory projects and issues the UI renders from.
// Every mutation goes through the Store, which delegates network work to a
// Backend and folds the results back into its collections.
package state

import (
	"context"
	"slices"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tgienger/issues/internal/models"
)

// AssignToSelectedIndex is the position in the project selection that new
// issues are bound to. Only that one project receives the issue.
const AssignToSelectedIndex = 0

// User-facing messages
const (
	MsgLoadFailed          = "Fehler beim Laden der Daten. Bitte stellen Sie sicher, dass der JSON-Server läuft."
	MsgCreateProjectFailed = "Fehler beim Erstellen des Projekts"
	MsgCreateIssueFailed   = "Fehler beim Erstellen des Issues"
	MsgDeleteIssueFailed   = "Fehler beim Löschen des Issues"
	MsgToggleLocalOnly     = "Warnung: Änderung nur lokal gespeichert. JSON-Server nicht erreichbar."
)

// Backend is the set of adapter calls the store depends on. Implementations
// report failure through the zero value (empty list, nil, false).
type Backend interface {
	GetProjects(ctx context.Context) []models.Project
	CreateProject(ctx context.Context, name string) *models.Project
	GetIssues(ctx context.Context) []models.Issue
	CreateIssue(ctx context.Context, issue models.Issue) *models.Issue
	UpdateIssue(ctx context.Context, id string, u models.IssueUpdate) *models.IssueEcho
	DeleteIssue(ctx context.Context, id string) bool
}

// AlertKind separates hard failures from soft warnings
type AlertKind int

const (
	AlertError AlertKind = iota
	AlertWarning
)

// Alert is the single user-facing message currently shown
type Alert struct {
	Kind    AlertKind
	Message string
}

// IssueDraft holds the user-entered fields of a new issue
type IssueDraft struct {
	Title    string
	Priority models.Priority
	DueDate  string
}

// Snapshot is a copy of the store state for rendering
type Snapshot struct {
	Projects []models.Project
	Issues   []models.Issue
	Selected []string
	Loading  bool
	Alert    *Alert
}

// Store owns the client-side collections. It is safe for concurrent use.
type Store struct {
	backend Backend
	log     *log.Logger

	mu        sync.Mutex
	projects  []models.Project
	issues    []models.Issue
	selected  []string
	loading   bool
	alert     *Alert
	revisions map[string]uint64
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for diagnostics
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New creates an empty store backed by b
func New(b Backend, opts ...Option) *Store {
	s := &Store{
		backend:   b,
		log:       log.StandardLogger(),
		revisions: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches projects and issues concurrently and replaces both collections.
// Loading is cleared when it returns, whatever the outcome.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.alert = nil
	s.mu.Unlock()

	var (
		projects []models.Project
		issues   []models.Issue
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		projects = s.backend.GetProjects(gctx)
		return gctx.Err()
	})
	g.Go(func() error {
		issues = s.backend.GetIssues(gctx)
		return gctx.Err()
	})
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.log.WithError(err).Error("loading data failed")
		s.alert = &Alert{Kind: AlertError, Message: MsgLoadFailed}
		return
	}
	s.projects = projects
	s.issues = issues

	// Counters survive reloads so a toggle started before the reload stays stale.
	loaded := make(map[string]bool, len(issues))
	for _, i := range issues {
		loaded[i.ID] = true
	}
	for id := range s.revisions {
		if !loaded[id] {
			delete(s.revisions, id)
		}
	}
}

// CreateProject creates a project and appends it on success. Blank names are ignored.
func (s *Store) CreateProject(ctx context.Context, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	p := s.backend.CreateProject(ctx, name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if p == nil {
		s.alert = &Alert{Kind: AlertError, Message: MsgCreateProjectFailed}
		return false
	}
	s.projects = append(s.projects, *p)
	return true
}

// CreateIssue creates an issue bound to the first selected project. It does
// nothing when the title is blank or no project is selected.
func (s *Store) CreateIssue(ctx context.Context, d IssueDraft) bool {
	title := strings.TrimSpace(d.Title)

	s.mu.Lock()
	if title == "" || len(s.selected) <= AssignToSelectedIndex {
		s.mu.Unlock()
		return false
	}
	projectID := s.selected[AssignToSelectedIndex]
	s.mu.Unlock()

	issue := s.backend.CreateIssue(ctx, models.Issue{
		Title:     title,
		Priority:  d.Priority,
		DueDate:   strings.TrimSpace(d.DueDate),
		Done:      false,
		ProjectID: projectID,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if issue == nil {
		s.alert = &Alert{Kind: AlertError, Message: MsgCreateIssueFailed}
		return false
	}
	s.issues = append(s.issues, *issue)
	return true
}

// DeleteIssue deletes an issue and removes it from the collection on success
func (s *Store) DeleteIssue(ctx context.Context, id string) bool {
	ok := s.backend.DeleteIssue(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		s.alert = &Alert{Kind: AlertError, Message: MsgDeleteIssueFailed}
		return false
	}
	s.issues = slices.DeleteFunc(s.issues, func(i models.Issue) bool { return i.ID == id })
	delete(s.revisions, id)
	return true
}

// SelectProjects replaces the project selection
func (s *Store) SelectProjects(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = slices.Clone(ids)
}

// ToggleSelected adds or removes one project from the selection
func (s *Store) ToggleSelected(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.Index(s.selected, id); i >= 0 {
		s.selected = slices.Delete(s.selected, i, i+1)
		return
	}
	s.selected = append(s.selected, id)
}

// Selected returns the selected project ids in selection order
func (s *Store) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.selected)
}

// Projects returns a copy of the loaded projects
func (s *Store) Projects() []models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.projects)
}

// Issues returns a copy of all loaded issues
func (s *Store) Issues() []models.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.issues)
}

// VisibleIssues returns the issues of the selected projects, or every issue
// when nothing is selected
func (s *Store) VisibleIssues() []models.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return visible(s.issues, s.selected)
}

func visible(issues []models.Issue, selected []string) []models.Issue {
	if len(selected) == 0 {
		return slices.Clone(issues)
	}
	out := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		if slices.Contains(selected, issue.ProjectID) {
			out = append(out, issue)
		}
	}
	return out
}

// ProjectName returns the name of a loaded project or NoProjectLabel
func (s *Store) ProjectName(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return projectName(s.projects, id)
}

func projectName(projects []models.Project, id string) string {
	if id == "" {
		return models.NoProjectLabel
	}
	for _, p := range projects {
		if p.ID == id {
			return p.Name
		}
	}
	return models.NoProjectLabel
}

// Loading reports whether the initial load is running
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Alert returns the current alert or nil
func (s *Store) Alert() *Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.alert == nil {
		return nil
	}
	a := *s.alert
	return &a
}

// DismissAlert clears the current alert
func (s *Store) DismissAlert() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alert = nil
}

// Snapshot returns a copy of the whole state
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Projects: slices.Clone(s.projects),
		Issues:   slices.Clone(s.issues),
		Selected: slices.Clone(s.selected),
		Loading:  s.loading,
	}
	if s.alert != nil {
		a := *s.alert
		snap.Alert = &a
	}
	return snap
}

// Visible returns the issues of the snapshot that match its selection
func (snap Snapshot) Visible() []models.Issue {
	return visible(snap.Issues, snap.Selected)
}

// ProjectName resolves a project name against the snapshot
func (snap Snapshot) ProjectName(id string) string {
	return projectName(snap.Projects, id)
}
