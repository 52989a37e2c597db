package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/tgienger/issues/internal/models"
)

type recordedRequest struct {
	method   string
	path     string
	override string
	header   http.Header
	body     map[string]any
}

// fakeBackend is a tiny json-server stand-in. Records are stored as received
// and looked up by their "id" field.
type fakeBackend struct {
	mu       sync.Mutex
	records  map[string][]map[string]any
	requests []recordedRequest
	status   map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{records: map[string][]map[string]any{}, status: map[string]int{}}
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var body map[string]any
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &body)
	}
	f.requests = append(f.requests, recordedRequest{
		method:   r.Method,
		path:     r.URL.Path,
		override: r.Header.Get(MethodOverrideHeader),
		header:   r.Header.Clone(),
		body:     body,
	})

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	collection := parts[0]
	if code, ok := f.status[collection]; ok {
		w.WriteHeader(code)
		return
	}

	method := r.Method
	if o := r.Header.Get(MethodOverrideHeader); o != "" && method == http.MethodPost {
		method = o
	}

	switch {
	case len(parts) == 1 && method == http.MethodGet:
		writeJSON(w, http.StatusOK, f.records[collection])
	case len(parts) == 1 && method == http.MethodPost:
		f.records[collection] = append(f.records[collection], body)
		writeJSON(w, http.StatusCreated, body)
	case len(parts) == 2 && method == http.MethodPatch:
		for _, rec := range f.records[collection] {
			if rec["id"] == parts[1] {
				for k, v := range body {
					rec[k] = v
				}
				writeJSON(w, http.StatusOK, rec)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	case len(parts) == 2 && method == http.MethodDelete:
		recs := f.records[collection]
		for i, rec := range recs {
			if rec["id"] == parts[1] {
				f.records[collection] = append(recs[:i], recs[i+1:]...)
				writeJSON(w, http.StatusOK, map[string]any{})
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeBackend) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, h http.Handler) (*Client, *test.Hook) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	logger, hook := test.NewNullLogger()
	n := 0
	c := New(srv.URL+"/", WithLogger(logger), WithIDGenerator(func() string {
		n++
		return "gen-" + string(rune('0'+n))
	}))
	return c, hook
}

func TestCreateProjectRoundTrip(t *testing.T) {
	backend := newFakeBackend()
	c, _ := newTestClient(t, backend)
	ctx := context.Background()

	p := c.CreateProject(ctx, "Alpha")
	if p == nil {
		t.Fatal("expected created project")
	}
	if p.ID != "gen-1" || p.Name != "Alpha" {
		t.Fatalf("unexpected project %+v", p)
	}
	req := backend.last()
	if req.method != http.MethodPost || req.path != "/Project" {
		t.Fatalf("unexpected request %s %s", req.method, req.path)
	}
	if req.body["active"] != true || req.body["id"] != "gen-1" {
		t.Fatalf("expected full record with active flag, got %v", req.body)
	}

	projects := c.GetProjects(ctx)
	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}
	if projects[0].Name != "Alpha" || projects[0].ID == "" {
		t.Fatalf("unexpected project %+v", projects[0])
	}
}

func TestGetProjectsFiltersInactiveAndUnidentifiable(t *testing.T) {
	backend := newFakeBackend()
	backend.records["Project"] = []map[string]any{
		{"id": "1", "name": "Active"},
		{"id": "2", "name": "Gone", "active": false},
		{"name": "No id"},
		{"uuid": "3", "title": "Aliased", "active": true},
	}
	c, _ := newTestClient(t, backend)

	projects := c.GetProjects(context.Background())
	want := []models.Project{{ID: "1", Name: "Active"}, {ID: "3", Name: "Aliased"}}
	if len(projects) != len(want) {
		t.Fatalf("got %+v, want %+v", projects, want)
	}
	for i := range want {
		if projects[i] != want[i] {
			t.Fatalf("project %d = %+v, want %+v", i, projects[i], want[i])
		}
	}
}

func TestGetIssuesServerErrorReturnsEmptyAndLogs(t *testing.T) {
	backend := newFakeBackend()
	backend.status["Issue"] = http.StatusInternalServerError
	c, hook := newTestClient(t, backend)

	issues := c.GetIssues(context.Background())
	if issues == nil || len(issues) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", issues)
	}
	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a logged diagnostic")
	}
	if entry.Level != log.ErrorLevel || entry.Data["op"] != "getIssues" {
		t.Fatalf("unexpected log entry: %v %v", entry.Level, entry.Data)
	}
	if _, ok := entry.Data[log.ErrorKey].(*StatusError); !ok {
		t.Fatalf("expected status error in log entry, got %T", entry.Data[log.ErrorKey])
	}
}

func TestUnreachableBackendSentinels(t *testing.T) {
	logger, hook := test.NewNullLogger()
	c := New("http://127.0.0.1:1", WithLogger(logger))
	ctx := context.Background()
	done := true

	if got := c.GetProjects(ctx); len(got) != 0 {
		t.Fatalf("expected no projects, got %v", got)
	}
	if c.CreateProject(ctx, "x") != nil {
		t.Fatal("expected nil project")
	}
	if c.DeleteProject(ctx, "x") {
		t.Fatal("expected delete project to fail")
	}
	if c.CreateIssue(ctx, models.Issue{Title: "x"}) != nil {
		t.Fatal("expected nil issue")
	}
	if c.UpdateIssue(ctx, "x", models.IssueUpdate{Done: &done}) != nil {
		t.Fatal("expected nil echo")
	}
	if c.DeleteIssue(ctx, "x") {
		t.Fatal("expected delete issue to fail")
	}
	if len(hook.AllEntries()) != 6 {
		t.Fatalf("expected one diagnostic per call, got %d", len(hook.AllEntries()))
	}
}

func TestMalformedBodyReturnsEmpty(t *testing.T) {
	c, hook := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":`))
	}))
	if got := c.GetProjects(context.Background()); len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
	if hook.LastEntry() == nil {
		t.Fatal("expected decode failure to be logged")
	}
}

func TestEnvelopeResponses(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{{"id": "i1", "title": "Wrapped", "completed": "TRUE"}}})
	}))
	issues := c.GetIssues(context.Background())
	if len(issues) != 1 || !issues[0].Done || issues[0].Title != "Wrapped" {
		t.Fatalf("unexpected issues %+v", issues)
	}
}

func TestDeleteProjectUsesPatchOverride(t *testing.T) {
	backend := newFakeBackend()
	backend.records["Project"] = []map[string]any{{"id": "p1", "name": "Alpha", "active": true}}
	c, _ := newTestClient(t, backend)
	ctx := context.Background()

	if !c.DeleteProject(ctx, "p1") {
		t.Fatal("expected soft delete to succeed")
	}
	req := backend.last()
	if req.method != http.MethodPost || req.override != http.MethodPatch || req.path != "/Project/p1" {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.body["active"] != false || len(req.body) != 1 {
		t.Fatalf("expected {active:false}, got %v", req.body)
	}
	if got := c.GetProjects(ctx); len(got) != 0 {
		t.Fatalf("expected deactivated project to be filtered, got %v", got)
	}
}

func TestCreateIssueKeepsRequestedProject(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Echo without the project reference.
		writeJSON(w, http.StatusCreated, map[string]any{"id": "srv-1", "title": "Fix bug", "done": false})
	}))
	issue := c.CreateIssue(context.Background(), models.Issue{Title: "Fix bug", Priority: models.PriorityHigh, ProjectID: "p1"})
	if issue == nil {
		t.Fatal("expected issue")
	}
	if issue.ID != "srv-1" || issue.ProjectID != "p1" || issue.Priority != models.PriorityHigh {
		t.Fatalf("unexpected issue %+v", issue)
	}
}

func TestUpdateIssueSendsOnlyProvidedFields(t *testing.T) {
	backend := newFakeBackend()
	backend.records["Issue"] = []map[string]any{{"id": "5", "title": "Fix bug", "done": false, "priority": "1"}}
	c, _ := newTestClient(t, backend)

	done := true
	echo := c.UpdateIssue(context.Background(), "5", models.IssueUpdate{Done: &done})
	if echo == nil {
		t.Fatal("expected echo")
	}
	req := backend.last()
	if req.method != http.MethodPost || req.override != http.MethodPatch || req.path != "/Issue/5" {
		t.Fatalf("unexpected request %+v", req)
	}
	if len(req.body) != 1 || req.body["done"] != true {
		t.Fatalf("expected only done in payload, got %v", req.body)
	}
	if req.header.Get("Content-Type") != "application/json" {
		t.Fatalf("expected json content type, got %q", req.header.Get("Content-Type"))
	}
	if !echo.Issue.Done || !echo.Fields.Has(models.FieldDone) || echo.Fields.Has(models.FieldProjectID) {
		t.Fatalf("unexpected echo %+v", echo)
	}
}

func TestEmptyUpdateIsNotSent(t *testing.T) {
	backend := newFakeBackend()
	c, hook := newTestClient(t, backend)

	if c.UpdateIssue(context.Background(), "5", models.IssueUpdate{}) != nil {
		t.Fatal("expected nil echo for an empty update")
	}
	if len(backend.requests) != 0 {
		t.Fatalf("empty update sent %d requests", len(backend.requests))
	}
	if hook.LastEntry() == nil || hook.LastEntry().Data["op"] != "updateIssue" {
		t.Fatalf("missing diagnostic, got %+v", hook.LastEntry())
	}
}

func TestUpdateIssuePartialEchoGetsID(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"done": true})
	}))
	done := true
	echo := c.UpdateIssue(context.Background(), "9", models.IssueUpdate{Done: &done})
	if echo == nil || echo.Issue.ID != "9" || echo.Fields != models.FieldDone {
		t.Fatalf("unexpected echo %+v", echo)
	}
}

func TestDeleteIssueUsesDeleteOverride(t *testing.T) {
	backend := newFakeBackend()
	backend.records["Issue"] = []map[string]any{{"id": "7", "title": "x"}}
	c, _ := newTestClient(t, backend)

	if !c.DeleteIssue(context.Background(), "7") {
		t.Fatal("expected delete to succeed")
	}
	req := backend.last()
	if req.method != http.MethodPost || req.override != http.MethodDelete || req.path != "/Issue/7" {
		t.Fatalf("unexpected request %+v", req)
	}
	if c.DeleteIssue(context.Background(), "7") {
		t.Fatal("expected second delete to report failure")
	}
}

func TestGetIssuesByProject(t *testing.T) {
	backend := newFakeBackend()
	backend.records["Issue"] = []map[string]any{
		{"id": "1", "projectId": "p1"},
		{"id": "2", "project_id": "p2"},
		{"id": "3", "project": map[string]any{"id": "p1"}},
	}
	c, _ := newTestClient(t, backend)

	got := c.GetIssuesByProject(context.Background(), "p1")
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Fatalf("unexpected issues %+v", got)
	}
}
