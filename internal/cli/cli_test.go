package cli

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/tgienger/issues/internal/db"
	"github.com/tgienger/issues/internal/server"
)

func isolate(t *testing.T) {
	t.Helper()
	for _, name := range []string{"ISSUES_CONFIG", "ISSUES_API_URL", "ISSUES_HOST", "ISSUES_LOG_LEVEL", "ISSUES_LOG_FILE", "ISSUES_DB", "ISSUES_LISTEN"} {
		t.Setenv(name, "")
	}
	t.Chdir(t.TempDir())
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd(BuildInfo{Version: "1.2.3", Commit: "abc123", Date: "2026-01-02"})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func newBackend(t *testing.T) string {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "issues.db"))
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	logger, _ := test.NewNullLogger()
	ts := httptest.NewServer(server.New(database, logger).Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func TestVersion(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if want := "issues 1.2.3 (commit: abc123, built: 2026-01-02)"; strings.TrimSpace(out) != want {
		t.Fatalf("version output = %q, want %q", out, want)
	}

	out, _, err = execute(t, "--version")
	if err != nil {
		t.Fatalf("--version: %v", err)
	}
	if !strings.Contains(out, "issues 1.2.3") {
		t.Fatalf("--version output = %q", out)
	}
}

func TestProjectsAddListRemove(t *testing.T) {
	isolate(t)
	url := newBackend(t)

	out, _, err := execute(t, "--api-url", url, "projects", "add", "Alpha")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	id := strings.TrimSpace(out)
	if id == "" {
		t.Fatal("add printed no id")
	}

	out, _, err = execute(t, "--api-url", url, "projects", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Alpha") || !strings.Contains(out, id) {
		t.Fatalf("list output missing project:\n%s", out)
	}

	if _, _, err := execute(t, "--api-url", url, "projects", "rm", id); err != nil {
		t.Fatalf("rm: %v", err)
	}

	out, _, err = execute(t, "--api-url", url, "projects", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Contains(out, "Alpha") {
		t.Fatalf("removed project still listed:\n%s", out)
	}
}

func TestProjectsAddUnreachableBackend(t *testing.T) {
	isolate(t)
	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()

	_, stderr, err := execute(t, "--api-url", url, "projects", "add", "Alpha")
	if err == nil {
		t.Fatal("expected an error for an unreachable backend")
	}
	if !strings.Contains(stderr, "createProject") {
		t.Fatalf("failure not logged to stderr:\n%s", stderr)
	}
}

func TestArgumentValidation(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "add without name", args: []string{"projects", "add"}},
		{name: "blank name", args: []string{"--api-url", "http://127.0.0.1:1", "projects", "add", "  "}},
		{name: "rm without id", args: []string{"projects", "rm"}},
		{name: "bad log level", args: []string{"--log-level", "loud", "version"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := execute(t, tt.args...); err == nil {
				t.Fatalf("execute(%v) succeeded", tt.args)
			}
		})
	}
}
