package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tgienger/issues/internal/api"
	"github.com/tgienger/issues/internal/config"
	"github.com/tgienger/issues/internal/state"
	"github.com/tgienger/issues/internal/ui"
)

// BuildInfo is stamped into the binary via ldflags
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("issues %s (commit: %s, built: %s)", b.Version, b.Commit, b.Date)
}

// App carries the flags and the resolved settings shared by all commands
type App struct {
	ConfigPath string
	APIURL     string
	LogLevel   string

	build BuildInfo
	cfg   config.Config
	log   *log.Logger
}

func NewRootCmd(build BuildInfo) *cobra.Command {
	app := &App{build: build, log: log.New()}

	cmd := &cobra.Command{
		Use:          "issues",
		Short:        "Issue tracker TUI and development backend",
		SilenceUsage: true,
		Version:      build.Version,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  issues

  # Run the development backend and point the TUI at it
  issues serve --listen :3001
  issues --api-url http://localhost:3001

  # Scriptable project commands
  issues projects list
`),
		Args: cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}
	cmd.SetVersionTemplate(build.String() + "\n")

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("ISSUES_CONFIG", config.DefaultPath()), "Path to the YAML config file")
	cmd.PersistentFlags().StringVar(&app.APIURL, "api-url", "", "Backend base URL (overrides config and environment)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newProjectsCmd(app))
	cmd.AddCommand(newVersionCmd(app))

	return cmd
}

// setup loads the config, applies flag overrides and points the logger at stderr
func (app *App) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return err
	}
	if strings.TrimSpace(app.APIURL) != "" {
		cfg.APIURL = app.APIURL
	}
	if strings.TrimSpace(app.LogLevel) != "" {
		cfg.LogLevel = app.LogLevel
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	app.log.SetLevel(level)
	app.log.SetOutput(cmd.ErrOrStderr())
	app.cfg = cfg
	return nil
}

func (app *App) client() *api.Client {
	return api.New(app.cfg.BaseURL(), api.WithLogger(app.log))
}

func runTUI(cmd *cobra.Command, app *App) error {
	out, closeLog, err := openLogFile(app.cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()
	// the TUI owns the terminal
	app.log.SetOutput(out)
	app.log.SetFormatter(&log.TextFormatter{DisableColors: true, FullTimestamp: true})

	client := app.client()
	store := state.New(client, state.WithLogger(app.log))
	model := ui.NewApp(cmd.Context(), store, client.BaseURL())

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running application: %w", err)
	}
	return nil
}

func openLogFile(path string) (io.Writer, func(), error) {
	if path == "" {
		return io.Discard, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func envOr(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}
