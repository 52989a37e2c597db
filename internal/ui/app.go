package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/issues/internal/state"
	"github.com/tgienger/issues/internal/ui/keys"
	"github.com/tgienger/issues/internal/ui/styles"
	"github.com/tgienger/issues/internal/ui/views"
)

// Pane is the part of the screen that has keyboard focus
type Pane int

const (
	PaneProjects Pane = iota
	PaneIssues
)

type dataLoadedMsg struct{}

type App struct {
	ctx         context.Context
	store       *state.Store
	baseURL     string
	projectList *views.ProjectListView
	issueList   *views.IssueListView
	spinner     spinner.Model
	styles      *styles.Styles
	keys        keys.KeyMap
	focus       Pane
	loaded      bool
	width       int
	height      int
}

// NewApp creates the application around a store. baseURL is only shown while
// the initial load runs.
func NewApp(ctx context.Context, store *state.Store, baseURL string) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Current.Accent)

	return &App{
		ctx:         ctx,
		store:       store,
		baseURL:     baseURL,
		projectList: views.NewProjectListView(ctx, store),
		issueList:   views.NewIssueListView(ctx, store),
		spinner:     sp,
		styles:      styles.NewStyles(),
		keys:        keys.DefaultKeyMap(),
		focus:       PaneProjects,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.load)
}

func (a *App) load() tea.Msg {
	a.store.Load(a.ctx)
	return dataLoadedMsg{}
}

func (a *App) refresh() {
	snap := a.store.Snapshot()
	a.projectList.Refresh(snap)
	a.issueList.Refresh(snap)
}

func (a *App) resize() {
	contentWidth := styles.ContentWidth(a.width)
	projectWidth := max(contentWidth/3, 20)
	// title, alert, help and pane borders
	paneHeight := max(a.height-8, 3)

	a.projectList.SetPaneSize(projectWidth-4, paneHeight)
	a.issueList.SetPaneHeight(paneHeight)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.projectList.Update(msg)
		a.issueList.Update(msg)
		a.resize()
		return a, nil

	case dataLoadedMsg:
		a.loaded = true
		a.refresh()
		return a, nil

	case views.StoreChanged:
		a.refresh()
		return a, nil

	case spinner.TickMsg:
		if a.loaded {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case views.ToggleResult:
		_, cmd := a.issueList.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.updateKey(msg)
	}

	return a, nil
}

func (a *App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return a, tea.Quit
	}
	if !a.loaded {
		if key.Matches(msg, a.keys.Quit) {
			return a, tea.Quit
		}
		return a, nil
	}

	var cmd tea.Cmd
	switch {
	case a.projectList.Busy():
		_, cmd = a.projectList.Update(msg)
		return a, cmd
	case a.issueList.Busy():
		_, cmd = a.issueList.Update(msg)
		return a, cmd
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Tab):
		if a.focus == PaneProjects {
			a.focus = PaneIssues
		} else {
			a.focus = PaneProjects
		}
		return a, nil
	case key.Matches(msg, a.keys.Back):
		a.store.DismissAlert()
		return a, nil
	case key.Matches(msg, a.keys.Reload):
		a.loaded = false
		return a, tea.Batch(a.spinner.Tick, a.load)
	}

	if a.focus == PaneProjects {
		_, cmd = a.projectList.Update(msg)
	} else {
		_, cmd = a.issueList.Update(msg)
	}
	return a, cmd
}

func (a *App) View() string {
	if !a.loaded {
		return a.renderLoading()
	}

	if a.projectList.Busy() {
		return a.projectList.View()
	}
	if a.issueList.Busy() {
		return a.issueList.View()
	}

	s := a.styles
	contentWidth := styles.ContentWidth(a.width)
	projectWidth := max(contentWidth/3, 20)
	issueWidth := max(contentWidth-projectWidth, 30)

	projectPane, issuePane := s.Pane, s.Pane
	if a.focus == PaneProjects {
		projectPane = s.PaneFocused
	} else {
		issuePane = s.PaneFocused
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		projectPane.Width(projectWidth-2).Render(a.projectList.View()),
		issuePane.Width(issueWidth-2).Render(a.issueList.View()),
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Issue Tracker"),
		a.renderAlert(),
		panes,
		a.renderHelp(),
	)
	return styles.CenterView(content, a.width, a.height)
}

func (a *App) renderLoading() string {
	s := a.styles
	content := lipgloss.JoinVertical(lipgloss.Center,
		a.spinner.View()+" "+s.Title.Render("Lade Daten..."),
		"",
		s.TitleMuted.Render(fmt.Sprintf("Stelle sicher, dass der JSON-Server läuft (%s)", a.baseURL)),
	)
	centered := lipgloss.Place(styles.ContentWidth(a.width), a.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, a.width, a.height)
}

func (a *App) renderAlert() string {
	alert := a.store.Alert()
	if alert == nil {
		return ""
	}
	style := a.styles.AlertError
	if alert.Kind == state.AlertWarning {
		style = a.styles.AlertWarning
	}
	return style.Render(alert.Message) + a.styles.TitleMuted.Render("  esc")
}

func (a *App) renderHelp() string {
	s := a.styles
	contentWidth := styles.ContentWidth(a.width)
	if contentWidth > 0 && contentWidth < 60 {
		return s.Help.Render(fmt.Sprintf("%s pane • %s quit", s.HelpKey.Render("tab"), s.HelpKey.Render("q")))
	}

	if a.focus == PaneProjects {
		return s.Help.Render(
			fmt.Sprintf("%s select • %s new • %s pane • %s reload • %s quit",
				s.HelpKey.Render("space"),
				s.HelpKey.Render("n"),
				s.HelpKey.Render("tab"),
				s.HelpKey.Render("r"),
				s.HelpKey.Render("q"),
			),
		)
	}
	return s.Help.Render(
		fmt.Sprintf("%s toggle • %s new • %s del • %s pane • %s reload • %s quit",
			s.HelpKey.Render("x"),
			s.HelpKey.Render("n"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("tab"),
			s.HelpKey.Render("r"),
			s.HelpKey.Render("q"),
		),
	)
}
