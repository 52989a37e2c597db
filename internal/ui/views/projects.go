package views

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/issues/internal/models"
	"github.com/tgienger/issues/internal/state"
	"github.com/tgienger/issues/internal/ui/keys"
	"github.com/tgienger/issues/internal/ui/styles"
)

// StoreChanged asks the app to re-render every pane from the store
type StoreChanged struct{}

func storeChanged() tea.Msg { return StoreChanged{} }

type projectItem struct {
	project models.Project
}

func (i projectItem) Title() string       { return i.project.Name }
func (i projectItem) Description() string { return "" }
func (i projectItem) FilterValue() string { return i.project.Name }

type projectDelegate struct {
	styles   *styles.Styles
	width    int
	selected map[string]bool
}

func (d projectDelegate) Height() int                               { return 1 }
func (d projectDelegate) Spacing() int                              { return 0 }
func (d projectDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(projectItem)
	if !ok {
		return
	}

	box := "[ ]"
	if d.selected[p.project.ID] {
		box = d.styles.Checked.Render("[x]")
	}

	style := d.styles.ListItem
	if index == m.Index() {
		style = d.styles.ListSelected
	}
	width := max(d.width-4, 10)
	fmt.Fprintf(w, "%s %s", box, style.Width(width).Render(p.Title()))
}

// ProjectListView is the multi-select project pane
type ProjectListView struct {
	ctx      context.Context
	store    *state.Store
	list     list.Model
	delegate *projectDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	creating bool
	newName  textinput.Model
}

func NewProjectListView(ctx context.Context, store *state.Store) *ProjectListView {
	s := styles.NewStyles()

	newName := textinput.New()
	newName.Placeholder = "Projektname eingeben..."
	newName.CharLimit = 100

	delegate := &projectDelegate{styles: s, width: 30, selected: map[string]bool{}}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Projekte"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = s.Title
	l.KeyMap.Quit.SetEnabled(false)

	return &ProjectListView{
		ctx:      ctx,
		store:    store,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		newName:  newName,
	}
}

func (v *ProjectListView) Init() tea.Cmd { return nil }

// Busy reports whether the view owns the keyboard (form open)
func (v *ProjectListView) Busy() bool {
	return v.creating
}

// SetPaneSize sets the area the pane renders into
func (v *ProjectListView) SetPaneSize(width, height int) {
	v.delegate.width = width
	v.list.SetSize(width, max(height-2, 3))
}

// Refresh rebuilds the list from a store snapshot
func (v *ProjectListView) Refresh(snap state.Snapshot) {
	items := make([]list.Item, len(snap.Projects))
	for i, p := range snap.Projects {
		items[i] = projectItem{project: p}
	}
	v.list.SetItems(items)

	selected := make(map[string]bool, len(snap.Selected))
	for _, id := range snap.Selected {
		selected[id] = true
	}
	v.delegate.selected = selected
}

func (v *ProjectListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case tea.KeyMsg:
		if v.creating {
			return v.updateCreating(msg)
		}

		switch {
		case key.Matches(msg, v.keys.New):
			v.creating = true
			v.newName.Reset()
			v.newName.Focus()
			return v, textinput.Blink
		case key.Matches(msg, v.keys.Select):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				v.store.ToggleSelected(item.project.ID)
				return v, storeChanged
			}
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *ProjectListView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		v.newName.Blur()
		return v, nil

	case key.Matches(msg, v.keys.Save), key.Matches(msg, v.keys.Enter):
		name := strings.TrimSpace(v.newName.Value())
		if name == "" {
			return v, nil
		}
		v.creating = false
		v.newName.Blur()
		return v, v.createProject(name)
	}

	var cmd tea.Cmd
	v.newName, cmd = v.newName.Update(msg)
	return v, cmd
}

func (v *ProjectListView) createProject(name string) tea.Cmd {
	return func() tea.Msg {
		v.store.CreateProject(v.ctx, name)
		return StoreChanged{}
	}
}

// View renders the pane, or the create form while it is open
func (v *ProjectListView) View() string {
	if v.creating {
		return v.renderCreateForm()
	}
	if len(v.list.Items()) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			v.styles.Title.Render("Projekte"),
			"",
			v.styles.TitleMuted.Render("Keine Projekte. 'n' legt eins an."),
		)
	}
	return v.list.View()
}

func (v *ProjectListView) renderCreateForm() string {
	s := v.styles
	inputWidth := clamp(styles.ContentWidth(v.width)-6, 20, 50)

	return overlay(lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Neues Projekt"),
		"",
		"Project Name:",
		s.InputFocused.Width(inputWidth).Render(v.newName.View()),
		"",
		s.TitleMuted.Render("↵/Ctrl+S: save • Esc: cancel"),
	), v.width, v.height)
}
