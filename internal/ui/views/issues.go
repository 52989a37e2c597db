package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/issues/internal/models"
	"github.com/tgienger/issues/internal/state"
	"github.com/tgienger/issues/internal/ui/keys"
	"github.com/tgienger/issues/internal/ui/styles"
)

const noSelectionHint = "Bitte zuerst ein Projekt auswählen (Leertaste im Projektbereich)"

// formField is the focused element of the new issue form
type formField int

const (
	fieldTitle formField = iota
	fieldPriority
	fieldDue
	fieldSave
	formFields
)

// ToggleResult carries the backend answer for a toggle started in Update
type ToggleResult struct {
	Pending state.PendingToggle
	Echo    *models.IssueEcho
}

// IssueListView shows the issues of the selected projects
type IssueListView struct {
	ctx    context.Context
	store  *state.Store
	snap   state.Snapshot
	issues []models.Issue
	styles *styles.Styles
	keys   keys.KeyMap

	width      int
	height     int
	paneHeight int

	cursor  int
	scrollY int
	notice  string

	editing  bool
	field    formField
	title    textinput.Model
	due      textinput.Model
	priority int // index into models.Priorities

	// issue awaiting delete confirmation
	doomed *models.Issue
}

// NewIssueListView creates a new issue list view
func NewIssueListView(ctx context.Context, store *state.Store) *IssueListView {
	title := textinput.New()
	title.Placeholder = "Issue beschreiben..."
	title.CharLimit = 200

	due := textinput.New()
	due.Placeholder = "JJJJ-MM-TT"
	due.CharLimit = 10

	return &IssueListView{
		ctx:    ctx,
		store:  store,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
		title:  title,
		due:    due,
	}
}

func (v *IssueListView) Init() tea.Cmd { return nil }

// Busy reports whether the view owns the keyboard (form or confirmation open)
func (v *IssueListView) Busy() bool {
	return v.editing || v.doomed != nil
}

// SetPaneHeight sets the number of lines the pane renders into
func (v *IssueListView) SetPaneHeight(height int) {
	v.paneHeight = height
	v.ensureVisible()
}

// Refresh rebuilds the visible issues from a store snapshot
func (v *IssueListView) Refresh(snap state.Snapshot) {
	v.snap = snap
	v.issues = snap.Visible()
	if len(snap.Selected) > 0 {
		v.notice = ""
	}
	if v.cursor >= len(v.issues) {
		v.cursor = max(0, len(v.issues)-1)
	}
	v.ensureVisible()
}

func (v *IssueListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case ToggleResult:
		v.store.FinishToggle(msg.Pending, msg.Echo)
		return v, storeChanged

	case tea.KeyMsg:
		switch {
		case v.doomed != nil:
			return v.updateConfirmDelete(msg)
		case v.editing:
			return v.updateForm(msg)
		}
		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *IssueListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.issues)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Toggle):
		if len(v.issues) == 0 {
			return v, nil
		}
		return v, v.toggle(v.issues[v.cursor].ID)

	case key.Matches(msg, v.keys.New):
		if len(v.snap.Selected) == 0 {
			v.notice = noSelectionHint
			return v, nil
		}
		v.openForm()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Delete):
		if len(v.issues) > 0 {
			issue := v.issues[v.cursor]
			v.doomed = &issue
		}
		return v, nil
	}

	return v, nil
}

// toggle flips the issue locally right away and sends the update in the background
func (v *IssueListView) toggle(id string) tea.Cmd {
	p, ok := v.store.BeginToggle(id)
	if !ok {
		return nil
	}
	v.Refresh(v.store.Snapshot())

	return func() tea.Msg {
		return ToggleResult{Pending: p, Echo: v.store.SubmitToggle(v.ctx, p)}
	}
}

func (v *IssueListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Confirm):
		id := v.doomed.ID
		v.doomed = nil
		return v, func() tea.Msg {
			v.store.DeleteIssue(v.ctx, id)
			return StoreChanged{}
		}
	case key.Matches(msg, v.keys.Cancel):
		v.doomed = nil
	}
	return v, nil
}

func (v *IssueListView) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil
	case key.Matches(msg, v.keys.Save):
		return v, v.saveIssue()
	case key.Matches(msg, v.keys.Tab):
		v.focusField((v.field + 1) % formFields)
		return v, nil
	case msg.String() == "shift+tab":
		v.focusField((v.field + formFields - 1) % formFields)
		return v, nil
	case key.Matches(msg, v.keys.Enter):
		if v.field == fieldSave {
			return v, v.saveIssue()
		}
		v.focusField(v.field + 1)
		return v, nil
	}

	var cmd tea.Cmd
	switch v.field {
	case fieldTitle:
		v.title, cmd = v.title.Update(msg)
	case fieldDue:
		v.due, cmd = v.due.Update(msg)
	case fieldPriority:
		n := len(models.Priorities)
		switch {
		case key.Matches(msg, v.keys.Left):
			v.priority = (v.priority + n - 1) % n
		case key.Matches(msg, v.keys.Right), key.Matches(msg, v.keys.Select):
			v.priority = (v.priority + 1) % n
		}
	}
	return v, cmd
}

func (v *IssueListView) ensureVisible() {
	visibleItems := max(v.paneHeight-3, 1)

	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visibleItems {
		v.scrollY = v.cursor - visibleItems + 1
	}
}

func (v *IssueListView) openForm() {
	v.editing = true
	v.priority = 0
	v.title.Reset()
	v.due.Reset()
	v.focusField(fieldTitle)
}

func (v *IssueListView) focusField(f formField) {
	v.field = f
	v.title.Blur()
	v.due.Blur()
	switch f {
	case fieldTitle:
		v.title.Focus()
	case fieldDue:
		v.due.Focus()
	}
}

func (v *IssueListView) saveIssue() tea.Cmd {
	draft := state.IssueDraft{
		Title:    strings.TrimSpace(v.title.Value()),
		Priority: models.Priorities[v.priority],
		DueDate:  strings.TrimSpace(v.due.Value()),
	}
	if draft.Title == "" {
		return nil
	}
	v.editing = false

	return func() tea.Msg {
		v.store.CreateIssue(v.ctx, draft)
		return StoreChanged{}
	}
}

// View renders the pane, or the active form
func (v *IssueListView) View() string {
	switch {
	case v.doomed != nil:
		return v.renderDeleteConfirm()
	case v.editing:
		return v.renderForm()
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Issues (%d)", len(v.issues))))
	b.WriteString("\n\n")
	b.WriteString(v.renderIssueList())
	if v.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(v.styles.TitleMuted.Render(v.notice))
	}
	return b.String()
}

func (v *IssueListView) renderIssueList() string {
	s := v.styles

	if len(v.issues) == 0 {
		return s.TitleMuted.Render("Keine Issues. 'n' legt eins an.")
	}

	visibleItems := max(v.paneHeight-3, 1)
	endIdx := min(v.scrollY+visibleItems, len(v.issues))

	var rows []string
	for i := v.scrollY; i < endIdx; i++ {
		rows = append(rows, v.renderIssueItem(v.issues[i], i == v.cursor))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *IssueListView) renderIssueItem(issue models.Issue, selected bool) string {
	s := v.styles

	box := "[ ]"
	if issue.Done {
		box = s.Checked.Render("[x]")
	}

	priority := s.IssuePriority.Foreground(styles.PriorityColor(issue.Priority)).Render(fmt.Sprintf("%-7s", issue.Priority.Label()))

	due := models.FormatDueDate(issue.DueDate)
	if due == "" {
		due = "Kein Datum"
	}
	meta := s.IssueMeta.Render(fmt.Sprintf("%s · %s", due, v.snap.ProjectName(issue.ProjectID)))

	titleStyle := s.ListItem
	if issue.Done {
		titleStyle = s.Done
	}
	if selected {
		titleStyle = s.ListSelected
	}

	return fmt.Sprintf("%s %s %s  %s", box, priority, titleStyle.Render(issue.Title), meta)
}

func (v *IssueListView) renderForm() string {
	s := v.styles
	inputWidth := clamp(styles.ContentWidth(v.width)-6, 20, 50)

	box := func(f formField) lipgloss.Style {
		if v.field == f {
			return s.InputFocused.Width(inputWidth)
		}
		return s.Input.Width(inputWidth)
	}
	button := s.Button
	if v.field == fieldSave {
		button = s.ButtonFocused
	}

	priority := models.Priorities[v.priority]
	priorityLabel := "Priorität wählen..."
	if priority != models.PriorityNone {
		priorityLabel = fmt.Sprintf("%s (%s)", priority.Label(), priority)
	}

	project := models.NoProjectLabel
	if len(v.snap.Selected) > state.AssignToSelectedIndex {
		project = v.snap.ProjectName(v.snap.Selected[state.AssignToSelectedIndex])
	}

	return overlay(lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Neues Issue"),
		s.TitleMuted.Render("Projekt: "+project),
		"",
		"Issue Name:",
		box(fieldTitle).Render(v.title.View()),
		"",
		"Priorität:",
		box(fieldPriority).Render("‹ "+priorityLabel+" ›"),
		"",
		"Fällig am:",
		box(fieldDue).Render(v.due.View()),
		"",
		button.Render(" Add Task "),
		"",
		s.TitleMuted.Render("Tab: next • ←→: priority • Ctrl+S: save • Esc: cancel"),
	), v.width, v.height)
}

func (v *IssueListView) renderDeleteConfirm() string {
	s := v.styles
	return overlay(lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Bad).Render("Issue löschen?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q", v.doomed.Title)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Ja "),
			"  ",
			s.Button.Render(" N - Nein "),
		),
	), v.width, v.height)
}
