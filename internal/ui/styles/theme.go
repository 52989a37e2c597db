package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/issues/internal/models"
)

// Palette is the set of colors the UI draws with
type Palette struct {
	Name string

	Base  lipgloss.Color
	Text  lipgloss.Color
	Muted lipgloss.Color

	Accent lipgloss.Color

	Good lipgloss.Color
	Warn lipgloss.Color
	Bad  lipgloss.Color

	Edge       lipgloss.Color
	EdgeActive lipgloss.Color
	Highlight  lipgloss.Color
}

// TokyoNight is the default palette
var TokyoNight = Palette{
	Name:       "Tokyo Night",
	Base:       lipgloss.Color("#1a1b26"),
	Text:       lipgloss.Color("#c0caf5"),
	Muted:      lipgloss.Color("#565f89"),
	Accent:     lipgloss.Color("#7aa2f7"),
	Good:       lipgloss.Color("#9ece6a"),
	Warn:       lipgloss.Color("#e0af68"),
	Bad:        lipgloss.Color("#f7768e"),
	Edge:       lipgloss.Color("#3b4261"),
	EdgeActive: lipgloss.Color("#7aa2f7"),
	Highlight:  lipgloss.Color("#33467c"),
}

// Current holds the active palette
var Current = TokyoNight

// MaxWidth caps the width of the two-pane layout
const MaxWidth = 100

// ContentWidth returns the width the layout renders into
func ContentWidth(terminalWidth int) int {
	return min(terminalWidth, MaxWidth)
}

// CenterView centers content horizontally on terminals wider than MaxWidth
func CenterView(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= MaxWidth {
		return content
	}
	return lipgloss.Place(terminalWidth, terminalHeight, lipgloss.Center, lipgloss.Top, content)
}

// PriorityColor returns the badge color for a priority
func PriorityColor(p models.Priority) lipgloss.Color {
	switch p {
	case models.PriorityHigh:
		return Current.Bad
	case models.PriorityMedium:
		return Current.Warn
	case models.PriorityLow:
		return Current.Good
	}
	return Current.Muted
}

// Styles holds the pre-computed styles for the UI
type Styles struct {
	Title      lipgloss.Style
	TitleMuted lipgloss.Style

	Pane        lipgloss.Style
	PaneFocused lipgloss.Style

	ListItem     lipgloss.Style
	ListSelected lipgloss.Style
	Checked      lipgloss.Style
	Done         lipgloss.Style

	AlertError   lipgloss.Style
	AlertWarning lipgloss.Style

	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	ButtonPrimary lipgloss.Style

	IssuePriority lipgloss.Style
	IssueMeta     lipgloss.Style

	Input        lipgloss.Style
	InputFocused lipgloss.Style

	Help    lipgloss.Style
	HelpKey lipgloss.Style
}

func framed(edge lipgloss.Color, padX int) lipgloss.Style {
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(edge).Padding(0, padX)
}

func banner(bg lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(Current.Base).Background(bg).Padding(0, 1).Bold(true)
}

// NewStyles builds styles from the current palette
func NewStyles() *Styles {
	p := Current
	text := lipgloss.NewStyle().Foreground(p.Text)
	muted := lipgloss.NewStyle().Foreground(p.Muted)
	accent := lipgloss.NewStyle().Foreground(p.Accent).Bold(true)

	return &Styles{
		Title:      accent,
		TitleMuted: muted,

		Pane:        framed(p.Edge, 1),
		PaneFocused: framed(p.EdgeActive, 1),

		ListItem:     text,
		ListSelected: accent.Background(p.Highlight),
		Checked:      lipgloss.NewStyle().Foreground(p.Good).Bold(true),
		Done:         muted.Strikethrough(true),

		AlertError:   banner(p.Bad),
		AlertWarning: banner(p.Warn),

		Button:        framed(p.Edge, 2).Foreground(p.Text),
		ButtonFocused: framed(p.EdgeActive, 2).Foreground(p.Accent).Bold(true),
		ButtonPrimary: banner(p.Accent).Padding(0, 2),

		IssuePriority: lipgloss.NewStyle().Bold(true),
		IssueMeta:     muted,

		Input:        framed(p.Edge, 1).Foreground(p.Text),
		InputFocused: framed(p.EdgeActive, 1).Foreground(p.Text),

		Help:    muted.Padding(1, 2),
		HelpKey: accent,
	}
}
