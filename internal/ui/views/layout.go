package views

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/issues/internal/ui/styles"
)

func clamp(val, lo, hi int) int {
	return max(lo, min(val, hi))
}

// overlay renders a form or dialog in the middle of the screen
func overlay(content string, width, height int) string {
	inner := lipgloss.Place(styles.ContentWidth(width), height, lipgloss.Center, lipgloss.Center, content)
	return styles.CenterView(inner, width, height)
}
