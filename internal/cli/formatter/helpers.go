package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	return renderBox(ColorDim, title, content)
}

// RenderAlert is RenderBox with a red border, for failures the user must act on.
func RenderAlert(title string, content string) string {
	return renderBox(ColorRed, title, content)
}

func renderBox(border lipgloss.Color, title, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 2)

	if title == "" {
		return boxStyle.Render(content)
	}
	return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}
