package formatter

import (
	"fmt"
	"strings"

	"github.com/Povusa/TECNOMAT/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// PhaseStyle returns the style for a conversation phase: green when the
// report is done, red on failure and blue while questions remain.
func PhaseStyle(p domain.Phase) lipgloss.Style {
	switch p {
	case domain.PhaseCompleted:
		return StyleGreen
	case domain.PhaseError:
		return StyleRed
	case "":
		return StyleDim
	default:
		return StyleBlue
	}
}

// PhaseBadge returns a colored phase indicator such as "● NOMBRE".
func PhaseBadge(p domain.Phase) string {
	switch p {
	case domain.PhaseCompleted:
		return PhaseStyle(p).Render("✔ " + string(p))
	case domain.PhaseError:
		return PhaseStyle(p).Render("✖ " + string(p))
	case "":
		return PhaseStyle(p).Render("○ ?")
	default:
		return PhaseStyle(p).Render("● " + string(p))
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
