package formatter

import (
	"fmt"
	"strings"

	"github.com/Povusa/TECNOMAT/internal/contract"
)

// FormatTurn renders one assistant message headed by its phase badge.
func FormatTurn(t contract.Turn) string {
	var b strings.Builder
	b.WriteString(PhaseBadge(t.Phase))
	b.WriteString("\n")
	for _, line := range strings.Split(strings.TrimRight(t.Message, "\n"), "\n") {
		b.WriteString(StyleFg.Render(line))
		b.WriteString("\n")
	}
	if len(t.Options) > 0 {
		b.WriteString(Dim("[" + strings.Join(t.Options, " | ") + "]"))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatCompletion renders the final summary box. artifactPath may be empty
// when the report is not on local disk.
func FormatCompletion(t contract.Turn, artifactPath string) string {
	body := strings.TrimRight(t.Summary, "\n")
	if body == "" {
		body = strings.TrimRight(t.Message, "\n")
	}
	if artifactPath != "" {
		body += "\n\n" + StyleGreen.Render("Archivo:") + " " + Bold(artifactPath)
	}
	return RenderBox("Parte completado", body)
}

// FormatFailure renders the message of a session that ended in error.
func FormatFailure(t contract.Turn) string {
	return RenderAlert("Error", StyleRed.Render(strings.TrimRight(t.Message, "\n")))
}

// FormatSessionHeader renders the line printed when a chat starts.
func FormatSessionHeader(sessionID string, resumed bool) string {
	state := "nueva"
	if resumed {
		state = "reanudada"
	}
	return fmt.Sprintf("%s\n%s %s %s\n", Header("Parte de trabajo"), Dim("sesión"), TruncID(sessionID), Dim("("+state+")"))
}
