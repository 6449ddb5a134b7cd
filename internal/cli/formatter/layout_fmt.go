package formatter

import (
	"fmt"
	"strings"

	"github.com/Povusa/TECNOMAT/internal/template"
	"github.com/xuri/excelize/v2"
)

// FormatLayout renders the project row discovered in a template file.
func FormatLayout(path, sheet string, layout *template.Layout) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", Dim("Archivo:"), Bold(path))
	fmt.Fprintf(&b, "%s %s\n", Dim("Hoja:"), Bold(sheet))
	fmt.Fprintf(&b, "%s %s", Dim("Fila de proyecto:"), Bold(fmt.Sprintf("%d", layout.Row)))

	headers := []string{"Celda", "Campo", "Texto"}
	rows := make([][]string, 0, len(layout.Columns))
	for _, c := range layout.Columns {
		rows = append(rows, []string{
			cellName(c.Col, layout.Row),
			StyleBlue.Render(c.Field),
			c.Text,
		})
	}

	return RenderBox("Plantilla", b.String()) + "\n" + RenderTable(headers, rows)
}

func cellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Sprintf("C%dR%d", col, row)
	}
	return name
}
