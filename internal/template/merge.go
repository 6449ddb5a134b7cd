package template

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Merge fills g in place. General tokens are replaced anywhere in the grid;
// the project row is then duplicated once per extra project and filled in
// collection order. The returned layout is the one found after general
// substitution.
func Merge(g Grid, general map[string]string, projects []map[string]string) (*Layout, error) {
	rows, err := g.Rows()
	if err != nil {
		return nil, fmt.Errorf("reading cells: %w", err)
	}

	if err := substituteGeneral(g, rows, general); err != nil {
		return nil, err
	}

	layout, err := DiscoverLayout(rows)
	if err != nil {
		return nil, err
	}

	for i := 1; i < len(projects); i++ {
		if err := g.DuplicateRow(layout.Row, layout.Row+i); err != nil {
			return nil, fmt.Errorf("duplicating project row: %w", err)
		}
	}

	if len(projects) == 0 {
		return layout, fillProjectRow(g, layout, layout.Row, nil)
	}
	for i, p := range projects {
		if err := fillProjectRow(g, layout, layout.Row+i, p); err != nil {
			return nil, err
		}
	}
	return layout, nil
}

// substituteGeneral replaces general tokens in g and mirrors the change in rows.
func substituteGeneral(g Grid, rows [][]string, general map[string]string) error {
	for r, row := range rows {
		for c, cell := range row {
			if !strings.Contains(cell, "{") {
				continue
			}
			replaced := ReplaceTokens(cell, general)
			if replaced == cell {
				continue
			}
			if err := g.SetCell(c+1, r+1, replaced); err != nil {
				return fmt.Errorf("writing cell (%d,%d): %w", c+1, r+1, err)
			}
			rows[r][c] = replaced
		}
	}
	return nil
}

// fillProjectRow writes one project's values into row. A nil project clears
// the placeholders.
func fillProjectRow(g Grid, layout *Layout, row int, project map[string]string) error {
	for _, cf := range layout.Columns {
		value := project[cf.Field]
		token := Token(cf.Field)
		text := value
		if strings.Contains(cf.Text, token) {
			text = strings.ReplaceAll(cf.Text, token, value)
		}
		if err := g.SetCell(cf.Col, row, text); err != nil {
			return fmt.Errorf("writing project cell (%d,%d): %w", cf.Col, row, err)
		}
	}
	return nil
}

// ReplaceTokens substitutes every {KEY} in text whose key is present in
// values. Keys are applied in sorted order.
func ReplaceTokens(text string, values map[string]string) string {
	for _, key := range slices.Sorted(maps.Keys(values)) {
		token := Token(key)
		if strings.Contains(text, token) {
			text = strings.ReplaceAll(text, token, values[key])
		}
	}
	return text
}
