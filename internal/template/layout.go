package template

import (
	"fmt"
	"strings"

	"github.com/Povusa/TECNOMAT/internal/domain"
)

// Token returns the placeholder token for a field name.
func Token(field string) string {
	return "{" + field + "}"
}

// ColumnField maps one column of the project row to the field it holds.
type ColumnField struct {
	Col   int
	Field string
	// Text is the original cell text, token included.
	Text string
}

// Layout describes where project data goes in a template.
type Layout struct {
	Row     int
	Columns []ColumnField
}

// DiscoverLayout finds the first row holding the classification token and
// records the project field held by each of its columns.
func DiscoverLayout(rows [][]string) (*Layout, error) {
	marker := Token(domain.FieldClassification)
	for r, row := range rows {
		for _, cell := range row {
			if strings.Contains(cell, marker) {
				return layoutForRow(r+1, row)
			}
		}
	}
	return nil, fmt.Errorf("%w: no cell contains %s", ErrTemplate, marker)
}

func layoutForRow(rowIdx int, row []string) (*Layout, error) {
	l := &Layout{Row: rowIdx}
	for c, cell := range row {
		for _, field := range domain.ProjectFields {
			if strings.Contains(cell, Token(field)) {
				l.Columns = append(l.Columns, ColumnField{Col: c + 1, Field: field, Text: cell})
				break
			}
		}
	}
	if len(l.Columns) == 0 {
		return nil, fmt.Errorf("%w: project row %d has no field placeholders", ErrTemplate, rowIdx)
	}
	return l, nil
}
