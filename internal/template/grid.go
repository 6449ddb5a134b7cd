package template

import (
	"errors"
	"fmt"
)

// ErrTemplate reports a template that cannot produce a report: a missing file,
// a missing project placeholder row, or a failed write.
var ErrTemplate = errors.New("template error")

// Grid is the cell surface the merge works on. Rows and columns are 1-based,
// matching spreadsheet conventions.
type Grid interface {
	// Rows returns a snapshot of all cell texts, one slice per row.
	Rows() ([][]string, error)
	// SetCell overwrites a single cell.
	SetCell(col, row int, value string) error
	// DuplicateRow inserts a copy of row at position to, shifting later rows down.
	DuplicateRow(row, to int) error
}

// MemoryGrid is a Grid over plain slices.
type MemoryGrid struct {
	cells [][]string
}

// NewMemoryGrid copies rows into a new grid.
func NewMemoryGrid(rows [][]string) *MemoryGrid {
	g := &MemoryGrid{cells: make([][]string, len(rows))}
	for i, r := range rows {
		g.cells[i] = append([]string(nil), r...)
	}
	return g
}

func (g *MemoryGrid) Rows() ([][]string, error) {
	out := make([][]string, len(g.cells))
	for i, r := range g.cells {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (g *MemoryGrid) SetCell(col, row int, value string) error {
	if col < 1 || row < 1 {
		return fmt.Errorf("invalid cell (%d,%d)", col, row)
	}
	for len(g.cells) < row {
		g.cells = append(g.cells, nil)
	}
	for len(g.cells[row-1]) < col {
		g.cells[row-1] = append(g.cells[row-1], "")
	}
	g.cells[row-1][col-1] = value
	return nil
}

func (g *MemoryGrid) DuplicateRow(row, to int) error {
	if row < 1 || row > len(g.cells) || to < 1 || to > len(g.cells)+1 {
		return fmt.Errorf("invalid row duplication %d -> %d", row, to)
	}
	src := append([]string(nil), g.cells[row-1]...)
	g.cells = append(g.cells, nil)
	copy(g.cells[to:], g.cells[to-1:])
	g.cells[to-1] = src
	return nil
}

// Cell returns the text at (col, row) or "" when outside the grid.
func (g *MemoryGrid) Cell(col, row int) string {
	if row < 1 || row > len(g.cells) || col < 1 || col > len(g.cells[row-1]) {
		return ""
	}
	return g.cells[row-1][col-1]
}
