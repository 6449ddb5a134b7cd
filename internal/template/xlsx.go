package template

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Povusa/TECNOMAT/internal/artifact"
	"github.com/Povusa/TECNOMAT/internal/domain"
	"github.com/xuri/excelize/v2"
)

// sheetGrid adapts the active sheet of an excelize workbook to Grid.
type sheetGrid struct {
	f     *excelize.File
	sheet string
}

func newSheetGrid(f *excelize.File) *sheetGrid {
	return &sheetGrid{f: f, sheet: f.GetSheetName(f.GetActiveSheetIndex())}
}

func (g *sheetGrid) Rows() ([][]string, error) {
	return g.f.GetRows(g.sheet, excelize.Options{RawCellValue: true})
}

func (g *sheetGrid) SetCell(col, row int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return g.f.SetCellStr(g.sheet, cell, value)
}

// DuplicateRow copies values and styles of row into a new row at to.
func (g *sheetGrid) DuplicateRow(row, to int) error {
	return g.f.DuplicateRowTo(g.sheet, row, to)
}

// XLSXMerger produces report workbooks from a template file.
type XLSXMerger struct {
	templatePath string
	artifacts    *artifact.Store
	now          func() time.Time
}

// NewXLSXMerger creates a merger reading templatePath and writing into artifacts.
func NewXLSXMerger(templatePath string, artifacts *artifact.Store, now func() time.Time) *XLSXMerger {
	if now == nil {
		now = time.Now
	}
	return &XLSXMerger{templatePath: templatePath, artifacts: artifacts, now: now}
}

// Merge fills a copy of the template with the session's answers and projects
// and returns the path of the written report. Every failure wraps ErrTemplate.
func (m *XLSXMerger) Merge(ctx context.Context, sessionID string, answers domain.GeneralAnswers, projects []domain.ProjectEntry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrTemplate, err)
	}

	f, err := excelize.OpenFile(m.templatePath)
	if err != nil {
		return "", fmt.Errorf("%w: opening %s: %w", ErrTemplate, m.templatePath, err)
	}
	defer f.Close()

	if _, err := Merge(newSheetGrid(f), answers.Fields(), ProjectValues(projects)); err != nil {
		return "", asTemplateErr(err)
	}

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrTemplate, err)
	}

	path := m.artifacts.Path(sessionID, answers.WorkerName, m.now())
	err = m.artifacts.WriteAtomic(path, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%w: saving report: %w", ErrTemplate, err)
	}
	return path, nil
}

// ProjectValues converts entries into placeholder maps, keeping order.
func ProjectValues(projects []domain.ProjectEntry) []map[string]string {
	out := make([]map[string]string, len(projects))
	for i, p := range projects {
		out[i] = p.Fields()
	}
	return out
}

// InspectFile reports the active sheet name and project layout of a template.
func InspectFile(path string) (string, *Layout, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("%w: opening %s: %w", ErrTemplate, path, err)
	}
	defer f.Close()

	g := newSheetGrid(f)
	rows, err := g.Rows()
	if err != nil {
		return "", nil, fmt.Errorf("%w: reading %s: %w", ErrTemplate, path, err)
	}
	layout, err := DiscoverLayout(rows)
	if err != nil {
		return g.sheet, nil, err
	}
	return g.sheet, layout, nil
}

func asTemplateErr(err error) error {
	if errors.Is(err, ErrTemplate) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTemplate, err)
}
