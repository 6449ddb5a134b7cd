package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Povusa/TECNOMAT/internal/domain"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// FixedNow is the clock used by tests that care about the report date.
var FixedNow = time.Date(2026, time.October, 17, 18, 30, 0, 0, time.UTC)

// FixedClock returns a clock that always reports FixedNow.
func FixedClock() func() time.Time {
	return func() time.Time { return FixedNow }
}

// TemplateRows is a minimal report layout with every general and project
// placeholder. The project row is row 4.
func TemplateRows() [][]string {
	return [][]string{
		{"PARTE DE TRABAJO", "Trabajador: {NOMBRE}"},
		{"Día {Nº DIA} de {MES}"},
		{"Tipo", "Nº parte", "Cerrado", "Horas"},
		{"{FACTURABLE O ORDEN DE TRABAJO}", "{Nº DE PARTE}", "{PARTE CERRADO}", "{TOTAL DE HORAS}"},
		{"Total", "{HORAS TOTALES}", "Bolsa: {HORAS BOLSA}", "Extra: {HORAS EXTRAS}"},
	}
}

// WriteWorkbook saves rows into Sheet1 of a new workbook under t.TempDir().
func WriteWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellStr("Sheet1", cell, v); err != nil {
				t.Fatalf("set cell %s: %v", cell, err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "plantilla-"+uuid.NewString()[:8]+".xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("saving workbook: %v", err)
	}
	return path
}

// WriteTemplate saves the standard template and returns its path.
func WriteTemplate(t *testing.T) string {
	t.Helper()
	return WriteWorkbook(t, TemplateRows())
}

// ReadWorkbook returns the rows of the active sheet at path.
func ReadWorkbook(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	if err != nil {
		t.Fatalf("reading rows: %v", err)
	}
	return rows
}

// ProjectOption customizes NewTestProject.
type ProjectOption func(*domain.ProjectEntry)

func WithReport(number string, closed domain.ReportClosed) ProjectOption {
	return func(p *domain.ProjectEntry) {
		p.Report = domain.ReportNumber{Number: number, Applicable: true}
		p.Closed = closed
	}
}

func WithKind(kind domain.WorkKind, label string) ProjectOption {
	return func(p *domain.ProjectEntry) {
		p.Classification = domain.Classification{Kind: kind, Label: label}
	}
}

// NewTestProject returns a completed billable entry without report.
func NewTestProject(hours float64, opts ...ProjectOption) domain.ProjectEntry {
	p := domain.ProjectEntry{
		Classification: domain.Classification{Kind: domain.WorkBillable, Label: "Facturable"},
		Report:         domain.NotApplicableReport,
		Closed:         domain.ReportClosedNotApplicable,
		Hours:          hours,
	}
	for _, o := range opts {
		o(&p)
	}
	return p
}

// NewTestSession returns a record with the given projects already completed.
func NewTestSession(id string, projects ...domain.ProjectEntry) *domain.SessionRecord {
	s := domain.NewSessionRecord(id, FixedNow)
	s.Phase = domain.PhaseAwaitingMoreProjects
	s.Answers.WorkerName = "Ana"
	s.Answers.SetDate(FixedNow)
	for _, p := range projects {
		s.Projects = append(s.Projects, p)
		s.AccumulatedHours = domain.Round2(s.AccumulatedHours + p.Hours)
	}
	return s
}
