package template

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Povusa/TECNOMAT/internal/artifact"
	"github.com/Povusa/TECNOMAT/internal/domain"
	"github.com/Povusa/TECNOMAT/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAnswers(total float64) domain.GeneralAnswers {
	a := domain.GeneralAnswers{WorkerName: "Ana María"}
	a.SetDate(testutil.FixedNow)
	a.SetHours(domain.SplitHours(total))
	return a
}

func TestXLSXMerger_WritesTwoProjectRows(t *testing.T) {
	tmpl := testutil.WriteTemplate(t)
	store := artifact.NewStore(t.TempDir())
	m := NewXLSXMerger(tmpl, store, testutil.FixedClock())

	projects := []domain.ProjectEntry{
		testutil.NewTestProject(2),
		testutil.NewTestProject(3.25, testutil.WithReport("P-1", domain.ReportClosedNo)),
	}
	path, err := m.Merge(context.Background(), "sess-1", testAnswers(9), projects)
	require.NoError(t, err)
	assert.Equal(t, "PARTE_TRABAJO_Ana_María_17102026.xlsx", filepath.Base(path))

	rows := testutil.ReadWorkbook(t, path)
	require.Len(t, rows, 6)
	assert.Equal(t, "Trabajador: Ana María", rows[0][1])
	assert.Equal(t, "Día 17 de Octubre", rows[1][0])
	assert.Equal(t, []string{"Facturable", "No aplica", "No aplica", "2"}, rows[3])
	assert.Equal(t, []string{"Facturable", "P-1", "No", "3.25"}, rows[4])
	assert.Equal(t, []string{"Total", "9", "Bolsa: 1.25", "Extra: 0"}, rows[5])

	// The template itself is never modified.
	original := testutil.ReadWorkbook(t, tmpl)
	assert.Equal(t, "Trabajador: {NOMBRE}", original[0][1])
}

func TestXLSXMerger_MissingProjectRowLeavesNoArtifact(t *testing.T) {
	tmpl := testutil.WriteWorkbook(t, [][]string{{"Trabajador: {NOMBRE}"}, {"{HORAS TOTALES}"}})
	dir := t.TempDir()
	m := NewXLSXMerger(tmpl, artifact.NewStore(dir), testutil.FixedClock())

	_, err := m.Merge(context.Background(), "sess-2", testAnswers(8), []domain.ProjectEntry{testutil.NewTestProject(8)})
	require.ErrorIs(t, err, ErrTemplate)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestXLSXMerger_MissingTemplateFile(t *testing.T) {
	m := NewXLSXMerger(filepath.Join(t.TempDir(), "nope.xlsx"), artifact.NewStore(t.TempDir()), nil)
	_, err := m.Merge(context.Background(), "sess-3", testAnswers(8), nil)
	assert.ErrorIs(t, err, ErrTemplate)
}

func TestXLSXMerger_CancelledContext(t *testing.T) {
	m := NewXLSXMerger(testutil.WriteTemplate(t), artifact.NewStore(t.TempDir()), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Merge(ctx, "sess-4", testAnswers(8), nil)
	assert.ErrorIs(t, err, ErrTemplate)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInspectFile(t *testing.T) {
	sheet, layout, err := InspectFile(testutil.WriteTemplate(t))
	require.NoError(t, err)
	assert.Equal(t, "Sheet1", sheet)
	assert.Equal(t, 4, layout.Row)
	assert.Len(t, layout.Columns, 4)
}
