package dialogue

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Povusa/TECNOMAT/internal/artifact"
	"github.com/Povusa/TECNOMAT/internal/domain"
	"github.com/Povusa/TECNOMAT/internal/template"
	"github.com/Povusa/TECNOMAT/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPasscode = "2579"

type fakeMerger struct {
	calls    int
	answers  domain.GeneralAnswers
	projects []domain.ProjectEntry
	err      error
}

func (m *fakeMerger) Merge(_ context.Context, sessionID string, answers domain.GeneralAnswers, projects []domain.ProjectEntry) (string, error) {
	m.calls++
	m.answers = answers
	m.projects = projects
	if m.err != nil {
		return "", m.err
	}
	return "/tmp/" + sessionID + ".xlsx", nil
}

func newTestEngine(m Merger) *Engine {
	return NewEngine(testPasscode, m, WithClock(testutil.FixedClock()))
}

// drive feeds inputs in order and returns the last reply.
func drive(t *testing.T, e *Engine, s *domain.SessionRecord, inputs ...string) Reply {
	t.Helper()
	var r Reply
	for _, in := range inputs {
		var err error
		r, err = e.Step(context.Background(), s, in)
		require.NoError(t, err, "input %q in phase %s", in, s.Phase)
	}
	return r
}

func TestEngine_SingleProjectScenario(t *testing.T) {
	m := &fakeMerger{}
	e := newTestEngine(m)
	s := domain.NewSessionRecord("s1", testutil.FixedNow)

	r := drive(t, e, s, "2579", "Ana", "Facturable", "No aplica", "3,5", "No", "8")

	assert.Equal(t, domain.PhaseCompleted, r.Phase)
	assert.Equal(t, domain.PhaseCompleted, s.Phase)
	assert.True(t, r.ArtifactReady)
	assert.Equal(t, "/tmp/s1.xlsx", s.ArtifactPath)

	require.Len(t, s.Projects, 1)
	assert.Equal(t, 3.5, s.Projects[0].Hours)
	assert.Equal(t, "Facturable", s.Projects[0].Classification.Label)
	assert.Equal(t, domain.ReportClosedNotApplicable, s.Projects[0].Closed)

	require.NotNil(t, s.Answers.BolsaHours)
	assert.Equal(t, 0.25, *s.Answers.BolsaHours)
	assert.Equal(t, 0.0, *s.Answers.ExtraHours)
	assert.Equal(t, 8.0, *s.Answers.TotalHours)

	assert.Equal(t, 1, m.calls)
	assert.Equal(t, "Ana", m.answers.WorkerName)
	assert.Equal(t, 17, m.answers.Day)
	assert.Equal(t, "Octubre", m.answers.Month)

	assert.Contains(t, r.Prompt, "Horas de bolsa: 0.25 horas")
	assert.Contains(t, r.Prompt, "Horas regulares: 7.75 horas")
	assert.Contains(t, r.Summary, "• NOMBRE: Ana")
	assert.Contains(t, r.Summary, "Proyecto 1:")
	assert.Contains(t, r.Summary, "• Nº de parte: No aplica")
}

func TestEngine_TwoProjectsSuggestsAccumulatedHours(t *testing.T) {
	e := newTestEngine(&fakeMerger{})
	s := domain.NewSessionRecord("s2", testutil.FixedNow)

	r := drive(t, e, s,
		"2579", "Luis",
		"Facturable", "P-100", "Sí", "2", "si",
		"No Facturable", "3.25", "No",
	)
	assert.Equal(t, domain.PhaseAwaitingTotalHours, r.Phase)
	assert.Contains(t, r.Prompt, "Horas sugeridas: 5.25")
	assert.InDelta(t, 5.25, s.AccumulatedHours, 1e-9)

	r = drive(t, e, s, "9")
	assert.Equal(t, domain.PhaseCompleted, r.Phase)
	require.Len(t, s.Projects, 2)
	assert.Equal(t, domain.ReportClosedYes, s.Projects[0].Closed)
	assert.Equal(t, "P-100", s.Projects[0].Report.Number)
	assert.Equal(t, domain.LabelNonBillable, s.Projects[1].Classification.Label)
	assert.Equal(t, 1.25, *s.Answers.BolsaHours)
}

func TestEngine_WrongPasswordRetriesForever(t *testing.T) {
	e := newTestEngine(&fakeMerger{})
	s := domain.NewSessionRecord("s", testutil.FixedNow)

	for i := 0; i < 20; i++ {
		r := drive(t, e, s, "0000")
		assert.Equal(t, domain.PhaseAwaitingPassword, r.Phase)
		assert.Equal(t, msgWrongPassword, r.Prompt)
	}
	r := drive(t, e, s, " 2579 ")
	assert.Equal(t, domain.PhaseAwaitingName, r.Phase)
}

func TestEngine_NameDerivesDateFromClock(t *testing.T) {
	e := newTestEngine(&fakeMerger{})
	s := domain.NewSessionRecord("s", testutil.FixedNow)

	r := drive(t, e, s, "2579", "  María José ")
	assert.Equal(t, domain.PhaseAwaitingWorkType, r.Phase)
	assert.Equal(t, workTypeOptions, r.Options)
	assert.Equal(t, "María José", s.Answers.WorkerName)
	assert.Equal(t, 17, s.Answers.Day)
	assert.Equal(t, "Octubre", s.Answers.Month)
}

func TestEngine_WorkOrderBranch(t *testing.T) {
	e := newTestEngine(&fakeMerger{})
	s := domain.NewSessionRecord("s", testutil.FixedNow)

	r := drive(t, e, s, "2579", "Ana", "Orden de Trabajo")
	assert.Equal(t, domain.PhaseAwaitingWorkOrderID, r.Phase)

	r = drive(t, e, s, "OT-5521")
	assert.Equal(t, domain.PhaseAwaitingReportNumber, r.Phase)
	assert.Equal(t, domain.WorkOrder, s.Current.Classification.Kind)
	assert.Equal(t, "OT-5521", s.Current.Classification.Label)

	r = drive(t, e, s, "8812")
	assert.Equal(t, domain.PhaseAwaitingReportClosed, r.Phase)
	assert.Equal(t, yesNoOptions, r.Options)

	r = drive(t, e, s, "No")
	assert.Equal(t, domain.PhaseAwaitingProjectHours, r.Phase)
	assert.Equal(t, domain.ReportClosedNo, s.Current.Closed)
}

func TestEngine_NonBillableSkipsReportQuestions(t *testing.T) {
	e := newTestEngine(&fakeMerger{})
	s := domain.NewSessionRecord("s", testutil.FixedNow)

	r := drive(t, e, s, "2579", "Ana", "No Facturable")
	assert.Equal(t, domain.PhaseAwaitingProjectHours, r.Phase)
	assert.False(t, s.Current.Report.Applicable)
	assert.Equal(t, domain.ReportClosedNotApplicable, s.Current.Closed)
}

func TestEngine_NotApplicableReportAnyCase(t *testing.T) {
	for _, answer := range []string{"No aplica", "NO APLICA", "no aplica", "No Aplica"} {
		e := newTestEngine(&fakeMerger{})
		s := domain.NewSessionRecord("s", testutil.FixedNow)

		r := drive(t, e, s, "2579", "Ana", "Facturable", answer)
		assert.Equal(t, domain.PhaseAwaitingProjectHours, r.Phase, answer)
		assert.Equal(t, domain.ReportClosedNotApplicable, s.Current.Closed, answer)
		assert.NoError(t, s.Current.Validate())
	}
}

func TestEngine_UnrecognizedClosedAnswerRePrompts(t *testing.T) {
	e := newTestEngine(&fakeMerger{})
	s := domain.NewSessionRecord("s", testutil.FixedNow)

	r := drive(t, e, s, "2579", "Ana", "Facturable", "123", "tal vez")
	assert.Equal(t, domain.PhaseAwaitingReportClosed, r.Phase)
	assert.Equal(t, msgAnswerYesNo, r.Prompt)
}

func TestEngine_InvalidProjectHoursRePrompt(t *testing.T) {
	e := newTestEngine(&fakeMerger{})
	s := domain.NewSessionRecord("s", testutil.FixedNow)

	drive(t, e, s, "2579", "Ana", "No Facturable")
	for _, bad := range []string{"dos", "", "-3", "2h"} {
		r := drive(t, e, s, bad)
		assert.Equal(t, domain.PhaseAwaitingProjectHours, r.Phase)
		assert.Equal(t, msgBadProjectHours, r.Prompt)
	}
	assert.Empty(t, s.Projects)
	assert.Zero(t, s.AccumulatedHours)
	require.NotNil(t, s.Current)
}

func TestEngine_InvalidTotalHoursRePrompt(t *testing.T) {
	m := &fakeMerger{}
	e := newTestEngine(m)
	s := domain.NewSessionRecord("s", testutil.FixedNow)

	r := drive(t, e, s, "2579", "Ana", "No Facturable", "8", "no", "ocho")
	assert.Equal(t, domain.PhaseAwaitingTotalHours, r.Phase)
	assert.Equal(t, msgBadTotalHours, r.Prompt)
	assert.Zero(t, m.calls)
	assert.Nil(t, s.Answers.TotalHours)
}

func TestEngine_MoreProjectsResetsCurrentKeepsCompleted(t *testing.T) {
	e := newTestEngine(&fakeMerger{})
	s := domain.NewSessionRecord("s", testutil.FixedNow)

	drive(t, e, s, "2579", "Ana", "Facturable", "No aplica", "1,5")
	r := drive(t, e, s, "Sí")
	assert.Equal(t, domain.PhaseAwaitingWorkType, r.Phase)
	assert.Equal(t, msgAskNextWorkType, r.Prompt)
	assert.Nil(t, s.Current)
	require.Len(t, s.Projects, 1)
	assert.Equal(t, 1.5, s.Projects[0].Hours)

	drive(t, e, s, "Orden de Trabajo")
	require.NotNil(t, s.Current)
	assert.Equal(t, domain.WorkOrder, s.Current.Classification.Kind)
	assert.Len(t, s.Projects, 1)
}

func TestEngine_AccumulatedHoursMatchesSum(t *testing.T) {
	e := newTestEngine(&fakeMerger{})
	s := domain.NewSessionRecord("s", testutil.FixedNow)
	drive(t, e, s, "2579", "Ana")

	hours := []string{"0,1", "0.2", "1.33", "2"}
	for i, h := range hours {
		drive(t, e, s, "No Facturable", h)
		if i < len(hours)-1 {
			drive(t, e, s, "si")
		}
	}
	sum := 0.0
	for _, p := range s.Projects {
		sum += p.Hours
	}
	assert.InDelta(t, domain.Round2(sum), s.AccumulatedHours, 1e-9)
	assert.InDelta(t, 3.63, s.AccumulatedHours, 1e-9)
}

func TestEngine_MergeFailureEntersErrorPhase(t *testing.T) {
	m := &fakeMerger{err: errors.New("disk full")}
	e := newTestEngine(m)
	s := domain.NewSessionRecord("s", testutil.FixedNow)

	r := drive(t, e, s, "2579", "Ana", "No Facturable", "8", "no", "8")
	assert.Equal(t, domain.PhaseError, r.Phase)
	assert.Equal(t, msgGenerationFailed, r.Prompt)
	assert.NotContains(t, r.Prompt, "disk full")
	assert.False(t, r.ArtifactReady)
	assert.Empty(t, s.ArtifactPath)

	_, err := e.Step(context.Background(), s, "8")
	assert.ErrorIs(t, err, ErrSessionFinished)
}

func TestEngine_CompletedSessionRejectsInput(t *testing.T) {
	e := newTestEngine(&fakeMerger{})
	s := domain.NewSessionRecord("s", testutil.FixedNow)
	drive(t, e, s, "2579", "Ana", "No Facturable", "8", "no", "8")

	_, err := e.Step(context.Background(), s, "hola")
	assert.ErrorIs(t, err, ErrSessionFinished)

	cur := e.Current(s)
	assert.Equal(t, domain.PhaseCompleted, cur.Phase)
	assert.True(t, cur.ArtifactReady)
	assert.Contains(t, cur.Prompt, "Horas totales trabajadas: 8 horas")
}

func TestEngine_MissingCurrentProjectIsInvalidState(t *testing.T) {
	e := newTestEngine(&fakeMerger{})
	s := domain.NewSessionRecord("s", testutil.FixedNow)
	s.Phase = domain.PhaseAwaitingReportNumber

	_, err := e.Step(context.Background(), s, "123")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestEngine_CurrentRepeatsQuestion(t *testing.T) {
	e := newTestEngine(&fakeMerger{})
	s := domain.NewSessionRecord("s", testutil.FixedNow)
	assert.Equal(t, e.Greeting(), e.Current(s))

	drive(t, e, s, "2579", "Ana", "No Facturable", "2", "no")
	cur := e.Current(s)
	assert.Equal(t, domain.PhaseAwaitingTotalHours, cur.Phase)
	assert.Contains(t, cur.Prompt, "Horas sugeridas: 2.00")
}

func TestEngine_WithXLSXMergerProducesReport(t *testing.T) {
	dir := t.TempDir()
	merger := template.NewXLSXMerger(testutil.WriteTemplate(t), artifact.NewStore(dir), testutil.FixedClock())
	e := newTestEngine(merger)
	s := domain.NewSessionRecord("real", testutil.FixedNow)

	r := drive(t, e, s,
		"2579", "Ana",
		"Facturable", "No aplica", "2", "Sí",
		"Orden de Trabajo", "OT-7", "55", "Sí", "3,25", "No",
		"9",
	)
	require.Equal(t, domain.PhaseCompleted, r.Phase)
	assert.Equal(t, "PARTE_TRABAJO_Ana_17102026.xlsx", filepath.Base(s.ArtifactPath))

	rows := testutil.ReadWorkbook(t, s.ArtifactPath)
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"Facturable", "No aplica", "No aplica", "2"}, rows[3])
	assert.Equal(t, []string{"OT-7", "55", "Sí", "3.25"}, rows[4])
	assert.Equal(t, []string{"Total", "9", "Bolsa: 1.25", "Extra: 0"}, rows[5])
}
