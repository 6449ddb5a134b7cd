// Package dialogue implements the question/answer state machine that
// collects a daily timesheet.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Povusa/TECNOMAT/internal/domain"
)

var (
	// ErrSessionFinished is returned for input on a completed or failed session.
	ErrSessionFinished = errors.New("session already finished")

	// ErrInvalidState indicates a record whose phase and data disagree.
	ErrInvalidState = errors.New("invalid session state")
)

// Merger renders the report for a finished session and returns its path.
type Merger interface {
	Merge(ctx context.Context, sessionID string, answers domain.GeneralAnswers, projects []domain.ProjectEntry) (string, error)
}

// Reply is what the engine says back after a turn.
type Reply struct {
	Phase         domain.Phase
	Prompt        string
	Options       []string
	ArtifactReady bool
	Summary       string
}

type stepFunc func(ctx context.Context, s *domain.SessionRecord, input string) Reply

// Engine drives SessionRecords through the timesheet phases. It holds no
// per-session state and is safe for concurrent use on different records.
type Engine struct {
	passcode    string
	merger      Merger
	now         func() time.Time
	logger      *slog.Logger
	transitions map[domain.Phase]stepFunc
	needsEntry  map[domain.Phase]bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to date the report.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger for generation failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine gated by passcode that renders reports with merger.
func NewEngine(passcode string, merger Merger, opts ...Option) *Engine {
	e := &Engine{
		passcode: passcode,
		merger:   merger,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	e.transitions = map[domain.Phase]stepFunc{
		domain.PhaseAwaitingPassword:     e.onPassword,
		domain.PhaseAwaitingName:         e.onName,
		domain.PhaseAwaitingWorkType:     e.onWorkType,
		domain.PhaseAwaitingWorkOrderID:  e.onWorkOrderID,
		domain.PhaseAwaitingReportNumber: e.onReportNumber,
		domain.PhaseAwaitingReportClosed: e.onReportClosed,
		domain.PhaseAwaitingProjectHours: e.onProjectHours,
		domain.PhaseAwaitingMoreProjects: e.onMoreProjects,
		domain.PhaseAwaitingTotalHours:   e.onTotalHours,
	}
	e.needsEntry = map[domain.Phase]bool{
		domain.PhaseAwaitingWorkOrderID:  true,
		domain.PhaseAwaitingReportNumber: true,
		domain.PhaseAwaitingReportClosed: true,
		domain.PhaseAwaitingProjectHours: true,
	}
	return e
}

// Greeting is the first prompt of every new session.
func (e *Engine) Greeting() Reply {
	return Reply{Phase: domain.PhaseAwaitingPassword, Prompt: msgPassword}
}

// Current repeats the question the record is waiting on, without changing it.
func (e *Engine) Current(s *domain.SessionRecord) Reply {
	r := Reply{Phase: s.Phase}
	switch s.Phase {
	case domain.PhaseAwaitingPassword:
		r.Prompt = msgPassword
	case domain.PhaseAwaitingName:
		r.Prompt = msgNameRequired
	case domain.PhaseAwaitingWorkType:
		r.Prompt, r.Options = fmt.Sprintf(msgAskWorkTypeFmt, s.Answers.WorkerName), workTypeOptions
		if len(s.Projects) > 0 {
			r.Prompt = msgAskNextWorkType
		}
	case domain.PhaseAwaitingWorkOrderID:
		r.Prompt = msgAskWorkOrder
	case domain.PhaseAwaitingReportNumber:
		r.Prompt = msgAskReportNumber
	case domain.PhaseAwaitingReportClosed:
		r.Prompt, r.Options = msgAskReportClosed, yesNoOptions
	case domain.PhaseAwaitingProjectHours:
		r.Prompt = msgAskProjectHours
	case domain.PhaseAwaitingMoreProjects:
		r.Prompt, r.Options = msgAskMoreProjects, yesNoOptions
	case domain.PhaseAwaitingTotalHours:
		r.Prompt = suggestTotalPrompt(s.AccumulatedHours)
	case domain.PhaseCompleted:
		r.Prompt, r.Summary, r.ArtifactReady = s.Summary, s.Summary, s.HasArtifact()
		if s.Answers.TotalHours != nil {
			r.Prompt = completionMessage(domain.SplitHours(*s.Answers.TotalHours), s.Summary)
		}
	case domain.PhaseError:
		r.Prompt = msgGenerationFailed
	}
	return r
}

// Step consumes one message and advances s. Malformed input re-prompts in the
// same phase and is not an error.
func (e *Engine) Step(ctx context.Context, s *domain.SessionRecord, input string) (Reply, error) {
	if s.Phase.Terminal() {
		return Reply{}, ErrSessionFinished
	}
	step, ok := e.transitions[s.Phase]
	if !ok {
		return Reply{}, fmt.Errorf("%w: unknown phase %q", ErrInvalidState, s.Phase)
	}
	if e.needsEntry[s.Phase] && s.Current == nil {
		return Reply{}, fmt.Errorf("%w: phase %q without a project in progress", ErrInvalidState, s.Phase)
	}

	r := step(ctx, s, input)
	s.Phase = r.Phase
	return r, nil
}

func (e *Engine) onPassword(_ context.Context, _ *domain.SessionRecord, input string) Reply {
	if strings.TrimSpace(input) != e.passcode {
		return Reply{Phase: domain.PhaseAwaitingPassword, Prompt: msgWrongPassword}
	}
	return Reply{Phase: domain.PhaseAwaitingName, Prompt: msgAskName}
}

func (e *Engine) onName(_ context.Context, s *domain.SessionRecord, input string) Reply {
	name := strings.TrimSpace(input)
	if name == "" {
		return Reply{Phase: domain.PhaseAwaitingName, Prompt: msgNameRequired}
	}
	s.Answers.WorkerName = name
	s.Answers.SetDate(e.now())
	return Reply{
		Phase:   domain.PhaseAwaitingWorkType,
		Prompt:  fmt.Sprintf(msgAskWorkTypeFmt, name),
		Options: workTypeOptions,
	}
}

func (e *Engine) onWorkType(_ context.Context, s *domain.SessionRecord, input string) Reply {
	label := strings.TrimSpace(input)
	if label == "" {
		return Reply{Phase: domain.PhaseAwaitingWorkType, Prompt: msgEmptyAnswer + msgAskNextWorkType, Options: workTypeOptions}
	}

	kind := ParseWorkKind(label)
	switch kind {
	case domain.WorkOrder:
		s.StartProject(domain.Classification{Kind: domain.WorkOrder})
		return Reply{Phase: domain.PhaseAwaitingWorkOrderID, Prompt: msgAskWorkOrder}
	case domain.WorkNonBillable:
		s.StartProject(domain.Classification{Kind: domain.WorkNonBillable})
		return Reply{Phase: domain.PhaseAwaitingProjectHours, Prompt: msgAskProjectHours}
	default:
		s.StartProject(domain.Classification{Kind: domain.WorkBillable, Label: label})
		return Reply{Phase: domain.PhaseAwaitingReportNumber, Prompt: msgAskReportNumber}
	}
}

func (e *Engine) onWorkOrderID(_ context.Context, s *domain.SessionRecord, input string) Reply {
	order := strings.TrimSpace(input)
	if order == "" {
		return Reply{Phase: domain.PhaseAwaitingWorkOrderID, Prompt: msgEmptyAnswer + msgAskWorkOrder}
	}
	s.Current.Classification.Label = order
	return Reply{Phase: domain.PhaseAwaitingReportNumber, Prompt: msgAskReportNumber}
}

func (e *Engine) onReportNumber(_ context.Context, s *domain.SessionRecord, input string) Reply {
	number := strings.TrimSpace(input)
	if number == "" {
		return Reply{Phase: domain.PhaseAwaitingReportNumber, Prompt: msgEmptyAnswer + msgAskReportNumber}
	}
	if IsNotApplicable(number) {
		s.Current.MarkReportNotApplicable()
		return Reply{Phase: domain.PhaseAwaitingProjectHours, Prompt: msgAskProjectHours}
	}
	s.Current.Report = domain.ReportNumber{Number: number, Applicable: true}
	return Reply{Phase: domain.PhaseAwaitingReportClosed, Prompt: msgAskReportClosed, Options: yesNoOptions}
}

func (e *Engine) onReportClosed(_ context.Context, s *domain.SessionRecord, input string) Reply {
	switch ParseYesNo(input) {
	case AnswerYes:
		s.Current.Closed = domain.ReportClosedYes
	case AnswerNo:
		s.Current.Closed = domain.ReportClosedNo
	default:
		return Reply{Phase: domain.PhaseAwaitingReportClosed, Prompt: msgAnswerYesNo, Options: yesNoOptions}
	}
	return Reply{Phase: domain.PhaseAwaitingProjectHours, Prompt: msgAskProjectHours}
}

func (e *Engine) onProjectHours(_ context.Context, s *domain.SessionRecord, input string) Reply {
	hours, ok := ParseHours(input)
	if !ok {
		return Reply{Phase: domain.PhaseAwaitingProjectHours, Prompt: msgBadProjectHours}
	}
	s.CompleteProject(hours)
	return Reply{Phase: domain.PhaseAwaitingMoreProjects, Prompt: msgAskMoreProjects, Options: yesNoOptions}
}

func (e *Engine) onMoreProjects(_ context.Context, s *domain.SessionRecord, input string) Reply {
	if ParseYesNo(input) == AnswerYes {
		s.Current = nil
		return Reply{Phase: domain.PhaseAwaitingWorkType, Prompt: msgAskNextWorkType, Options: workTypeOptions}
	}
	return Reply{Phase: domain.PhaseAwaitingTotalHours, Prompt: suggestTotalPrompt(s.AccumulatedHours)}
}

func (e *Engine) onTotalHours(ctx context.Context, s *domain.SessionRecord, input string) Reply {
	total, ok := ParseHours(input)
	if !ok {
		return Reply{Phase: domain.PhaseAwaitingTotalHours, Prompt: msgBadTotalHours}
	}

	buckets := domain.SplitHours(total)
	s.Answers.SetHours(buckets)

	path, err := e.merger.Merge(ctx, s.ID, s.Answers, s.Projects)
	if err != nil {
		e.logger.ErrorContext(ctx, "report generation failed", "session_id", s.ID, "error", err)
		return Reply{Phase: domain.PhaseError, Prompt: msgGenerationFailed}
	}

	s.ArtifactPath = path
	s.Summary = BuildSummary(s)
	return Reply{
		Phase:         domain.PhaseCompleted,
		Prompt:        completionMessage(buckets, s.Summary),
		ArtifactReady: true,
		Summary:       s.Summary,
	}
}
