package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Povusa/TECNOMAT/internal/artifact"
	"github.com/Povusa/TECNOMAT/internal/contract"
	"github.com/Povusa/TECNOMAT/internal/dialogue"
	"github.com/Povusa/TECNOMAT/internal/repository"
	"github.com/Povusa/TECNOMAT/internal/template"
	"github.com/Povusa/TECNOMAT/internal/testutil"
	"github.com/stretchr/testify/require"
)

const testPasscode = "2579"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) names() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.events))
	for i, e := range o.events {
		out[i] = e.Name
	}
	return out
}

type fixture struct {
	svc      TimesheetService
	repo     repository.SessionRepo
	store    *artifact.Store
	clock    *fakeClock
	observer *recordingObserver
}

type fixtureOption func(*TimesheetOptions)

func withMergeTimeout(d time.Duration) fixtureOption {
	return func(o *TimesheetOptions) { o.MergeTimeout = d }
}

// newFixture wires the service on an in-memory SQLite store. A nil merger
// means the real xlsx merger on the standard test template.
func newFixture(t *testing.T, merger dialogue.Merger, opts ...fixtureOption) *fixture {
	t.Helper()
	store := artifact.NewStore(t.TempDir())
	if merger == nil {
		merger = template.NewXLSXMerger(testutil.WriteTemplate(t), store, testutil.FixedClock())
	}
	engine := dialogue.NewEngine(testPasscode, merger, dialogue.WithClock(testutil.FixedClock()))
	repo := repository.NewSQLiteSessionRepo(testutil.NewTestDB(t))
	clock := &fakeClock{now: testutil.FixedNow}
	obs := &recordingObserver{}

	seq := 0
	var seqMu sync.Mutex
	o := TimesheetOptions{
		IdleTTL: 2 * time.Hour,
		Version: "test",
		Now:     clock.Now,
		NewID: func() string {
			seqMu.Lock()
			defer seqMu.Unlock()
			seq++
			return fmt.Sprintf("gen-%d", seq)
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &fixture{
		svc:      NewTimesheetService(repo, engine, store, o, obs),
		repo:     repo,
		store:    store,
		clock:    clock,
		observer: obs,
	}
}

func (f *fixture) start(t *testing.T, id string) *contract.StartResponse {
	t.Helper()
	resp, err := f.svc.Start(context.Background(), contract.NewStartRequest(id))
	require.NoError(t, err)
	return resp
}

func (f *fixture) send(t *testing.T, id string, messages ...string) contract.Turn {
	t.Helper()
	var turn contract.Turn
	for _, m := range messages {
		resp, err := f.svc.SendMessage(context.Background(), contract.MessageRequest{SessionID: id, Message: m})
		require.NoError(t, err, "message %q", m)
		turn = resp.Turn
	}
	return turn
}

// singleProjectAnswers completes a session with one 3.5h project and 8h total.
var singleProjectAnswers = []string{"2579", "Ana", "Facturable", "No aplica", "3,5", "No", "8"}
