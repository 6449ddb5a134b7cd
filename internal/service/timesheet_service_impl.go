package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/Povusa/TECNOMAT/internal/artifact"
	"github.com/Povusa/TECNOMAT/internal/contract"
	"github.com/Povusa/TECNOMAT/internal/dialogue"
	"github.com/Povusa/TECNOMAT/internal/domain"
	"github.com/Povusa/TECNOMAT/internal/repository"
	"github.com/google/uuid"
)

// TimesheetOptions tunes a TimesheetService. Zero values pick defaults.
type TimesheetOptions struct {
	// IdleTTL is how long an untouched session survives EvictIdle.
	IdleTTL time.Duration
	// MergeTimeout bounds each message, including report generation. Zero
	// means no bound beyond the caller's context.
	MergeTimeout time.Duration
	Version      string
	Logger       *slog.Logger
	Now          func() time.Time
	NewID        func() string
}

const DefaultIdleTTL = 2 * time.Hour

type timesheetService struct {
	sessions  repository.SessionRepo
	engine    *dialogue.Engine
	artifacts *artifact.Store
	locks     *keyedLock
	opts      TimesheetOptions
	observer  UseCaseObserver
}

func NewTimesheetService(
	sessions repository.SessionRepo,
	engine *dialogue.Engine,
	artifacts *artifact.Store,
	opts TimesheetOptions,
	observers ...UseCaseObserver,
) TimesheetService {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &timesheetService{
		sessions:  sessions,
		engine:    engine,
		artifacts: artifacts,
		locks:     newKeyedLock(),
		opts:      opts,
		observer:  useCaseObserverOrNoop(observers),
	}
}

func (s *timesheetService) Start(ctx context.Context, req contract.StartRequest) (resp *contract.StartResponse, err error) {
	id := req.SessionID
	if id == "" {
		id = s.opts.NewID()
	}
	fields := map[string]any{"session_id": id}
	defer observe(ctx, s.observer, UseCaseStart, time.Now(), fields, &err)

	unlock := s.locks.Lock(id)
	defer unlock()

	rec, err := s.sessions.Get(ctx, id)
	if err == nil {
		fields["resumed"] = true
		return &contract.StartResponse{SessionID: id, Turn: toTurn(s.engine.Current(rec)), Resumed: true}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	rec = domain.NewSessionRecord(id, s.opts.Now())
	if err = s.sessions.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return &contract.StartResponse{SessionID: id, Turn: toTurn(s.engine.Greeting())}, nil
}

func (s *timesheetService) SendMessage(ctx context.Context, req contract.MessageRequest) (resp *contract.MessageResponse, err error) {
	fields := map[string]any{"session_id": req.SessionID}
	defer observe(ctx, s.observer, UseCaseMessage, time.Now(), fields, &err)

	if req.SessionID == "" {
		return nil, ErrUnknownSession
	}
	unlock := s.locks.Lock(req.SessionID)
	defer unlock()

	rec, err := s.load(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	fields["from_phase"] = string(rec.Phase)

	stepCtx, cancel := s.stepContext(ctx)
	defer cancel()
	reply, err := s.engine.Step(stepCtx, rec, req.Message)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", req.SessionID, err)
	}
	fields["to_phase"] = string(reply.Phase)

	rec.UpdatedAt = s.opts.Now()
	if err = s.sessions.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return &contract.MessageResponse{SessionID: req.SessionID, Turn: toTurn(reply)}, nil
}

func (s *timesheetService) FetchArtifact(ctx context.Context, sessionID string) (a *contract.Artifact, err error) {
	fields := map[string]any{"session_id": sessionID}
	defer observe(ctx, s.observer, UseCaseDownload, time.Now(), fields, &err)

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	rec, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !rec.HasArtifact() {
		return nil, ErrNoArtifact
	}

	f, err := s.artifacts.Open(rec.ArtifactPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s is gone", ErrNoArtifact, filepath.Base(rec.ArtifactPath))
	}
	if err != nil {
		return nil, fmt.Errorf("opening artifact: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading artifact: %w", err)
	}
	fields["bytes"] = info.Size()
	return &contract.Artifact{
		FileName: filepath.Base(rec.ArtifactPath),
		ModTime:  info.ModTime(),
		Content:  f,
	}, nil
}

func (s *timesheetService) Reset(ctx context.Context, sessionID string) (resp *contract.ResetResponse, err error) {
	fields := map[string]any{"session_id": sessionID}
	defer observe(ctx, s.observer, UseCaseReset, time.Now(), fields, &err)

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	existed := true
	if err = s.sessions.Delete(ctx, sessionID); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("deleting session: %w", err)
		}
		existed, err = false, nil
	}
	s.removeArtifacts(ctx, sessionID)
	fields["existed"] = existed
	return &contract.ResetResponse{Message: contract.ResetMessage, Existed: existed}, nil
}

func (s *timesheetService) EvictIdle(ctx context.Context) (resp *contract.EvictResponse, err error) {
	fields := map[string]any{}
	defer observe(ctx, s.observer, UseCaseEvict, time.Now(), fields, &err)

	cutoff := s.opts.Now().Add(-s.opts.IdleTTL)
	ids, err := s.sessions.ListIdle(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("listing idle sessions: %w", err)
	}

	resp = &contract.EvictResponse{}
	for _, id := range ids {
		if err = ctx.Err(); err != nil {
			return resp, err
		}
		evicted, evictErr := s.evictOne(ctx, id, cutoff)
		if evictErr != nil {
			s.opts.Logger.WarnContext(ctx, "evicting session failed", "session_id", id, "error", evictErr)
			continue
		}
		if evicted {
			resp.Evicted = append(resp.Evicted, id)
		}
	}
	fields["evicted"] = len(resp.Evicted)
	return resp, nil
}

// evictOne deletes id unless it was touched after cutoff while waiting for
// its lock.
func (s *timesheetService) evictOne(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	rec, err := s.sessions.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !rec.UpdatedAt.Before(cutoff) {
		return false, nil
	}
	if err := s.sessions.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	s.removeArtifacts(ctx, id)
	return true, nil
}

func (s *timesheetService) Health(ctx context.Context) (*contract.HealthResponse, error) {
	n, err := s.sessions.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}
	return &contract.HealthResponse{Status: "ok", Version: s.opts.Version, ActiveSessions: n}, nil
}

func (s *timesheetService) load(ctx context.Context, id string) (*domain.SessionRecord, error) {
	rec, err := s.sessions.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return rec, nil
}

func (s *timesheetService) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.MergeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.MergeTimeout)
}

// removeArtifacts is best effort; the session is already gone.
func (s *timesheetService) removeArtifacts(ctx context.Context, id string) {
	if err := s.artifacts.Remove(id); err != nil {
		s.opts.Logger.DebugContext(ctx, "artifact cleanup failed", "session_id", id, "error", err)
	}
}

func toTurn(r dialogue.Reply) contract.Turn {
	return contract.Turn{
		Phase:         r.Phase,
		Message:       r.Prompt,
		Options:       r.Options,
		ArtifactReady: r.ArtifactReady,
		Summary:       r.Summary,
	}
}
