package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Povusa/TECNOMAT/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEvicter struct {
	TimesheetService
	calls atomic.Int32
	err   error
}

func (c *countingEvicter) EvictIdle(context.Context) (*contract.EvictResponse, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &contract.EvictResponse{Evicted: []string{"x"}}, nil
}

func TestRunJanitor_SweepsUntilCancelled(t *testing.T) {
	svc := &countingEvicter{}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunJanitor(ctx, svc, 5*time.Millisecond, logger) }()

	require.Eventually(t, func() bool { return svc.calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
	assert.Contains(t, logs.String(), "evicted idle sessions")
}

func TestRunJanitor_KeepsGoingAfterErrors(t *testing.T) {
	svc := &countingEvicter{err: errors.New("db locked")}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunJanitor(ctx, svc, 5*time.Millisecond, logger) }()

	require.Eventually(t, func() bool { return svc.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
	assert.Contains(t, logs.String(), "db locked")
}

func TestRunJanitor_RejectsNonPositiveInterval(t *testing.T) {
	err := RunJanitor(context.Background(), &countingEvicter{}, 0, nil)
	assert.Error(t, err)
}

func TestRunJanitor_EvictsThroughService(t *testing.T) {
	f := newFixture(t, nil)
	f.start(t, "stale")
	f.clock.Advance(3 * time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunJanitor(ctx, f.svc, 5*time.Millisecond, slog.New(slog.DiscardHandler)) }()

	require.Eventually(t, func() bool {
		h, err := f.svc.Health(context.Background())
		return err == nil && h.ActiveSessions == 0
	}, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}
