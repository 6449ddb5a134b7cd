package repository

import (
	"context"
	"time"

	"github.com/Povusa/TECNOMAT/internal/domain"
)

// SessionRepo stores timesheet conversations by id. Implementations are safe
// for concurrent use. Get returns a copy; callers persist changes with Put.
type SessionRepo interface {
	Get(ctx context.Context, id string) (*domain.SessionRecord, error)
	Put(ctx context.Context, s *domain.SessionRecord) error
	Delete(ctx context.Context, id string) error
	// ListIdle returns the ids of sessions whose UpdatedAt is before cutoff.
	ListIdle(ctx context.Context, cutoff time.Time) ([]string, error)
	Count(ctx context.Context) (int, error)
}
