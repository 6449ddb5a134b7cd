package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Povusa/TECNOMAT/internal/domain"
)

// MemorySessionRepo implements SessionRepo with a map.
type MemorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]*domain.SessionRecord
}

// NewMemorySessionRepo creates an empty MemorySessionRepo.
func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{sessions: make(map[string]*domain.SessionRecord)}
}

func (r *MemorySessionRepo) Get(_ context.Context, id string) (*domain.SessionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("timesheet session %s: %w", id, ErrNotFound)
	}
	return cloneSession(s), nil
}

func (r *MemorySessionRepo) Put(_ context.Context, s *domain.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = cloneSession(s)
	return nil
}

func (r *MemorySessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("timesheet session %s: %w", id, ErrNotFound)
	}
	delete(r.sessions, id)
	return nil
}

func (r *MemorySessionRepo) ListIdle(_ context.Context, cutoff time.Time) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var idle []*domain.SessionRecord
	for _, s := range r.sessions {
		if s.UpdatedAt.Before(cutoff) {
			idle = append(idle, s)
		}
	}
	slices.SortFunc(idle, func(a, b *domain.SessionRecord) int {
		return a.UpdatedAt.Compare(b.UpdatedAt)
	})
	ids := make([]string, len(idle))
	for i, s := range idle {
		ids[i] = s.ID
	}
	return ids, nil
}

func (r *MemorySessionRepo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions), nil
}

// cloneSession copies s deeply enough that neither side sees the other's
// later mutations.
func cloneSession(s *domain.SessionRecord) *domain.SessionRecord {
	c := *s
	c.Projects = slices.Clone(s.Projects)
	if s.Current != nil {
		cur := *s.Current
		c.Current = &cur
	}
	c.Answers.TotalHours = cloneFloat(s.Answers.TotalHours)
	c.Answers.BolsaHours = cloneFloat(s.Answers.BolsaHours)
	c.Answers.ExtraHours = cloneFloat(s.Answers.ExtraHours)
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
