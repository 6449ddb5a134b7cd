package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Povusa/TECNOMAT/internal/db"
	"github.com/Povusa/TECNOMAT/internal/domain"
)

// timeLayout is fixed width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteSessionRepo implements SessionRepo on SQLite. The dialogue state is
// kept as a JSON document next to the columns the janitor queries.
type SQLiteSessionRepo struct {
	db db.DBTX
}

// NewSQLiteSessionRepo creates a new SQLiteSessionRepo.
func NewSQLiteSessionRepo(conn db.DBTX) *SQLiteSessionRepo {
	return &SQLiteSessionRepo{db: conn}
}

// sessionState is the stored form of everything in a SessionRecord that has
// no column of its own.
type sessionState struct {
	Answers          answersState          `json:"answers"`
	Projects         []domain.ProjectEntry `json:"projects"`
	AccumulatedHours float64               `json:"accumulated_hours"`
	Current          *domain.ProjectEntry  `json:"current,omitempty"`
	Summary          string                `json:"summary,omitempty"`
}

type answersState struct {
	WorkerName string   `json:"worker_name,omitempty"`
	Day        int      `json:"day,omitempty"`
	Month      string   `json:"month,omitempty"`
	TotalHours *float64 `json:"total_hours,omitempty"`
	BolsaHours *float64 `json:"bolsa_hours,omitempty"`
	ExtraHours *float64 `json:"extra_hours,omitempty"`
}

func (r *SQLiteSessionRepo) Get(ctx context.Context, id string) (*domain.SessionRecord, error) {
	query := `SELECT id, phase, state, artifact_path, created_at, updated_at
		FROM timesheet_sessions WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var s domain.SessionRecord
	var phase, state, createdAtStr, updatedAtStr string
	err := row.Scan(&s.ID, &phase, &state, &s.ArtifactPath, &createdAtStr, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("timesheet session %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning timesheet session: %w", err)
	}
	s.Phase = domain.Phase(phase)
	return r.populateSession(&s, state, createdAtStr, updatedAtStr)
}

func (r *SQLiteSessionRepo) Put(ctx context.Context, s *domain.SessionRecord) error {
	state, err := json.Marshal(sessionState{
		Answers: answersState{
			WorkerName: s.Answers.WorkerName,
			Day:        s.Answers.Day,
			Month:      s.Answers.Month,
			TotalHours: s.Answers.TotalHours,
			BolsaHours: s.Answers.BolsaHours,
			ExtraHours: s.Answers.ExtraHours,
		},
		Projects:         s.Projects,
		AccumulatedHours: s.AccumulatedHours,
		Current:          s.Current,
		Summary:          s.Summary,
	})
	if err != nil {
		return fmt.Errorf("encoding timesheet session: %w", err)
	}

	query := `INSERT INTO timesheet_sessions (id, phase, state, artifact_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			phase = excluded.phase,
			state = excluded.state,
			artifact_path = excluded.artifact_path,
			updated_at = excluded.updated_at`
	_, err = r.db.ExecContext(ctx, query,
		s.ID,
		string(s.Phase),
		string(state),
		s.ArtifactPath,
		s.CreatedAt.UTC().Format(timeLayout),
		s.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("saving timesheet session: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM timesheet_sessions WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting timesheet session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting timesheet session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("timesheet session %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteSessionRepo) ListIdle(ctx context.Context, cutoff time.Time) ([]string, error) {
	query := `SELECT id FROM timesheet_sessions WHERE updated_at < ? ORDER BY updated_at`
	rows, err := r.db.QueryContext(ctx, query, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("listing idle sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning idle session: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating idle sessions: %w", err)
	}
	return ids, nil
}

func (r *SQLiteSessionRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM timesheet_sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return n, nil
}

// populateSession fills in decoded fields after scanning raw strings.
func (r *SQLiteSessionRepo) populateSession(s *domain.SessionRecord, state, createdAtStr, updatedAtStr string) (*domain.SessionRecord, error) {
	var st sessionState
	if err := json.Unmarshal([]byte(state), &st); err != nil {
		return nil, fmt.Errorf("decoding timesheet session %s: %w", s.ID, err)
	}
	s.Answers = domain.GeneralAnswers{
		WorkerName: st.Answers.WorkerName,
		Day:        st.Answers.Day,
		Month:      st.Answers.Month,
		TotalHours: st.Answers.TotalHours,
		BolsaHours: st.Answers.BolsaHours,
		ExtraHours: st.Answers.ExtraHours,
	}
	s.Projects = st.Projects
	s.AccumulatedHours = st.AccumulatedHours
	s.Current = st.Current
	s.Summary = st.Summary

	var err error
	s.CreatedAt, err = time.Parse(timeLayout, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	s.UpdatedAt, err = time.Parse(timeLayout, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return s, nil
}
