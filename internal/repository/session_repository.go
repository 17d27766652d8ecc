package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/presensi-backend/internal/model"
)

// ErrDuplicateSession is returned when a concurrent insert already created
// the session for the same (group, date). Expected under concurrency —
// callers re-query and use the winner.
var ErrDuplicateSession = errors.New("session for this group and date already exists")

// SessionRepository handles attendance session data access.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// FindByGroupAndDate retrieves the session for one group and calendar date.
// Returns pgx.ErrNoRows when none exists yet. IS NOT DISTINCT FROM keeps
// the lookup correct for ungrouped (NULL group) sessions.
func (r *SessionRepository) FindByGroupAndDate(ctx context.Context, groupID *int, date time.Time) (*model.Session, error) {
	s := &model.Session{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, group_id, session_date, start_time::text, end_time::text
		 FROM sessions
		 WHERE group_id IS NOT DISTINCT FROM $1 AND session_date = $2`,
		groupID, date,
	).Scan(&s.ID, &s.GroupID, &s.SessionDate, &s.StartTime, &s.EndTime)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new session. The unique (group_id, session_date)
// constraint makes this the atomic "insert if absent" primitive: when a
// concurrent request won the race, no row comes back and ErrDuplicateSession
// is returned with nothing half-written.
func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO sessions (group_id, session_date, start_time)
		 VALUES ($1, $2, $3)
		 ON CONFLICT ON CONSTRAINT sessions_group_date_key DO NOTHING
		 RETURNING id`,
		s.GroupID, s.SessionDate, s.StartTime,
	).Scan(&s.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDuplicateSession
	}
	return err
}
