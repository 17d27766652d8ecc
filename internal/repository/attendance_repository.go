package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/presensi-backend/internal/model"
)

// AttendanceRepository handles attendance event data access.
type AttendanceRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// Insert appends one attendance event and fills in its assigned id and
// timestamp.
func (r *AttendanceRepository) Insert(ctx context.Context, e *model.AttendanceEvent) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO attendance_events (session_id, student_id, confidence, liveness_passed, source)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, recognized_at`,
		e.SessionID, e.StudentID, e.Confidence, e.LivenessPassed, e.Source,
	).Scan(&e.ID, &e.RecognizedAt)
}

// ExistsForSessionStudent reports whether the session already holds an
// event for the student. Used by the unique attendance policy.
func (r *AttendanceRepository) ExistsForSessionStudent(ctx context.Context, sessionID, studentID int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM attendance_events WHERE session_id = $1 AND student_id = $2)`,
		sessionID, studentID,
	).Scan(&exists)
	return exists, err
}

// ListLog retrieves the joined attendance log with optional group/day
// filters and pagination, newest first.
func (r *AttendanceRepository) ListLog(ctx context.Context, groupID *int, day *time.Time, limit, offset int) ([]model.AttendanceLogRow, int, error) {
	baseQuery := `
		FROM attendance_events ae
		JOIN students st ON ae.student_id = st.id
		JOIN sessions se ON ae.session_id = se.id
		LEFT JOIN groups g ON se.group_id = g.id
		WHERE 1=1
	`
	var args []interface{}

	if groupID != nil {
		args = append(args, *groupID)
		baseQuery += ` AND se.group_id = $` + strconv.Itoa(len(args))
	}
	if day != nil {
		args = append(args, *day)
		baseQuery += ` AND se.session_date = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ae.id, se.group_id, g.name, se.session_date,
		       st.id, st.student_code, st.name,
		       ae.recognized_at, ae.confidence, ae.liveness_passed, ae.source
	` + baseQuery + `
		ORDER BY ae.recognized_at DESC
		LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var logRows []model.AttendanceLogRow
	for rows.Next() {
		var lr model.AttendanceLogRow
		if err := rows.Scan(
			&lr.EventID, &lr.GroupID, &lr.GroupName, &lr.SessionDate,
			&lr.StudentID, &lr.StudentCode, &lr.StudentName,
			&lr.RecognizedAt, &lr.Confidence, &lr.LivenessPassed, &lr.Source,
		); err != nil {
			return nil, 0, err
		}
		logRows = append(logRows, lr)
	}
	return logRows, total, rows.Err()
}

// ListLogAll retrieves the full filtered log for CSV export, oldest first.
func (r *AttendanceRepository) ListLogAll(ctx context.Context, groupID *int, day *time.Time) ([]model.AttendanceLogRow, error) {
	query := `
		SELECT ae.id, se.group_id, g.name, se.session_date,
		       st.id, st.student_code, st.name,
		       ae.recognized_at, ae.confidence, ae.liveness_passed, ae.source
		FROM attendance_events ae
		JOIN students st ON ae.student_id = st.id
		JOIN sessions se ON ae.session_id = se.id
		LEFT JOIN groups g ON se.group_id = g.id
		WHERE 1=1
	`
	var args []interface{}

	if groupID != nil {
		args = append(args, *groupID)
		query += ` AND se.group_id = $` + strconv.Itoa(len(args))
	}
	if day != nil {
		args = append(args, *day)
		query += ` AND se.session_date = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY ae.recognized_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logRows []model.AttendanceLogRow
	for rows.Next() {
		var lr model.AttendanceLogRow
		if err := rows.Scan(
			&lr.EventID, &lr.GroupID, &lr.GroupName, &lr.SessionDate,
			&lr.StudentID, &lr.StudentCode, &lr.StudentName,
			&lr.RecognizedAt, &lr.Confidence, &lr.LivenessPassed, &lr.Source,
		); err != nil {
			return nil, err
		}
		logRows = append(logRows, lr)
	}
	return logRows, rows.Err()
}
