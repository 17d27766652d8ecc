package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/stemsi/presensi-backend/internal/model"
	"github.com/stemsi/presensi-backend/internal/recognition"
)

var (
	ErrDuplicateStudentCode = errors.New("student with this code already exists")
	// ErrCorruptEmbedding is returned when a stored embedding does not have
	// the expected dimension. A truncated vector must never reach the
	// matcher where it would silently skew distances.
	ErrCorruptEmbedding = errors.New("stored embedding has wrong dimension")
	ErrStudentInUse     = errors.New("student is still referenced by attendance events")
)

// StudentRepository handles enrolled student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetByID retrieves a student by ID, without the embedding.
func (r *StudentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, student_code, group_id, face_thumb_path, created_at
		 FROM students WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.StudentCode, &s.GroupID, &s.FaceThumbPath, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListPaginated retrieves students with pagination and optional group filter.
func (r *StudentRepository) ListPaginated(ctx context.Context, groupID *int, limit, offset int) ([]model.Student, int, error) {
	countQuery := `SELECT COUNT(*) FROM students`
	var countArgs []interface{}
	if groupID != nil {
		countQuery += ` WHERE group_id = $1`
		countArgs = append(countArgs, *groupID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, name, student_code, group_id, face_thumb_path, created_at FROM students`
	var args []interface{}
	argIdx := 1

	if groupID != nil {
		query += ` WHERE group_id = $1`
		args = append(args, *groupID)
		argIdx++
	}

	query += ` ORDER BY name LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.StudentCode, &s.GroupID, &s.FaceThumbPath, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		students = append(students, s)
	}
	return students, total, rows.Err()
}

// Create inserts a new student with their reference embedding.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO students (name, student_code, group_id, embedding, face_thumb_path)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		s.Name, s.StudentCode, s.GroupID, pgvector.NewVector(s.Embedding), s.FaceThumbPath,
	).Scan(&s.ID, &s.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateStudentCode
		}
		return err
	}
	return nil
}

// ListEmbeddings returns the identity pool the matcher scans, optionally
// restricted to one group. Ordered by id so repeated scans see the pool in
// a stable (insertion) order.
func (r *StudentRepository) ListEmbeddings(ctx context.Context, groupID *int) ([]model.IdentityEmbedding, error) {
	query := `SELECT id, group_id, embedding FROM students`
	var args []interface{}
	if groupID != nil {
		query += ` WHERE group_id = $1`
		args = append(args, *groupID)
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pool []model.IdentityEmbedding
	for rows.Next() {
		var (
			ie  model.IdentityEmbedding
			vec pgvector.Vector
		)
		if err := rows.Scan(&ie.StudentID, &ie.GroupID, &vec); err != nil {
			return nil, err
		}
		ie.Embedding = vec.Slice()
		if len(ie.Embedding) != recognition.EmbeddingDim {
			return nil, fmt.Errorf("%w: student %d has dimension %d, want %d",
				ErrCorruptEmbedding, ie.StudentID, len(ie.Embedding), recognition.EmbeddingDim)
		}
		pool = append(pool, ie)
	}
	return pool, rows.Err()
}

// Delete removes a student by ID. Fails with ErrStudentInUse while
// attendance events still reference the student.
func (r *StudentRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrStudentInUse
		}
		return err
	}
	return nil
}
