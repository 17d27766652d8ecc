package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/presensi-backend/internal/model"
)

var (
	ErrDuplicateGroupCode = errors.New("group with this code already exists")
	ErrGroupInUse         = errors.New("group is still referenced by students or sessions")
)

// GroupRepository handles group (class/cohort) data access.
type GroupRepository struct {
	pool *pgxpool.Pool
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

// GetByID retrieves a group by ID.
func (r *GroupRepository) GetByID(ctx context.Context, id int) (*model.Group, error) {
	g := &model.Group{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, code, created_at, updated_at FROM groups WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.Code, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// List retrieves all groups ordered by name.
func (r *GroupRepository) List(ctx context.Context) ([]model.Group, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, code, created_at, updated_at FROM groups ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []model.Group
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Code, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// Create inserts a new group.
func (r *GroupRepository) Create(ctx context.Context, g *model.Group) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO groups (name, code) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		g.Name, g.Code,
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateGroupCode
		}
		return err
	}
	return nil
}

// Update modifies a group's name and code. Returns pgx.ErrNoRows when the
// group does not exist.
func (r *GroupRepository) Update(ctx context.Context, g *model.Group) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE groups SET name = $1, code = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`,
		g.Name, g.Code, g.ID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateGroupCode
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a group by ID. Fails with ErrGroupInUse while students
// or sessions still reference it.
func (r *GroupRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrGroupInUse
		}
		return err
	}
	return nil
}
