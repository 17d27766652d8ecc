package service

import (
	"context"

	"github.com/stemsi/presensi-backend/internal/model"
	"github.com/stemsi/presensi-backend/internal/repository"
)

// GroupService handles group business logic.
type GroupService struct {
	groupRepo *repository.GroupRepository
}

// NewGroupService creates a new GroupService.
func NewGroupService(groupRepo *repository.GroupRepository) *GroupService {
	return &GroupService{groupRepo: groupRepo}
}

// GetByID retrieves a group by its ID.
func (s *GroupService) GetByID(ctx context.Context, id int) (*model.Group, error) {
	return s.groupRepo.GetByID(ctx, id)
}

// List retrieves all groups.
func (s *GroupService) List(ctx context.Context) ([]model.Group, error) {
	return s.groupRepo.List(ctx)
}

// Create creates a new group.
func (s *GroupService) Create(ctx context.Context, group *model.Group) error {
	return s.groupRepo.Create(ctx, group)
}

// Update modifies an existing group.
func (s *GroupService) Update(ctx context.Context, group *model.Group) error {
	return s.groupRepo.Update(ctx, group)
}

// Delete removes a group. Foreign key constraints on students and sessions
// prevent deletion while the group is still referenced.
func (s *GroupService) Delete(ctx context.Context, id int) error {
	return s.groupRepo.Delete(ctx, id)
}
