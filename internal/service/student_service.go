package service

import (
	"context"

	"github.com/stemsi/presensi-backend/internal/model"
	"github.com/stemsi/presensi-backend/internal/repository"
)

// StudentService handles student management (listing, removal). Enrollment
// lives in EnrollmentService.
type StudentService struct {
	studentRepo *repository.StudentRepository
}

// NewStudentService creates a new StudentService.
func NewStudentService(studentRepo *repository.StudentRepository) *StudentService {
	return &StudentService{studentRepo: studentRepo}
}

// GetByID retrieves a student by ID.
func (s *StudentService) GetByID(ctx context.Context, id int) (*model.Student, error) {
	return s.studentRepo.GetByID(ctx, id)
}

// ListPaginated retrieves students with pagination and optional group filter.
func (s *StudentService) ListPaginated(ctx context.Context, groupID *int, page, perPage int) ([]model.Student, int, error) {
	offset := (page - 1) * perPage
	return s.studentRepo.ListPaginated(ctx, groupID, perPage, offset)
}

// Delete removes a student.
func (s *StudentService) Delete(ctx context.Context, id int) error {
	return s.studentRepo.Delete(ctx, id)
}
