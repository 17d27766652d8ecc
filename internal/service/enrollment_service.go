package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/presensi-backend/internal/config"
	"github.com/stemsi/presensi-backend/internal/model"
	"github.com/stemsi/presensi-backend/internal/recognition"
)

// Enrollment pipeline errors. Both are client problems, not faults.
var (
	ErrNoFaceDetected = errors.New("no face detected or detection score too low")
	ErrLivenessFailed = errors.New("liveness check failed")
)

// StudentCreator persists a newly enrolled student.
type StudentCreator interface {
	Create(ctx context.Context, s *model.Student) error
}

// EnrollmentInput carries the form fields of an enrollment request.
type EnrollmentInput struct {
	Name        string
	StudentCode string
	GroupID     *int
	Image       []byte
}

// EnrollmentService turns a reference face image into an enrolled student:
// embed, liveness-check, save the thumbnail, insert the row.
type EnrollmentService struct {
	cfg      *config.Config
	embedder Embedder
	liveness LivenessChecker
	students StudentCreator
	log      zerolog.Logger
}

// NewEnrollmentService creates a new EnrollmentService.
func NewEnrollmentService(cfg *config.Config, embedder Embedder, liveness LivenessChecker, students StudentCreator, log zerolog.Logger) *EnrollmentService {
	return &EnrollmentService{
		cfg:      cfg,
		embedder: embedder,
		liveness: liveness,
		students: students,
		log:      log.With().Str("component", "enrollment_service").Logger(),
	}
}

// Enroll runs the enrollment pipeline and returns the created student.
func (s *EnrollmentService) Enroll(ctx context.Context, in EnrollmentInput) (*model.Student, error) {
	embCtx, cancel := context.WithTimeout(ctx, s.cfg.FaceAPITimeout)
	emb, err := s.embedder.Embed(embCtx, in.Image)
	cancel()
	if err != nil {
		return nil, err
	}
	if emb == nil || emb.DetScore < s.cfg.MinDetectionScore {
		return nil, ErrNoFaceDetected
	}
	if len(emb.Embedding) != recognition.EmbeddingDim {
		return nil, fmt.Errorf("provider returned %d-dim embedding, want %d", len(emb.Embedding), recognition.EmbeddingDim)
	}

	if s.cfg.LivenessRequired {
		liveCtx, cancel := context.WithTimeout(ctx, s.cfg.FaceAPITimeout)
		live, err := s.liveness.CheckLiveness(liveCtx, in.Image)
		cancel()
		if err != nil {
			return nil, err
		}
		if !live {
			return nil, ErrLivenessFailed
		}
	}

	thumbPath, err := s.saveThumb(in.Image)
	if err != nil {
		// The thumbnail is a convenience; enrollment proceeds without it.
		s.log.Warn().Err(err).Str("student_code", in.StudentCode).Msg("Failed to save face thumbnail")
		thumbPath = nil
	}

	student := &model.Student{
		Name:          in.Name,
		StudentCode:   in.StudentCode,
		GroupID:       in.GroupID,
		Embedding:     emb.Embedding,
		FaceThumbPath: thumbPath,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, err
	}

	s.log.Info().
		Int("student_id", student.ID).
		Str("student_code", student.StudentCode).
		Float64("det_score", emb.DetScore).
		Msg("Student enrolled")

	return student, nil
}

// saveThumb writes the reference image under the upload dir and returns
// its relative URL path.
func (s *EnrollmentService) saveThumb(image []byte) (*string, error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%d.jpg", uuid.New().String(), time.Now().Unix())
	if err := os.WriteFile(filepath.Join(s.cfg.UploadDir, filename), image, 0o644); err != nil {
		return nil, fmt.Errorf("write thumbnail: %w", err)
	}

	url := "/uploads/" + filename
	return &url, nil
}
