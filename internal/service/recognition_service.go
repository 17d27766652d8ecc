package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/presensi-backend/internal/config"
	"github.com/stemsi/presensi-backend/internal/faceapi"
	"github.com/stemsi/presensi-backend/internal/model"
	"github.com/stemsi/presensi-backend/internal/recognition"
	"github.com/stemsi/presensi-backend/internal/repository"
)

// DefaultSource tags events from clients that do not name their camera.
const DefaultSource = "webcam"

// defaultStartTime is assigned to sessions auto-created by recognition.
const defaultStartTime = "00:00"

// Embedder obtains a face embedding and detection confidence from raw
// image bytes. Nil result means no face was found.
type Embedder interface {
	Embed(ctx context.Context, image []byte) (*faceapi.EmbedResult, error)
}

// LivenessChecker reports whether an image plausibly shows a live subject.
type LivenessChecker interface {
	CheckLiveness(ctx context.Context, image []byte) (bool, error)
}

// IdentityPool supplies the enrolled embeddings the matcher scans.
type IdentityPool interface {
	ListEmbeddings(ctx context.Context, groupID *int) ([]model.IdentityEmbedding, error)
}

// StudentReader loads an enrolled student by id.
type StudentReader interface {
	GetByID(ctx context.Context, id int) (*model.Student, error)
}

// SessionStore is the create-or-fetch surface the session resolver needs.
type SessionStore interface {
	FindByGroupAndDate(ctx context.Context, groupID *int, date time.Time) (*model.Session, error)
	Create(ctx context.Context, s *model.Session) error
}

// AttendanceStore persists attendance events.
type AttendanceStore interface {
	Insert(ctx context.Context, e *model.AttendanceEvent) error
	ExistsForSessionStudent(ctx context.Context, sessionID, studentID int) (bool, error)
}

// EventPublisher broadcasts terminal recognition outcomes (stats queue +
// live feed). Publishing is best-effort; failures are logged, never
// surfaced to the recognizing client.
type EventPublisher interface {
	Publish(ctx context.Context, ev model.RecognitionEvent) error
}

// RecognitionService runs the recognition pipeline:
// embed → liveness → match → session resolve → record.
// Nothing before the record step writes to the database.
type RecognitionService struct {
	cfg        *config.Config
	embedder   Embedder
	liveness   LivenessChecker
	identities IdentityPool
	students   StudentReader
	sessions   SessionStore
	attendance AttendanceStore
	publisher  EventPublisher
	log        zerolog.Logger
}

// NewRecognitionService creates a new RecognitionService. publisher may be
// nil when no feed/stats fan-out is wanted (tests).
func NewRecognitionService(
	cfg *config.Config,
	embedder Embedder,
	liveness LivenessChecker,
	identities IdentityPool,
	students StudentReader,
	sessions SessionStore,
	attendance AttendanceStore,
	publisher EventPublisher,
	log zerolog.Logger,
) *RecognitionService {
	return &RecognitionService{
		cfg:        cfg,
		embedder:   embedder,
		liveness:   liveness,
		identities: identities,
		students:   students,
		sessions:   sessions,
		attendance: attendance,
		publisher:  publisher,
		log:        log.With().Str("component", "recognition_service").Logger(),
	}
}

// Recognize processes one camera frame and returns a terminal outcome.
// Rejections and no-match are normal results with a nil error; only
// provider timeouts and persistence failures come back as errors.
func (s *RecognitionService) Recognize(ctx context.Context, image []byte, groupID *int, source string) (*model.RecognitionResult, error) {
	if source == "" {
		source = DefaultSource
	}

	// 1. Embed.
	embCtx, cancel := context.WithTimeout(ctx, s.cfg.FaceAPITimeout)
	emb, err := s.embedder.Embed(embCtx, image)
	cancel()
	if err != nil {
		return nil, err
	}
	if emb == nil || emb.DetScore < s.cfg.MinDetectionScore {
		return s.finish(ctx, &model.RecognitionResult{Outcome: model.OutcomeRejectedNoFace}, source), nil
	}
	if len(emb.Embedding) != recognition.EmbeddingDim {
		return nil, fmt.Errorf("provider returned %d-dim embedding, want %d", len(emb.Embedding), recognition.EmbeddingDim)
	}

	// 2. Liveness. Runs regardless of whether the match would succeed.
	livenessPassed := true
	if s.cfg.LivenessRequired {
		liveCtx, cancel := context.WithTimeout(ctx, s.cfg.FaceAPITimeout)
		live, err := s.liveness.CheckLiveness(liveCtx, image)
		cancel()
		if err != nil {
			return nil, err
		}
		if !live {
			return s.finish(ctx, &model.RecognitionResult{Outcome: model.OutcomeRejectedLiveness}, source), nil
		}
	}

	// 3. Match against the enrolled pool.
	pool, err := s.identities.ListEmbeddings(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list identity pool: %w", err)
	}
	match, ok := recognition.BestMatch(emb.Embedding, pool, s.cfg.EmbeddingThreshold)
	if !ok {
		return s.finish(ctx, &model.RecognitionResult{Outcome: model.OutcomeNoMatch}, source), nil
	}

	student, err := s.students.GetByID(ctx, match.StudentID)
	if err != nil {
		return nil, fmt.Errorf("load matched student: %w", err)
	}

	// 4. Resolve the day's session, then record. The session belongs to
	// the student's group; an ungrouped student falls back to the group
	// the client asked about.
	sessionGroup := student.GroupID
	if sessionGroup == nil {
		sessionGroup = groupID
	}
	sess, err := s.resolveSession(ctx, sessionGroup, time.Now())
	if err != nil {
		return nil, err
	}

	result := &model.RecognitionResult{
		Outcome: model.OutcomeRecognized,
		Student: &model.RecognizedStudent{
			ID:          student.ID,
			Name:        student.Name,
			StudentCode: student.StudentCode,
			GroupID:     student.GroupID,
		},
		Distance:   match.Distance,
		Confidence: 1 - match.Distance,
		SessionID:  &sess.ID,
	}

	if s.cfg.AttendancePolicy == config.AttendancePolicyUnique {
		exists, err := s.attendance.ExistsForSessionStudent(ctx, sess.ID, student.ID)
		if err != nil {
			return nil, fmt.Errorf("check existing attendance: %w", err)
		}
		if exists {
			result.Duplicate = true
			return s.finish(ctx, result, source), nil
		}
	}

	event := &model.AttendanceEvent{
		SessionID:      sess.ID,
		StudentID:      student.ID,
		Confidence:     1 - match.Distance,
		LivenessPassed: livenessPassed,
		Source:         source,
	}
	if err := s.attendance.Insert(ctx, event); err != nil {
		return nil, fmt.Errorf("record attendance: %w", err)
	}
	result.EventID = &event.ID

	return s.finish(ctx, result, source), nil
}

// resolveSession returns the session for (group, date), creating it when
// absent. A concurrent create losing the unique-constraint race re-queries
// exactly once and uses the winner's row.
func (s *RecognitionService) resolveSession(ctx context.Context, groupID *int, now time.Time) (*model.Session, error) {
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	sess, err := s.sessions.FindByGroupAndDate(ctx, groupID, date)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("find session: %w", err)
	}

	created := &model.Session{GroupID: groupID, SessionDate: date, StartTime: defaultStartTime}
	err = s.sessions.Create(ctx, created)
	if err == nil {
		return created, nil
	}
	if errors.Is(err, repository.ErrDuplicateSession) {
		sess, err := s.sessions.FindByGroupAndDate(ctx, groupID, date)
		if err != nil {
			return nil, fmt.Errorf("refetch session after conflict: %w", err)
		}
		return sess, nil
	}
	return nil, fmt.Errorf("create session: %w", err)
}

// finish publishes the terminal outcome to the feed and returns the result.
func (s *RecognitionService) finish(ctx context.Context, result *model.RecognitionResult, source string) *model.RecognitionResult {
	if s.publisher == nil {
		return result
	}

	ev := model.RecognitionEvent{
		Outcome:    result.Outcome,
		SessionID:  result.SessionID,
		Confidence: result.Confidence,
		Source:     source,
		At:         time.Now().UTC(),
	}
	if result.Student != nil {
		ev.StudentID = &result.Student.ID
		ev.StudentName = result.Student.Name
		ev.GroupID = result.Student.GroupID
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("outcome", string(result.Outcome)).Msg("Failed to publish recognition event")
	}
	return result
}
