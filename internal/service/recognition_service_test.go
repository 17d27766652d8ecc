package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/presensi-backend/internal/config"
	"github.com/stemsi/presensi-backend/internal/faceapi"
	"github.com/stemsi/presensi-backend/internal/model"
	"github.com/stemsi/presensi-backend/internal/recognition"
	"github.com/stemsi/presensi-backend/internal/repository"
)

// ─── Fakes ──────────────────────────────────────────────────────────

type fakeEmbedder struct {
	result *faceapi.EmbedResult
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(ctx context.Context, image []byte) (*faceapi.EmbedResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeLiveness struct {
	live  bool
	err   error
	calls int
}

func (f *fakeLiveness) CheckLiveness(ctx context.Context, image []byte) (bool, error) {
	f.calls++
	return f.live, f.err
}

type fakeIdentityPool struct {
	pool  []model.IdentityEmbedding
	calls int
}

func (f *fakeIdentityPool) ListEmbeddings(ctx context.Context, groupID *int) ([]model.IdentityEmbedding, error) {
	f.calls++
	return f.pool, nil
}

type fakeStudentReader struct {
	students map[int]*model.Student
}

func (f *fakeStudentReader) GetByID(ctx context.Context, id int) (*model.Student, error) {
	s, ok := f.students[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return s, nil
}

type sessionKey struct {
	group int // 0 for nil group
	date  string
}

// fakeSessionStore mimics the unique-constraint semantics of the real
// sessions table.
type fakeSessionStore struct {
	mu       sync.Mutex
	nextID   int
	sessions map[sessionKey]*model.Session
	creates  int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{nextID: 1, sessions: make(map[sessionKey]*model.Session)}
}

func keyFor(groupID *int, date time.Time) sessionKey {
	g := 0
	if groupID != nil {
		g = *groupID
	}
	return sessionKey{group: g, date: date.Format("2006-01-02")}
}

func (f *fakeSessionStore) FindByGroupAndDate(ctx context.Context, groupID *int, date time.Time) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[keyFor(groupID, date)]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeSessionStore) Create(ctx context.Context, s *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	k := keyFor(s.GroupID, s.SessionDate)
	if _, ok := f.sessions[k]; ok {
		return repository.ErrDuplicateSession
	}
	s.ID = f.nextID
	f.nextID++
	copied := *s
	f.sessions[k] = &copied
	return nil
}

func (f *fakeSessionStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

type fakeAttendanceStore struct {
	mu     sync.Mutex
	nextID int64
	events []model.AttendanceEvent
}

func (f *fakeAttendanceStore) Insert(ctx context.Context, e *model.AttendanceEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	e.ID = f.nextID
	e.RecognizedAt = time.Now()
	f.events = append(f.events, *e)
	return nil
}

func (f *fakeAttendanceStore) ExistsForSessionStudent(ctx context.Context, sessionID, studentID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.SessionID == sessionID && e.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAttendanceStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// ─── Fixture ────────────────────────────────────────────────────────

func testConfig() *config.Config {
	return &config.Config{
		FaceAPITimeout:     time.Second,
		EmbeddingThreshold: 0.38,
		MinDetectionScore:  0.6,
		LivenessRequired:   true,
		AttendancePolicy:   config.AttendancePolicyAppend,
	}
}

func unitVec(dim, axis int) []float32 {
	v := make([]float32, dim)
	v[axis] = 1
	return v
}

type fixture struct {
	svc        *RecognitionService
	embedder   *fakeEmbedder
	liveness   *fakeLiveness
	identities *fakeIdentityPool
	sessions   *fakeSessionStore
	attendance *fakeAttendanceStore
}

func newFixture(cfg *config.Config, emb *faceapi.EmbedResult) *fixture {
	groupID := 1
	f := &fixture{
		embedder: &fakeEmbedder{result: emb},
		liveness: &fakeLiveness{live: true},
		identities: &fakeIdentityPool{pool: []model.IdentityEmbedding{
			{StudentID: 10, GroupID: &groupID, Embedding: unitVec(recognition.EmbeddingDim, 0)},
		}},
		sessions:   newFakeSessionStore(),
		attendance: &fakeAttendanceStore{},
	}
	students := &fakeStudentReader{students: map[int]*model.Student{
		10: {ID: 10, Name: "Siti", StudentCode: "S-001", GroupID: &groupID},
	}}
	f.svc = NewRecognitionService(cfg, f.embedder, f.liveness, f.identities, students,
		f.sessions, f.attendance, nil, zerolog.Nop())
	return f
}

// ─── Pipeline scenarios ─────────────────────────────────────────────

func TestRecognize_MatchRecordsAttendance(t *testing.T) {
	f := newFixture(testConfig(), &faceapi.EmbedResult{Embedding: unitVec(recognition.EmbeddingDim, 0), DetScore: 0.95})

	res, err := f.svc.Recognize(context.Background(), []byte("img"), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != model.OutcomeRecognized {
		t.Fatalf("expected RECOGNIZED, got %s", res.Outcome)
	}
	if res.Student == nil || res.Student.ID != 10 {
		t.Fatalf("unexpected student %+v", res.Student)
	}
	if math.Abs(res.Distance) > 1e-4 {
		t.Errorf("expected distance ~0, got %f", res.Distance)
	}
	if math.Abs(res.Confidence-1) > 1e-4 {
		t.Errorf("expected confidence ~1, got %f", res.Confidence)
	}
	if res.EventID == nil {
		t.Error("expected an event id")
	}
	if f.attendance.count() != 1 {
		t.Errorf("expected 1 attendance event, got %d", f.attendance.count())
	}
	if f.sessions.count() != 1 {
		t.Errorf("expected 1 session, got %d", f.sessions.count())
	}
	if e := f.attendance.events[0]; e.Source != DefaultSource || !e.LivenessPassed {
		t.Errorf("unexpected event %+v", e)
	}
}

func TestRecognize_OrthogonalEmbeddingIsNoMatch(t *testing.T) {
	f := newFixture(testConfig(), &faceapi.EmbedResult{Embedding: unitVec(recognition.EmbeddingDim, 1), DetScore: 0.95})

	res, err := f.svc.Recognize(context.Background(), []byte("img"), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != model.OutcomeNoMatch {
		t.Fatalf("expected NO_MATCH, got %s", res.Outcome)
	}
	if f.attendance.count() != 0 || f.sessions.count() != 0 {
		t.Error("no-match must not write sessions or attendance")
	}
}

func TestRecognize_NoFaceShortCircuits(t *testing.T) {
	f := newFixture(testConfig(), nil) // embedder reports no face

	res, err := f.svc.Recognize(context.Background(), []byte("img"), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != model.OutcomeRejectedNoFace {
		t.Fatalf("expected REJECTED_NO_FACE, got %s", res.Outcome)
	}
	if f.liveness.calls != 0 || f.identities.calls != 0 {
		t.Error("no downstream calls expected after no-face")
	}
	if f.attendance.count() != 0 || f.sessions.count() != 0 {
		t.Error("no writes expected after no-face")
	}
}

func TestRecognize_LowDetectionScoreIsNoFace(t *testing.T) {
	f := newFixture(testConfig(), &faceapi.EmbedResult{Embedding: unitVec(recognition.EmbeddingDim, 0), DetScore: 0.3})

	res, err := f.svc.Recognize(context.Background(), []byte("img"), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != model.OutcomeRejectedNoFace {
		t.Fatalf("expected REJECTED_NO_FACE, got %s", res.Outcome)
	}
}

func TestRecognize_LivenessFailureWritesNothing(t *testing.T) {
	f := newFixture(testConfig(), &faceapi.EmbedResult{Embedding: unitVec(recognition.EmbeddingDim, 0), DetScore: 0.95})
	f.liveness.live = false

	res, err := f.svc.Recognize(context.Background(), []byte("img"), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != model.OutcomeRejectedLiveness {
		t.Fatalf("expected REJECTED_LIVENESS, got %s", res.Outcome)
	}
	if f.attendance.count() != 0 || f.sessions.count() != 0 {
		t.Error("liveness rejection must not write sessions or attendance")
	}
}

func TestRecognize_LivenessSkippedWhenNotRequired(t *testing.T) {
	cfg := testConfig()
	cfg.LivenessRequired = false
	f := newFixture(cfg, &faceapi.EmbedResult{Embedding: unitVec(recognition.EmbeddingDim, 0), DetScore: 0.95})
	f.liveness.live = false // would reject if consulted

	res, err := f.svc.Recognize(context.Background(), []byte("img"), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != model.OutcomeRecognized {
		t.Fatalf("expected RECOGNIZED, got %s", res.Outcome)
	}
	if f.liveness.calls != 0 {
		t.Error("liveness checker must not be consulted when not required")
	}
}

func TestRecognize_ProviderErrorPropagates(t *testing.T) {
	f := newFixture(testConfig(), nil)
	f.embedder.err = faceapi.ErrProviderTimeout

	_, err := f.svc.Recognize(context.Background(), []byte("img"), nil, "")
	if !errors.Is(err, faceapi.ErrProviderTimeout) {
		t.Fatalf("expected ErrProviderTimeout, got %v", err)
	}
	if f.sessions.count() != 0 || f.attendance.count() != 0 {
		t.Error("aborted request must not write")
	}
}

// ─── Attendance policy ──────────────────────────────────────────────

func TestRecognize_AppendPolicyAllowsRepeats(t *testing.T) {
	f := newFixture(testConfig(), &faceapi.EmbedResult{Embedding: unitVec(recognition.EmbeddingDim, 0), DetScore: 0.95})

	for i := 0; i < 3; i++ {
		if _, err := f.svc.Recognize(context.Background(), []byte("img"), nil, ""); err != nil {
			t.Fatal(err)
		}
	}
	if f.attendance.count() != 3 {
		t.Errorf("append policy: expected 3 events, got %d", f.attendance.count())
	}
	if f.sessions.count() != 1 {
		t.Errorf("expected a single session, got %d", f.sessions.count())
	}
}

func TestRecognize_UniquePolicySuppressesRepeats(t *testing.T) {
	cfg := testConfig()
	cfg.AttendancePolicy = config.AttendancePolicyUnique
	f := newFixture(cfg, &faceapi.EmbedResult{Embedding: unitVec(recognition.EmbeddingDim, 0), DetScore: 0.95})

	first, err := f.svc.Recognize(context.Background(), []byte("img"), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if first.Duplicate || first.EventID == nil {
		t.Fatalf("first recognition should record, got %+v", first)
	}

	second, err := f.svc.Recognize(context.Background(), []byte("img"), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if second.Outcome != model.OutcomeRecognized || !second.Duplicate {
		t.Fatalf("repeat should be a duplicate recognition, got %+v", second)
	}
	if second.EventID != nil {
		t.Error("duplicate must not carry a new event id")
	}
	if f.attendance.count() != 1 {
		t.Errorf("unique policy: expected 1 event, got %d", f.attendance.count())
	}
}

// ─── Session resolver ───────────────────────────────────────────────

func TestResolveSession_Idempotent(t *testing.T) {
	f := newFixture(testConfig(), nil)
	groupID := 1
	now := time.Now()

	first, err := f.svc.resolveSession(context.Background(), &groupID, now)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.resolveSession(context.Background(), &groupID, now)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Errorf("expected same session, got %d and %d", first.ID, second.ID)
	}
	if f.sessions.count() != 1 {
		t.Errorf("expected 1 session row, got %d", f.sessions.count())
	}
}

func TestResolveSession_RecoversFromLostRace(t *testing.T) {
	f := newFixture(testConfig(), nil)
	groupID := 1
	now := time.Now()
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	// Seed the winner directly so the resolver's create hits the conflict.
	winner := &model.Session{GroupID: &groupID, SessionDate: date, StartTime: defaultStartTime}
	if err := f.sessions.Create(context.Background(), winner); err != nil {
		t.Fatal(err)
	}
	if err := f.sessions.Create(context.Background(), &model.Session{GroupID: &groupID, SessionDate: date}); !errors.Is(err, repository.ErrDuplicateSession) {
		t.Fatalf("fake store should conflict, got %v", err)
	}

	sess, err := f.svc.resolveSession(context.Background(), &groupID, now)
	if err != nil {
		t.Fatal(err)
	}
	if sess.ID != winner.ID {
		t.Errorf("expected winner session %d, got %d", winner.ID, sess.ID)
	}
}

func TestResolveSession_ConcurrentFirstCalls(t *testing.T) {
	f := newFixture(testConfig(), nil)
	groupID := 1
	now := time.Now()

	const n = 16
	var wg sync.WaitGroup
	ids := make([]int, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess, err := f.svc.resolveSession(context.Background(), &groupID, now)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = sess.ID
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("call %d failed: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("call %d got session %d, call 0 got %d", i, ids[i], ids[0])
		}
	}
	if f.sessions.count() != 1 {
		t.Errorf("expected exactly 1 session row, got %d", f.sessions.count())
	}
}

func TestResolveSession_DistinctGroupsDistinctSessions(t *testing.T) {
	f := newFixture(testConfig(), nil)
	g1, g2 := 1, 2
	now := time.Now()

	s1, err := f.svc.resolveSession(context.Background(), &g1, now)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := f.svc.resolveSession(context.Background(), &g2, now)
	if err != nil {
		t.Fatal(err)
	}
	if s1.ID == s2.ID {
		t.Error("different groups must get different sessions")
	}
}
