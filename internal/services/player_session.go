package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillstream/skillstream-backend/internal/domain/access"
	"github.com/skillstream/skillstream-backend/internal/logger"
	"github.com/skillstream/skillstream-backend/internal/repos"
	"github.com/skillstream/skillstream-backend/internal/sse"
	"github.com/skillstream/skillstream-backend/internal/types"
)

type PlayerState string

const (
	StateIdle           PlayerState = "idle"
	StatePlaying        PlayerState = "playing"
	StateMarkedComplete PlayerState = "marked_complete"
)

// SessionSnapshot is the externally visible state of one player session.
type SessionSnapshot struct {
	State      PlayerState `json:"state"`
	LectureID  uuid.UUID   `json:"lecture_id,omitempty"`
	LatchFired bool        `json:"latch_fired"`
}

// MarkResult is what a playback-start signal produces: the recomputed view
// plus the one-shot completion flag for this call.
type MarkResult struct {
	Progress       *types.CourseProgress `json:"progress"`
	CourseComplete bool                  `json:"course_complete"`
}

// PlayerSessionService owns one PlayerSession per (user, course) pair. Each
// session is a small actor: lecture selection and playback signals are applied
// one at a time in arrival order, and a selection never waits behind an
// outstanding progress write.
type PlayerSessionService struct {
	db             *gorm.DB
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	lectureRepo    repos.LectureRepo
	enrollmentRepo repos.EnrollmentRepo
	progress       ProgressService
	publisher      sse.Publisher

	mu       sync.Mutex
	sessions map[sessionKey]*PlayerSession
}

type sessionKey struct {
	userID   uuid.UUID
	courseID uuid.UUID
}

func NewPlayerSessionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	courseRepo repos.CourseRepo,
	lectureRepo repos.LectureRepo,
	enrollmentRepo repos.EnrollmentRepo,
	progress ProgressService,
	publisher sse.Publisher,
) *PlayerSessionService {
	return &PlayerSessionService{
		db:             db,
		log:            baseLog.With("service", "PlayerSessionService"),
		courseRepo:     courseRepo,
		lectureRepo:    lectureRepo,
		enrollmentRepo: enrollmentRepo,
		progress:       progress,
		publisher:      publisher,
		sessions:       make(map[sessionKey]*PlayerSession),
	}
}

// Session returns the session for (user, course), creating it lazily.
func (s *PlayerSessionService) Session(userID, courseID uuid.UUID) *PlayerSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey{userID: userID, courseID: courseID}
	if sess, ok := s.sessions[key]; ok {
		return sess
	}
	sess := &PlayerSession{
		svc:      s,
		userID:   userID,
		courseID: courseID,
		state:    StateIdle,
		log:      s.log.With("user_id", userID, "course_id", courseID),
	}
	s.sessions[key] = sess
	return sess
}

// MarkLectureCompleted is the HTTP-facing path: it resolves the lecture to its
// course, then drives the session through select + playback-start.
func (s *PlayerSessionService) MarkLectureCompleted(ctx context.Context, userID, lectureID uuid.UUID) (*MarkResult, error) {
	lectures, err := s.lectureRepo.GetByIDs(ctx, nil, []uuid.UUID{lectureID})
	if err != nil {
		return nil, storeErr("load lecture", err)
	}
	if len(lectures) == 0 || lectures[0] == nil {
		return nil, fmt.Errorf("lecture %s: %w", lectureID, ErrNotFound)
	}
	sess := s.Session(userID, lectures[0].CourseID)
	if err := sess.SelectLecture(ctx, lectureID); err != nil {
		return nil, err
	}
	return sess.PlaybackStarted(ctx, lectureID)
}

// PlayerSession is the per-(user, course) progress controller. States move
// Idle -> Playing(l) -> MarkedComplete(l) -> Playing(l), with the access guard
// gating every selection.
type PlayerSession struct {
	svc      *PlayerSessionService
	userID   uuid.UUID
	courseID uuid.UUID
	log      *logger.Logger

	mu         sync.Mutex
	state      PlayerState
	lectureID  uuid.UUID
	generation uint64
	latchFired bool
	callbacks  []func(*types.CourseProgress)
}

// SelectLecture moves the session to Playing(lectureID) if the access guard
// allows it. On deny the state is left exactly as it was. Selecting a new
// lecture invalidates any outstanding playback marks for the previous one:
// those still persist, but no longer touch the active binding.
func (ps *PlayerSession) SelectLecture(ctx context.Context, lectureID uuid.UUID) error {
	course, lecture, enrolled, err := ps.loadAccessState(ctx, lectureID)
	if err != nil {
		return err
	}
	if decision := access.CanAccess(course, lecture, enrolled); !decision.Allowed() {
		ps.log.Debug("Lecture selection denied", "lecture_id", lectureID, "decision", decision)
		return decision.Err()
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.generation++
	ps.state = StatePlaying
	ps.lectureID = lectureID
	return nil
}

// PlaybackStarted records the optimistic completion for the playing lecture:
// any attempt to play counts as consumed. The store write runs outside the
// session lock so a newer selection is never blocked behind it; if the
// selection changed while the write was in flight, the write still persists
// but the stale transition is discarded.
func (ps *PlayerSession) PlaybackStarted(ctx context.Context, lectureID uuid.UUID) (*MarkResult, error) {
	ps.mu.Lock()
	if ps.state == StateIdle || ps.lectureID != lectureID {
		ps.mu.Unlock()
		return nil, fmt.Errorf("lecture %s is not the active selection: %w", lectureID, ErrNotFound)
	}
	gen := ps.generation
	ps.state = StateMarkedComplete
	ps.mu.Unlock()

	view, err := ps.svc.progress.MarkCompleted(ctx, nil, ps.userID, ps.courseID, lectureID)

	ps.mu.Lock()
	current := ps.generation == gen
	if current {
		// Back to Playing whether the mark stuck or not; a failed mark is
		// retryable by re-triggering playback.
		ps.state = StatePlaying
	}
	ps.mu.Unlock()

	if err != nil {
		ps.log.Warn("Failed to persist lecture completion", "lecture_id", lectureID, "error", err)
		return nil, err
	}

	fired := ps.fireLatchIfComplete(view)
	return &MarkResult{Progress: view, CourseComplete: fired}, nil
}

// fireLatchIfComplete emits the one-shot CourseCompleted event on the first
// observation of a complete course. Repeated marks after that return false
// until AcknowledgeCompletion re-arms the latch.
func (ps *PlayerSession) fireLatchIfComplete(view *types.CourseProgress) bool {
	if view == nil || !view.Complete {
		return false
	}
	ps.mu.Lock()
	if ps.latchFired {
		ps.mu.Unlock()
		return false
	}
	ps.latchFired = true
	callbacks := make([]func(*types.CourseProgress), len(ps.callbacks))
	copy(callbacks, ps.callbacks)
	ps.mu.Unlock()

	ps.log.Info("Course completed", "course_id", ps.courseID)
	for _, cb := range callbacks {
		cb(view)
	}
	if ps.svc.publisher != nil {
		ps.svc.publisher.Publish(sse.SSEMessage{
			Channel: ps.userID.String(),
			Event:   sse.SSEEventCourseCompleted,
			Data:    map[string]any{"course_id": ps.courseID, "progress": view},
		})
	}
	return true
}

// Deselect drops the active lecture binding, e.g. when the learner leaves the
// course view. Outstanding writes keep persisting; they just stop mattering.
func (ps *PlayerSession) Deselect() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.generation++
	ps.state = StateIdle
	ps.lectureID = uuid.Nil
}

// OnCourseCompleted registers a callback fired at most once per latch cycle.
func (ps *PlayerSession) OnCourseCompleted(cb func(*types.CourseProgress)) {
	if cb == nil {
		return
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.callbacks = append(ps.callbacks, cb)
}

// AcknowledgeCompletion re-arms the latch, e.g. after the course content
// changed and completion can meaningfully fire again.
func (ps *PlayerSession) AcknowledgeCompletion() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.latchFired = false
}

func (ps *PlayerSession) CurrentState() SessionSnapshot {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return SessionSnapshot{
		State:      ps.state,
		LectureID:  ps.lectureID,
		LatchFired: ps.latchFired,
	}
}

func (ps *PlayerSession) loadAccessState(ctx context.Context, lectureID uuid.UUID) (*types.Course, *types.Lecture, bool, error) {
	courses, err := ps.svc.courseRepo.GetByIDsWithLectures(ctx, nil, []uuid.UUID{ps.courseID})
	if err != nil {
		return nil, nil, false, storeErr("load course", err)
	}
	if len(courses) == 0 || courses[0] == nil {
		return nil, nil, false, fmt.Errorf("course %s: %w", ps.courseID, ErrNotFound)
	}
	course := courses[0]
	var lecture *types.Lecture
	for _, l := range course.Lectures {
		if l != nil && l.ID == lectureID {
			lecture = l
			break
		}
	}
	if lecture == nil {
		return nil, nil, false, fmt.Errorf("lecture %s not in course %s: %w", lectureID, ps.courseID, ErrNotFound)
	}
	enrollment, err := ps.svc.enrollmentRepo.GetByUserAndCourseID(ctx, nil, ps.userID, ps.courseID)
	if err != nil {
		return nil, nil, false, storeErr("load enrollment", err)
	}
	return course, lecture, enrollment.Active(), nil
}
