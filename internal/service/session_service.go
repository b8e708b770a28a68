package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/hadirku/hadirku-backend/internal/config"
	"github.com/hadirku/hadirku-backend/internal/eligibility"
	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/hadirku/hadirku-backend/internal/repository"
	"github.com/hadirku/hadirku-backend/internal/websocket"
)

// Session creation errors.
var (
	ErrLocationNotFound = errors.New("class location not found")
	ErrLocationDeleted  = errors.New("class location has been deleted")
)

// SessionView is an attendance session overlaid with its derived lifecycle
// state and, for student views, the student's own record.
type SessionView struct {
	model.AttendanceSession
	State  model.SessionState      `json:"state"`
	Record *model.AttendanceRecord `json:"record,omitempty"`
}

// SessionService handles attendance session business logic.
type SessionService struct {
	sessionRepo  *repository.AttendanceSessionRepository
	recordRepo   *repository.AttendanceRecordRepository
	locationRepo *repository.ClassLocationRepository
	rdb          *redis.Client
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	sessionRepo *repository.AttendanceSessionRepository,
	recordRepo *repository.AttendanceRecordRepository,
	locationRepo *repository.ClassLocationRepository,
	rdb *redis.Client,
) *SessionService {
	return &SessionService{
		sessionRepo:  sessionRepo,
		recordRepo:   recordRepo,
		locationRepo: locationRepo,
		rdb:          rdb,
	}
}

// Create schedules a new attendance session. The referenced class location
// must exist and not be soft-deleted; existing sessions keep deleted
// locations, new ones may not use them.
func (s *SessionService) Create(ctx context.Context, teacherID int, req model.CreateSessionRequest) (*model.AttendanceSession, error) {
	location, err := s.locationRepo.GetByID(ctx, req.ClassLocationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	if location.DeletedAt != nil {
		return nil, ErrLocationDeleted
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %w", err)
	}

	session := &model.AttendanceSession{
		CourseID:            req.CourseID,
		Date:                date,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		ClassLocation:       *location,
		IsOpen:              true,
		AllowLateCheckIn:    req.AllowLateCheckIn,
		MaxDistanceOverride: req.MaxDistanceOverride,
		CreatedBy:           teacherID,
	}

	// Reject a malformed window before it reaches the database.
	if _, _, err := session.Window(time.Local); err != nil {
		return nil, err
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// Get returns one session with its derived lifecycle state.
func (s *SessionService) Get(ctx context.Context, id uuid.UUID) (*SessionView, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s.view(session, nil), nil
}

// SetOpen toggles the administrative open flag and notifies monitoring
// teachers. The toggle is accepted at any time, including after the window:
// reopening an expired session does not make check-ins valid again.
func (s *SessionService) SetOpen(ctx context.Context, id uuid.UUID, isOpen bool) (*SessionView, error) {
	if err := s.sessionRepo.SetOpen(ctx, id, isOpen); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("set open: %w", err)
	}

	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	s.publishToggle(ctx, session)
	return s.view(session, nil), nil
}

// TodayForStudent returns today's sessions for the student's class, each
// overlaid with lifecycle state and the student's own record.
func (s *SessionService) TodayForStudent(ctx context.Context, studentID int) ([]SessionView, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)

	sessions, err := s.sessionRepo.ListForStudentByDate(ctx, studentID, today)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	views := make([]SessionView, 0, len(sessions))
	for i := range sessions {
		record, err := s.recordRepo.GetBySessionAndStudent(ctx, sessions[i].ID, studentID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get record: %w", err)
		}
		views = append(views, *s.view(&sessions[i], record))
	}
	return views, nil
}

// ListByCourse returns all sessions of a course with their lifecycle states.
func (s *SessionService) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]SessionView, error) {
	sessions, err := s.sessionRepo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	views := make([]SessionView, 0, len(sessions))
	for i := range sessions {
		views = append(views, *s.view(&sessions[i], nil))
	}
	return views, nil
}

func (s *SessionService) view(session *model.AttendanceSession, record *model.AttendanceRecord) *SessionView {
	view := &SessionView{AttendanceSession: *session, Record: record}
	state, err := eligibility.Classify(session, time.Now())
	if err != nil {
		// A malformed window in stored data should not hide the session.
		state = model.SessionStateClosed
	}
	view.State = state
	return view
}

func (s *SessionService) publishToggle(ctx context.Context, session *model.AttendanceSession) {
	isOpen := session.IsOpen
	event := websocket.MonitorEvent{
		Event:     websocket.EventSessionToggled,
		SessionID: session.ID,
		IsOpen:    &isOpen,
		At:        time.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	channel := config.CacheKey.SessionMonitorChannel(session.ID.String())
	_ = s.rdb.Publish(ctx, channel, payload).Err()
}
