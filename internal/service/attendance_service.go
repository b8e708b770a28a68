package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/hadirku/hadirku-backend/internal/config"
	"github.com/hadirku/hadirku-backend/internal/eligibility"
	"github.com/hadirku/hadirku-backend/internal/geo"
	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/hadirku/hadirku-backend/internal/repository"
	"github.com/hadirku/hadirku-backend/internal/websocket"
)

// Common attendance errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrRecordNotFound  = errors.New("record not found")
)

// CheckInRejection is returned when a check-in fails the eligibility
// evaluation. Handlers map the verdict reason to an HTTP error code.
// RadiusMeters carries the session's effective geofence radius for the
// OUT_OF_RANGE message.
type CheckInRejection struct {
	Verdict      eligibility.Verdict
	RadiusMeters float64
}

func (r *CheckInRejection) Error() string {
	return fmt.Sprintf("check-in rejected: %s", r.Verdict.Reason)
}

// AsCheckInRejection unwraps err into a *CheckInRejection if it is one.
func AsCheckInRejection(err error) (*CheckInRejection, bool) {
	var rej *CheckInRejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// AttendanceService handles check-in, manual marks and attendance queries.
// The server re-runs the same eligibility evaluation the device already ran,
// so a tampered client cannot skip the geofence.
type AttendanceService struct {
	sessionRepo *repository.AttendanceSessionRepository
	recordRepo  *repository.AttendanceRecordRepository
	cfg         *config.Config
	rdb         *redis.Client
}

// NewAttendanceService creates a new AttendanceService.
func NewAttendanceService(
	sessionRepo *repository.AttendanceSessionRepository,
	recordRepo *repository.AttendanceRecordRepository,
	cfg *config.Config,
	rdb *redis.Client,
) *AttendanceService {
	return &AttendanceService{
		sessionRepo: sessionRepo,
		recordRepo:  recordRepo,
		cfg:         cfg,
		rdb:         rdb,
	}
}

// CheckIn validates and persists a location check-in for a student.
// Returns *CheckInRejection when the attempt fails an eligibility check.
func (s *AttendanceService) CheckIn(ctx context.Context, sessionID uuid.UUID, studentID int, req model.CheckInRequest) (*model.AttendanceRecord, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	existing, err := s.recordRepo.GetBySessionAndStudent(ctx, sessionID, studentID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get record: %w", err)
	}

	device := &geo.Coordinate{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Accuracy:  req.Accuracy,
	}
	now := time.Now()

	verdict, err := eligibility.Evaluate(session, existing, now, device, eligibility.Options{
		LateGrace: s.cfg.LateGrace,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	if !verdict.CanAttend {
		return nil, &CheckInRejection{Verdict: verdict, RadiusMeters: session.EffectiveRadius()}
	}

	status, err := s.statusForCheckIn(session, now)
	if err != nil {
		return nil, fmt.Errorf("resolve status: %w", err)
	}

	valid := true
	record := &model.AttendanceRecord{
		SessionID:            sessionID,
		StudentID:            studentID,
		Status:               status,
		HasCheckedIn:         true,
		CheckInTime:          &now,
		CheckInMethod:        model.MethodLocation,
		DistanceFromLocation: verdict.DistanceMeters,
		IsValidLocation:      &valid,
	}

	if err := s.recordRepo.CreateCheckIn(ctx, record); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Concurrent duplicate: another request for the same pair won
			// the insert race.
			return nil, &CheckInRejection{Verdict: eligibility.Verdict{
				Reason: eligibility.ReasonAlreadyCheckedIn,
			}}
		}
		return nil, fmt.Errorf("create record: %w", err)
	}

	s.publishMonitorEvent(ctx, websocket.MonitorEvent{
		Event:          websocket.EventStudentCheckedIn,
		SessionID:      sessionID,
		StudentID:      studentID,
		Status:         record.Status,
		Method:         record.CheckInMethod,
		DistanceMeters: record.DistanceFromLocation,
		At:             now,
	})
	s.enqueueStatsRefresh(ctx, sessionID)

	return record, nil
}

// statusForCheckIn assigns PRESENT within the regular window and LATE for a
// check-in that lands past the end time inside the late grace.
func (s *AttendanceService) statusForCheckIn(session *model.AttendanceSession, now time.Time) (model.AttendanceStatus, error) {
	_, end, err := session.Window(now.Location())
	if err != nil {
		return "", err
	}
	if now.After(end) {
		return model.StatusLate, nil
	}
	return model.StatusPresent, nil
}

// ManualMark assigns a status to one student directly, bypassing location
// and time checks. It amends an existing record or creates one.
func (s *AttendanceService) ManualMark(ctx context.Context, sessionID uuid.UUID, studentID, markedBy int, req model.ManualMarkRequest) (*model.AttendanceRecord, error) {
	if _, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	now := time.Now()
	record := &model.AttendanceRecord{
		SessionID:     sessionID,
		StudentID:     studentID,
		Status:        req.Status,
		HasCheckedIn:  true,
		CheckInTime:   &now,
		CheckInMethod: model.MethodManual,
		Note:          req.Note,
		MarkedBy:      &markedBy,
	}

	if err := s.recordRepo.UpsertManualMark(ctx, record); err != nil {
		return nil, fmt.Errorf("upsert record: %w", err)
	}

	s.publishMonitorEvent(ctx, websocket.MonitorEvent{
		Event:     websocket.EventRecordMarked,
		SessionID: sessionID,
		StudentID: studentID,
		Status:    record.Status,
		Method:    record.CheckInMethod,
		At:        now,
	})
	s.enqueueStatsRefresh(ctx, sessionID)

	return record, nil
}

// BatchMark applies several manual marks at once. The batch is not atomic:
// each entry succeeds or fails on its own and the caller gets an itemized
// result.
func (s *AttendanceService) BatchMark(ctx context.Context, sessionID uuid.UUID, markedBy int, req model.BatchMarkRequest) ([]model.BatchMarkResult, error) {
	if _, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	results := make([]model.BatchMarkResult, 0, len(req.Marks))
	for _, mark := range req.Marks {
		result := model.BatchMarkResult{StudentID: mark.StudentID}

		if !model.ValidAttendanceStatus(mark.Status) {
			result.Error = fmt.Sprintf("invalid status %q", mark.Status)
			results = append(results, result)
			continue
		}

		record, err := s.ManualMark(ctx, sessionID, mark.StudentID, markedBy, model.ManualMarkRequest{
			Status: mark.Status,
			Note:   mark.Note,
		})
		if err != nil {
			result.Error = err.Error()
		} else {
			result.Record = record
		}
		results = append(results, result)
	}
	return results, nil
}

// GetRecord returns one student's record for a session.
func (s *AttendanceService) GetRecord(ctx context.Context, sessionID uuid.UUID, studentID int) (*model.AttendanceRecord, error) {
	record, err := s.recordRepo.GetBySessionAndStudent(ctx, sessionID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// ListRecords returns all records of one session.
func (s *AttendanceService) ListRecords(ctx context.Context, sessionID uuid.UUID) ([]model.AttendanceRecord, error) {
	return s.recordRepo.ListBySession(ctx, sessionID)
}

// History returns a student's paginated attendance history.
func (s *AttendanceService) History(ctx context.Context, studentID, page, perPage int) ([]model.AttendanceRecord, int64, error) {
	return s.recordRepo.ListByStudent(ctx, studentID, page, perPage)
}

// SessionStats returns attendance tallies for a session with a cache
// failover strategy: try the Redis hash maintained by the stats worker, and
// on a miss fall back to PostgreSQL and self-heal the cache.
func (s *AttendanceService) SessionStats(ctx context.Context, sessionID uuid.UUID) (*model.SessionStats, error) {
	key := config.CacheKey.SessionStatsKey(sessionID.String())

	cached, err := s.rdb.HGetAll(ctx, key).Result()
	if err == nil && len(cached) > 0 {
		stats, parseErr := parseSessionStats(sessionID, cached)
		if parseErr == nil {
			return stats, nil
		}
		// Corrupt cache entry: fall through to the database.
	}

	stats, err := s.recordRepo.StatsBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("stats from db: %w", err)
	}

	// Self-heal so the next request hits the cache.
	_ = s.rdb.HSet(ctx, key, sessionStatsFields(stats)).Err()

	return stats, nil
}

// StudentStats returns a student's aggregate counters, computed from the
// records table.
func (s *AttendanceService) StudentStats(ctx context.Context, studentID int) (*model.StudentStats, error) {
	return s.recordRepo.StatsByStudent(ctx, studentID)
}

func parseSessionStats(sessionID uuid.UUID, fields map[string]string) (*model.SessionStats, error) {
	stats := &model.SessionStats{SessionID: sessionID}
	for name, dst := range map[string]*int{
		"present": &stats.Present,
		"late":    &stats.Late,
		"absent":  &stats.Absent,
		"excused": &stats.Excused,
		"total":   &stats.Total,
	} {
		raw, ok := fields[name]
		if !ok {
			return nil, fmt.Errorf("missing field %q", name)
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid field %q: %w", name, err)
		}
		*dst = n
	}
	return stats, nil
}

func sessionStatsFields(stats *model.SessionStats) map[string]interface{} {
	return map[string]interface{}{
		"present": stats.Present,
		"late":    stats.Late,
		"absent":  stats.Absent,
		"excused": stats.Excused,
		"total":   stats.Total,
	}
}

// publishMonitorEvent broadcasts an event on the session's monitor channel.
// Best effort: a failed publish never fails the request.
func (s *AttendanceService) publishMonitorEvent(ctx context.Context, event websocket.MonitorEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	channel := config.CacheKey.SessionMonitorChannel(event.SessionID.String())
	_ = s.rdb.Publish(ctx, channel, payload).Err()
}

// enqueueStatsRefresh asks the stats worker to recompute the session's
// cached tallies. Best effort.
func (s *AttendanceService) enqueueStatsRefresh(ctx context.Context, sessionID uuid.UUID) {
	_ = s.rdb.RPush(ctx, config.WorkerKey.AttendanceStatsQueue, sessionID.String()).Err()
}
