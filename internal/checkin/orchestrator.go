package checkin

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hadirku/hadirku-backend/internal/eligibility"
	"github.com/hadirku/hadirku-backend/internal/geo"
	"github.com/hadirku/hadirku-backend/internal/model"
)

// DefaultAcquireTimeout bounds the high-accuracy location fix for a check-in.
const DefaultAcquireTimeout = 18 * time.Second

// LocationSource is the slice of the location controller the orchestrator
// needs: a bounded single-shot acquisition with built-in accuracy fallback.
type LocationSource interface {
	Current(ctx context.Context, highAccuracy bool, timeout time.Duration) (*geo.Coordinate, error)
}

// Orchestrator runs the end-to-end check-in workflow: acquire location,
// pre-validate locally, submit to the repository, map rejections onto the
// CheckInError taxonomy and reconcile local caches with the server's
// authoritative record.
type Orchestrator struct {
	repo     SessionRepository
	location LocationSource
	cache    *Cache
	now      func() time.Time
	opts     Options
	log      zerolog.Logger

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
}

// Options tunes the orchestrator.
type Options struct {
	// AcquireTimeout bounds the high-accuracy location fix. Values <= 0 use
	// DefaultAcquireTimeout.
	AcquireTimeout time.Duration
	// LateGrace is passed through to the eligibility evaluator for local
	// pre-validation. Default 0: strict end-time cutoff.
	LateGrace time.Duration
}

// NewOrchestrator creates an Orchestrator. now is the injectable clock;
// pass time.Now outside tests.
func NewOrchestrator(repo SessionRepository, location LocationSource, now func() time.Time, opts Options, log zerolog.Logger) *Orchestrator {
	if opts.AcquireTimeout <= 0 {
		opts.AcquireTimeout = DefaultAcquireTimeout
	}
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		repo:     repo,
		location: location,
		cache:    NewCache(),
		now:      now,
		opts:     opts,
		log:      log.With().Str("component", "checkin_orchestrator").Logger(),
		inflight: make(map[uuid.UUID]struct{}),
	}
}

// Cache exposes the read-only local aggregates (history, per-session record).
func (o *Orchestrator) Cache() *Cache { return o.cache }

// PerformCheckIn runs one check-in attempt for the session.
//
// Only one attempt per session may be in flight: a concurrent second call
// (double-tap) is rejected with ATTEMPT_IN_PROGRESS. Location acquisition
// failures are terminal after the controller's internal low-accuracy retry
// and never reach the network. The network submission itself is not retried
// automatically; the endpoint is not idempotent and the caller decides about
// a manual retry on NETWORK_ERROR.
func (o *Orchestrator) PerformCheckIn(ctx context.Context, sessionID uuid.UUID) (*model.AttendanceRecord, *CheckInError) {
	o.mu.Lock()
	if _, busy := o.inflight[sessionID]; busy {
		o.mu.Unlock()
		return nil, &CheckInError{Code: CodeAttemptInProgress, Message: "a check-in for this session is already in progress"}
	}
	o.inflight[sessionID] = struct{}{}
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		delete(o.inflight, sessionID)
		o.mu.Unlock()
	}()

	coord, err := o.location.Current(ctx, true, o.opts.AcquireTimeout)
	if err != nil {
		o.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Location acquisition failed")
		return nil, &CheckInError{Code: CodeLocationUnavailable, Message: "could not determine device location", Err: err}
	}

	// Pre-validate against cached session data to fail fast with a precise
	// reason before the round-trip. The server re-validates authoritatively
	// either way.
	if session := o.cache.Session(sessionID); session != nil {
		verdict, err := eligibility.Evaluate(session, o.cache.Record(sessionID), o.now(), coord, eligibility.Options{LateGrace: o.opts.LateGrace})
		if err != nil {
			return nil, &CheckInError{Code: CodeValidation, Message: err.Error(), Err: err}
		}
		if !verdict.CanAttend {
			return nil, verdictError(verdict)
		}
	}

	record, submitErr := o.repo.SubmitCheckIn(ctx, sessionID, *coord)
	if submitErr != nil {
		ce := AsCheckInError(submitErr)
		o.log.Info().
			Str("session_id", sessionID.String()).
			Str("code", string(ce.Code)).
			Msg("Check-in rejected")
		return nil, ce
	}

	// The server may compute distance independently; its record wins over
	// the local estimate.
	o.cache.Reconcile(record)

	o.log.Info().
		Str("session_id", sessionID.String()).
		Str("status", string(record.Status)).
		Msg("Check-in confirmed")
	return record, nil
}

// RefreshSession fetches and caches a session for later pre-validation and
// live status display.
func (o *Orchestrator) RefreshSession(ctx context.Context, sessionID uuid.UUID) (*model.AttendanceSession, error) {
	session, err := o.repo.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	o.cache.PutSession(session)

	if record, err := o.repo.Record(ctx, sessionID); err == nil && record != nil {
		o.cache.Reconcile(record)
	}
	return session, nil
}

// EvaluateNow runs a local eligibility evaluation for live status display,
// using the cached session and record plus the given device location.
func (o *Orchestrator) EvaluateNow(sessionID uuid.UUID, device *geo.Coordinate) (eligibility.Verdict, error) {
	session := o.cache.Session(sessionID)
	if session == nil {
		return eligibility.Verdict{}, &CheckInError{Code: CodeValidation, Message: "session not cached; call RefreshSession first"}
	}
	return eligibility.Evaluate(session, o.cache.Record(sessionID), o.now(), device, eligibility.Options{LateGrace: o.opts.LateGrace})
}

// RefreshHistory fetches a page of attendance history into the cache.
func (o *Orchestrator) RefreshHistory(ctx context.Context, page, perPage int) ([]model.AttendanceRecord, error) {
	records, err := o.repo.History(ctx, page, perPage)
	if err != nil {
		return nil, err
	}
	o.cache.SetHistory(records)
	return records, nil
}

// ManualMark assigns a status to one student, bypassing location and time
// checks. Input is validated locally before the submission.
func (o *Orchestrator) ManualMark(ctx context.Context, sessionID uuid.UUID, studentID int, status model.AttendanceStatus, note string) (*model.AttendanceRecord, *CheckInError) {
	if ce := validateMark(sessionID, studentID, status, note); ce != nil {
		return nil, ce
	}

	record, err := o.repo.SubmitManualMark(ctx, sessionID, studentID, status, note)
	if err != nil {
		return nil, AsCheckInError(err)
	}
	o.cache.Reconcile(record)
	return record, nil
}

// ManualMarkBatch assigns statuses to several students. Entries failing local
// validation are reported itemized without blocking the rest; the submitted
// remainder is itemized by the server. Partial success is the expected shape.
func (o *Orchestrator) ManualMarkBatch(ctx context.Context, sessionID uuid.UUID, marks []model.BatchMarkEntry) ([]model.BatchMarkResult, *CheckInError) {
	if sessionID == uuid.Nil {
		return nil, &CheckInError{Code: CodeValidation, Message: "session id is required"}
	}
	if len(marks) == 0 {
		return nil, &CheckInError{Code: CodeValidation, Message: "at least one mark is required"}
	}

	results := make([]model.BatchMarkResult, 0, len(marks))
	var valid []model.BatchMarkEntry
	for _, m := range marks {
		if ce := validateMark(sessionID, m.StudentID, m.Status, m.Note); ce != nil {
			results = append(results, model.BatchMarkResult{StudentID: m.StudentID, Error: ce.Message})
			continue
		}
		valid = append(valid, m)
	}

	if len(valid) > 0 {
		submitted, err := o.repo.SubmitBatchMarks(ctx, sessionID, valid)
		if err != nil {
			return nil, AsCheckInError(err)
		}
		for _, r := range submitted {
			if r.Record != nil {
				o.cache.Reconcile(r.Record)
			}
		}
		results = append(results, submitted...)
	}

	return results, nil
}

func validateMark(sessionID uuid.UUID, studentID int, status model.AttendanceStatus, note string) *CheckInError {
	if sessionID == uuid.Nil {
		return &CheckInError{Code: CodeValidation, Message: "session id is required"}
	}
	if studentID <= 0 {
		return &CheckInError{Code: CodeValidation, Message: "student id is required"}
	}
	if !model.ValidAttendanceStatus(status) {
		return &CheckInError{Code: CodeValidation, Message: "invalid attendance status: " + string(status)}
	}
	if len(note) > 255 {
		return &CheckInError{Code: CodeValidation, Message: "note must be at most 255 characters"}
	}
	return nil
}

// verdictError converts a rejecting eligibility verdict to a CheckInError.
func verdictError(v eligibility.Verdict) *CheckInError {
	ce := &CheckInError{DistanceMeters: v.DistanceMeters}
	switch v.Reason {
	case eligibility.ReasonAlreadyCheckedIn:
		ce.Code = CodeAlreadyCheckedIn
	case eligibility.ReasonNotToday:
		ce.Code = CodeNotToday
	case eligibility.ReasonSessionClosed:
		ce.Code = CodeSessionClosed
	case eligibility.ReasonTooEarly:
		ce.Code = CodeTooEarly
	case eligibility.ReasonTooLate:
		ce.Code = CodeTooLate
	case eligibility.ReasonLocationUnavailable:
		ce.Code = CodeLocationUnavailable
	case eligibility.ReasonOutOfRange:
		ce.Code = CodeOutOfRange
	default:
		ce.Code = CodeUnknown
	}
	return ce
}
