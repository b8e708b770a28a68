package checkin

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hadirku/hadirku-backend/internal/geo"
	"github.com/hadirku/hadirku-backend/internal/model"
)

var testDay = time.Date(2026, 3, 9, 0, 0, 0, 0, time.Local)

func testClock() time.Time {
	return time.Date(2026, 3, 9, 9, 0, 0, 0, time.Local)
}

func testSession(id uuid.UUID) *model.AttendanceSession {
	return &model.AttendanceSession{
		ID:        id,
		CourseID:  uuid.New(),
		Date:      testDay,
		StartTime: "08:00",
		EndTime:   "10:00",
		IsOpen:    true,
		ClassLocation: model.ClassLocation{
			ID:           uuid.New(),
			Coordinate:   geo.Coordinate{Latitude: 21.0000, Longitude: 105.0000},
			RadiusMeters: 400,
		},
	}
}

// fakeLocation returns a scripted coordinate or error.
type fakeLocation struct {
	coord *geo.Coordinate
	err   error
	calls int
}

func (f *fakeLocation) Current(ctx context.Context, highAccuracy bool, timeout time.Duration) (*geo.Coordinate, error) {
	f.calls++
	return f.coord, f.err
}

// fakeRepo scripts repository responses and counts submissions.
type fakeRepo struct {
	mu           sync.Mutex
	session      *model.AttendanceSession
	record       *model.AttendanceRecord
	submitResult *model.AttendanceRecord
	submitErr    error
	submitCalls  int
	submitBlock  chan struct{} // when set, SubmitCheckIn blocks until closed
	batchResults []model.BatchMarkResult
}

func (f *fakeRepo) Session(ctx context.Context, id uuid.UUID) (*model.AttendanceSession, error) {
	return f.session, nil
}

func (f *fakeRepo) TodaySessions(ctx context.Context) ([]model.AttendanceSession, error) {
	return nil, nil
}

func (f *fakeRepo) Record(ctx context.Context, id uuid.UUID) (*model.AttendanceRecord, error) {
	return f.record, nil
}

func (f *fakeRepo) SubmitCheckIn(ctx context.Context, id uuid.UUID, coord geo.Coordinate) (*model.AttendanceRecord, error) {
	f.mu.Lock()
	f.submitCalls++
	block := f.submitBlock
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.submitResult, f.submitErr
}

func (f *fakeRepo) SubmitManualMark(ctx context.Context, id uuid.UUID, studentID int, status model.AttendanceStatus, note string) (*model.AttendanceRecord, error) {
	return &model.AttendanceRecord{SessionID: id, StudentID: studentID, Status: status, CheckInMethod: model.MethodManual, Note: note}, nil
}

func (f *fakeRepo) SubmitBatchMarks(ctx context.Context, id uuid.UUID, marks []model.BatchMarkEntry) ([]model.BatchMarkResult, error) {
	if f.batchResults != nil {
		return f.batchResults, nil
	}
	out := make([]model.BatchMarkResult, 0, len(marks))
	for _, m := range marks {
		out = append(out, model.BatchMarkResult{
			StudentID: m.StudentID,
			Record:    &model.AttendanceRecord{SessionID: id, StudentID: m.StudentID, Status: m.Status, CheckInMethod: model.MethodManual},
		})
	}
	return out, nil
}

func (f *fakeRepo) History(ctx context.Context, page, perPage int) ([]model.AttendanceRecord, error) {
	return nil, nil
}

func (f *fakeRepo) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitCalls
}

func newTestOrchestrator(repo SessionRepository, loc LocationSource) *Orchestrator {
	return NewOrchestrator(repo, loc, testClock, Options{}, zerolog.Nop())
}

func TestPerformCheckInSuccessReconcilesServerFields(t *testing.T) {
	sessionID := uuid.New()
	serverDistance := 98.4
	serverTime := testClock().Add(2 * time.Second)
	repo := &fakeRepo{
		session: testSession(sessionID),
		submitResult: &model.AttendanceRecord{
			SessionID:            sessionID,
			StudentID:            7,
			Status:               model.StatusLate, // server disagrees with the client's guess
			HasCheckedIn:         true,
			CheckInTime:          &serverTime,
			CheckInMethod:        model.MethodLocation,
			DistanceFromLocation: &serverDistance,
		},
	}
	loc := &fakeLocation{coord: &geo.Coordinate{Latitude: 21.0010, Longitude: 105.0000, Accuracy: 20}}
	o := newTestOrchestrator(repo, loc)

	record, ce := o.PerformCheckIn(context.Background(), sessionID)
	if ce != nil {
		t.Fatalf("PerformCheckIn: %v", ce)
	}
	if record.Status != model.StatusLate {
		t.Errorf("status = %s, want server-confirmed LATE", record.Status)
	}
	if *record.DistanceFromLocation != serverDistance {
		t.Errorf("distance = %v, want server-computed %v", *record.DistanceFromLocation, serverDistance)
	}

	cached := o.Cache().Record(sessionID)
	if cached == nil || cached.Status != model.StatusLate || *cached.DistanceFromLocation != serverDistance {
		t.Errorf("cache not reconciled with authoritative record: %+v", cached)
	}
}

func TestPerformCheckInLocationFailureSkipsNetwork(t *testing.T) {
	sessionID := uuid.New()
	repo := &fakeRepo{}
	loc := &fakeLocation{err: context.DeadlineExceeded}
	o := newTestOrchestrator(repo, loc)

	_, ce := o.PerformCheckIn(context.Background(), sessionID)
	if ce == nil || ce.Code != CodeLocationUnavailable {
		t.Fatalf("error = %v, want LOCATION_UNAVAILABLE", ce)
	}
	if repo.calls() != 0 {
		t.Errorf("repository contacted %d times despite location failure, want 0", repo.calls())
	}
}

func TestPerformCheckInDuplicateIsRejectedLocally(t *testing.T) {
	sessionID := uuid.New()
	repo := &fakeRepo{
		session: testSession(sessionID),
		record:  &model.AttendanceRecord{SessionID: sessionID, StudentID: 7, HasCheckedIn: true},
	}
	loc := &fakeLocation{coord: &geo.Coordinate{Latitude: 21.0010, Longitude: 105.0000}}
	o := newTestOrchestrator(repo, loc)

	// Prime the cache with session + existing record, as a real client does.
	if _, err := o.RefreshSession(context.Background(), sessionID); err != nil {
		t.Fatal(err)
	}

	_, ce := o.PerformCheckIn(context.Background(), sessionID)
	if ce == nil || ce.Code != CodeAlreadyCheckedIn {
		t.Fatalf("error = %v, want ALREADY_CHECKED_IN", ce)
	}
	if repo.calls() != 0 {
		t.Errorf("duplicate reached the network: %d submissions, want 0", repo.calls())
	}

	// Second attempt in sequence behaves identically and creates nothing.
	_, ce = o.PerformCheckIn(context.Background(), sessionID)
	if ce == nil || ce.Code != CodeAlreadyCheckedIn {
		t.Fatalf("second attempt error = %v, want ALREADY_CHECKED_IN", ce)
	}
}

func TestPerformCheckInServerRejectionMapsToTaxonomy(t *testing.T) {
	sessionID := uuid.New()
	repo := &fakeRepo{
		submitErr: &CheckInError{Code: CodeAlreadyCheckedIn, Message: "duplicate"},
	}
	loc := &fakeLocation{coord: &geo.Coordinate{Latitude: 21.0010, Longitude: 105.0000}}
	o := newTestOrchestrator(repo, loc)

	// No cached session: pre-validation is skipped, the server decides.
	_, ce := o.PerformCheckIn(context.Background(), sessionID)
	if ce == nil || ce.Code != CodeAlreadyCheckedIn {
		t.Fatalf("error = %v, want server rejection mapped to ALREADY_CHECKED_IN", ce)
	}
	if o.Cache().Record(sessionID) != nil {
		t.Error("rejected check-in must not create a cached record")
	}
}

func TestPerformCheckInConcurrentAttemptRejected(t *testing.T) {
	sessionID := uuid.New()
	block := make(chan struct{})
	repo := &fakeRepo{
		submitBlock:  block,
		submitResult: &model.AttendanceRecord{SessionID: sessionID, HasCheckedIn: true, Status: model.StatusPresent},
	}
	loc := &fakeLocation{coord: &geo.Coordinate{Latitude: 21.0010, Longitude: 105.0000}}
	o := newTestOrchestrator(repo, loc)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, ce := o.PerformCheckIn(context.Background(), sessionID); ce != nil {
			t.Errorf("first attempt failed: %v", ce)
		}
	}()

	// Wait for the first attempt to reach the blocked submission.
	deadline := time.After(2 * time.Second)
	for repo.calls() == 0 {
		select {
		case <-deadline:
			t.Fatal("first attempt never reached the repository")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// Double-tap: second attempt while the first is in flight.
	_, ce := o.PerformCheckIn(context.Background(), sessionID)
	if ce == nil || ce.Code != CodeAttemptInProgress {
		t.Fatalf("concurrent attempt error = %v, want ATTEMPT_IN_PROGRESS", ce)
	}

	close(block)
	<-done

	if repo.calls() != 1 {
		t.Errorf("submissions = %d, want 1", repo.calls())
	}
}

func TestManualMarkValidation(t *testing.T) {
	sessionID := uuid.New()
	o := newTestOrchestrator(&fakeRepo{}, &fakeLocation{})

	tests := []struct {
		name      string
		studentID int
		status    model.AttendanceStatus
		note      string
	}{
		{"invalid status", 7, "SLEEPING", ""},
		{"zero student id", 0, model.StatusPresent, ""},
		{"note too long", 7, model.StatusPresent, string(make([]byte, 256))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ce := o.ManualMark(context.Background(), sessionID, tt.studentID, tt.status, tt.note)
			if ce == nil || ce.Code != CodeValidation {
				t.Errorf("error = %v, want VALIDATION_ERROR", ce)
			}
		})
	}

	record, ce := o.ManualMark(context.Background(), sessionID, 7, model.StatusExcused, "sakit")
	if ce != nil {
		t.Fatalf("valid mark failed: %v", ce)
	}
	if record.Status != model.StatusExcused || record.CheckInMethod != model.MethodManual {
		t.Errorf("record = %+v", record)
	}
}

func TestManualMarkBatchPartialFailure(t *testing.T) {
	sessionID := uuid.New()
	o := newTestOrchestrator(&fakeRepo{}, &fakeLocation{})

	marks := []model.BatchMarkEntry{
		{StudentID: 1, Status: model.StatusPresent},
		{StudentID: 2, Status: "INVALID"},
		{StudentID: 3, Status: model.StatusAbsent},
	}

	results, ce := o.ManualMarkBatch(context.Background(), sessionID, marks)
	if ce != nil {
		t.Fatalf("batch failed wholesale: %v", ce)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d entries, want 3", len(results))
	}

	success, failure := 0, 0
	for _, r := range results {
		if r.Error != "" {
			failure++
			if r.StudentID != 2 {
				t.Errorf("unexpected failure for student %d: %s", r.StudentID, r.Error)
			}
		} else {
			success++
			if r.Record == nil {
				t.Errorf("success for student %d without a record", r.StudentID)
			}
		}
	}
	if success != 2 || failure != 1 {
		t.Errorf("success=%d failure=%d, want 2 successes and 1 itemized failure", success, failure)
	}
}
