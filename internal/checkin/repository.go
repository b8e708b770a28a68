package checkin

import (
	"context"

	"github.com/google/uuid"

	"github.com/hadirku/hadirku-backend/internal/geo"
	"github.com/hadirku/hadirku-backend/internal/model"
)

// SessionRepository is the network-backed store of sessions and attendance
// records. The server re-validates every submission authoritatively; local
// pre-validation only fails fast. Submission errors should be *CheckInError
// values so rejections keep their code across the wire.
type SessionRepository interface {
	// Session fetches one session with its class location.
	Session(ctx context.Context, sessionID uuid.UUID) (*model.AttendanceSession, error)

	// TodaySessions lists the student's sessions scheduled for today.
	TodaySessions(ctx context.Context) ([]model.AttendanceSession, error)

	// Record fetches the student's record for a session, or nil if none
	// exists yet.
	Record(ctx context.Context, sessionID uuid.UUID) (*model.AttendanceRecord, error)

	// SubmitCheckIn submits a location check-in. On success the returned
	// record carries the server's authoritative status, distance and
	// timestamp.
	SubmitCheckIn(ctx context.Context, sessionID uuid.UUID, coord geo.Coordinate) (*model.AttendanceRecord, error)

	// SubmitManualMark assigns a status to one student, bypassing location
	// and time checks. Teacher credential required server-side.
	SubmitManualMark(ctx context.Context, sessionID uuid.UUID, studentID int, status model.AttendanceStatus, note string) (*model.AttendanceRecord, error)

	// SubmitBatchMarks assigns statuses to several students. The result is
	// itemized per student; the batch is never atomic.
	SubmitBatchMarks(ctx context.Context, sessionID uuid.UUID, marks []model.BatchMarkEntry) ([]model.BatchMarkResult, error)

	// History lists the student's past attendance records.
	History(ctx context.Context, page, perPage int) ([]model.AttendanceRecord, error)
}
