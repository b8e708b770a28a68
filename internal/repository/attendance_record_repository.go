package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hadirku/hadirku-backend/internal/model"
)

// AttendanceRecordRepository handles attendance record data access. The
// UNIQUE (session_id, student_id) constraint enforces the one-record-per-pair
// invariant at the storage layer.
type AttendanceRecordRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceRecordRepository creates a new AttendanceRecordRepository.
func NewAttendanceRecordRepository(pool *pgxpool.Pool) *AttendanceRecordRepository {
	return &AttendanceRecordRepository{pool: pool}
}

const recordColumns = `
	id, session_id, student_id, status, has_checked_in, check_in_time,
	check_in_method, distance_from_location, is_valid_location, note,
	marked_by, created_at, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (*model.AttendanceRecord, error) {
	rec := &model.AttendanceRecord{}
	err := row.Scan(
		&rec.ID, &rec.SessionID, &rec.StudentID, &rec.Status, &rec.HasCheckedIn,
		&rec.CheckInTime, &rec.CheckInMethod, &rec.DistanceFromLocation,
		&rec.IsValidLocation, &rec.Note, &rec.MarkedBy, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetBySessionAndStudent retrieves the record for one (session, student) pair.
func (r *AttendanceRecordRepository) GetBySessionAndStudent(ctx context.Context, sessionID uuid.UUID, studentID int) (*model.AttendanceRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+`
		 FROM attendance_records
		 WHERE session_id = $1 AND student_id = $2`, sessionID, studentID)
	return scanRecord(row)
}

// CreateCheckIn inserts the record for a first successful check-in.
// ON CONFLICT DO NOTHING makes a concurrent duplicate surface as
// pgx.ErrNoRows instead of a constraint violation.
func (r *AttendanceRecordRepository) CreateCheckIn(ctx context.Context, rec *model.AttendanceRecord) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO attendance_records
		 (session_id, student_id, status, has_checked_in, check_in_time, check_in_method, distance_from_location, is_valid_location)
		 VALUES ($1, $2, $3, TRUE, $4, $5, $6, $7)
		 ON CONFLICT (session_id, student_id) DO NOTHING
		 RETURNING id, created_at, updated_at`,
		rec.SessionID, rec.StudentID, rec.Status, rec.CheckInTime,
		rec.CheckInMethod, rec.DistanceFromLocation, rec.IsValidLocation,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
}

// UpsertManualMark creates or amends a record with a teacher-assigned status.
// A manual correction amends the existing record; it never duplicates it.
func (r *AttendanceRecordRepository) UpsertManualMark(ctx context.Context, rec *model.AttendanceRecord) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO attendance_records
		 (session_id, student_id, status, has_checked_in, check_in_time, check_in_method, note, marked_by)
		 VALUES ($1, $2, $3, TRUE, $4, $5, $6, $7)
		 ON CONFLICT (session_id, student_id) DO UPDATE
		 SET status = EXCLUDED.status, note = EXCLUDED.note,
		     marked_by = EXCLUDED.marked_by, check_in_method = EXCLUDED.check_in_method,
		     updated_at = NOW()
		 RETURNING id, has_checked_in, check_in_time, distance_from_location, is_valid_location, created_at, updated_at`,
		rec.SessionID, rec.StudentID, rec.Status, rec.CheckInTime,
		rec.CheckInMethod, rec.Note, rec.MarkedBy,
	).Scan(&rec.ID, &rec.HasCheckedIn, &rec.CheckInTime,
		&rec.DistanceFromLocation, &rec.IsValidLocation, &rec.CreatedAt, &rec.UpdatedAt)
}

// ListBySession retrieves all records of one session ordered by student.
func (r *AttendanceRecordRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordColumns+`
		 FROM attendance_records
		 WHERE session_id = $1
		 ORDER BY student_id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.AttendanceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// ListByStudent retrieves a student's attendance history, most recent first.
func (r *AttendanceRecordRepository) ListByStudent(ctx context.Context, studentID, page, perPage int) ([]model.AttendanceRecord, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attendance_records WHERE student_id = $1`, studentID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordColumns+`
		 FROM attendance_records
		 WHERE student_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, studentID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []model.AttendanceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, *rec)
	}
	return records, total, rows.Err()
}

// StatsBySession computes attendance tallies for one session straight from
// the records table. The worker caches the result in Redis; this is the
// source of truth it falls back to.
func (r *AttendanceRecordRepository) StatsBySession(ctx context.Context, sessionID uuid.UUID) (*model.SessionStats, error) {
	stats := &model.SessionStats{SessionID: sessionID}
	err := r.pool.QueryRow(ctx,
		`SELECT
		   COUNT(*) FILTER (WHERE status = 'PRESENT'),
		   COUNT(*) FILTER (WHERE status = 'LATE'),
		   COUNT(*) FILTER (WHERE status = 'ABSENT'),
		   COUNT(*) FILTER (WHERE status = 'EXCUSED'),
		   COUNT(*)
		 FROM attendance_records
		 WHERE session_id = $1`, sessionID,
	).Scan(&stats.Present, &stats.Late, &stats.Absent, &stats.Excused, &stats.Total)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// StatsByStudent computes a student's aggregate attendance counters.
func (r *AttendanceRecordRepository) StatsByStudent(ctx context.Context, studentID int) (*model.StudentStats, error) {
	stats := &model.StudentStats{StudentID: studentID}
	err := r.pool.QueryRow(ctx,
		`SELECT
		   COUNT(*) FILTER (WHERE status = 'PRESENT'),
		   COUNT(*) FILTER (WHERE status = 'LATE'),
		   COUNT(*) FILTER (WHERE status = 'ABSENT'),
		   COUNT(*) FILTER (WHERE status = 'EXCUSED'),
		   COUNT(*)
		 FROM attendance_records
		 WHERE student_id = $1`, studentID,
	).Scan(&stats.Present, &stats.Late, &stats.Absent, &stats.Excused, &stats.Total)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
