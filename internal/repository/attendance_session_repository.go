package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hadirku/hadirku-backend/internal/model"
)

// AttendanceSessionRepository handles attendance session data access.
type AttendanceSessionRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceSessionRepository creates a new AttendanceSessionRepository.
func NewAttendanceSessionRepository(pool *pgxpool.Pool) *AttendanceSessionRepository {
	return &AttendanceSessionRepository{pool: pool}
}

const sessionColumns = `
	s.id, s.course_id, s.date, s.start_time, s.end_time,
	s.is_open, s.allow_late_check_in, s.max_distance_override,
	s.created_by, s.created_at, s.updated_at,
	l.id, l.name, l.latitude, l.longitude, l.radius_meters, l.address,
	l.created_at, l.updated_at, l.deleted_at`

func scanSession(row interface{ Scan(...any) error }) (*model.AttendanceSession, error) {
	s := &model.AttendanceSession{}
	l := &s.ClassLocation
	err := row.Scan(
		&s.ID, &s.CourseID, &s.Date, &s.StartTime, &s.EndTime,
		&s.IsOpen, &s.AllowLateCheckIn, &s.MaxDistanceOverride,
		&s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
		&l.ID, &l.Name, &l.Coordinate.Latitude, &l.Coordinate.Longitude,
		&l.RadiusMeters, &l.Address, &l.CreatedAt, &l.UpdatedAt, &l.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID retrieves a session with its class location.
func (r *AttendanceSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AttendanceSession, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM attendance_sessions s
		 JOIN class_locations l ON s.class_location_id = l.id
		 WHERE s.id = $1`, id)
	return scanSession(row)
}

// Create inserts a new attendance session.
func (r *AttendanceSessionRepository) Create(ctx context.Context, s *model.AttendanceSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO attendance_sessions
		 (course_id, date, start_time, end_time, class_location_id, is_open, allow_late_check_in, max_distance_override, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		s.CourseID, s.Date, s.StartTime, s.EndTime, s.ClassLocation.ID,
		s.IsOpen, s.AllowLateCheckIn, s.MaxDistanceOverride, s.CreatedBy,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// SetOpen toggles the administrative open flag. The flag is independent of
// the time window; the toggle is accepted at any time.
func (r *AttendanceSessionRepository) SetOpen(ctx context.Context, id uuid.UUID, isOpen bool) error {
	var updatedAt time.Time
	return r.pool.QueryRow(ctx,
		`UPDATE attendance_sessions
		 SET is_open = $1, updated_at = NOW()
		 WHERE id = $2
		 RETURNING updated_at`, isOpen, id,
	).Scan(&updatedAt)
}

// ListForStudentByDate retrieves the sessions on a given date for all courses
// of the student's class.
func (r *AttendanceSessionRepository) ListForStudentByDate(ctx context.Context, studentID int, date time.Time) ([]model.AttendanceSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM attendance_sessions s
		 JOIN class_locations l ON s.class_location_id = l.id
		 JOIN courses c ON s.course_id = c.id
		 JOIN students st ON st.class_id = c.class_id
		 WHERE st.id = $1 AND s.date = $2
		 ORDER BY s.start_time ASC`, studentID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.AttendanceSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// ListByCourse retrieves all sessions of a course, most recent first.
func (r *AttendanceSessionRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.AttendanceSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM attendance_sessions s
		 JOIN class_locations l ON s.class_location_id = l.id
		 WHERE s.course_id = $1
		 ORDER BY s.date DESC, s.start_time DESC`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.AttendanceSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}
