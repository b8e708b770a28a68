package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionState classifies an attendance session's lifecycle at a point in
// time. It is derived from session fields and the current time, never stored.
type SessionState string

const (
	SessionStateScheduled SessionState = "SCHEDULED"
	SessionStateOpen      SessionState = "OPEN"
	SessionStateClosed    SessionState = "CLOSED"
	SessionStateExpired   SessionState = "EXPIRED"
)

// AttendanceSession is a scheduled class meeting eligible for check-in.
// StartTime and EndTime are local wall-clock times ("HH:MM") on Date.
// IsOpen is an administrative flag toggled by the teacher and is independent
// of the time window: a session inside its window can be closed, and a
// session past its window can still be flagged open (check-ins are rejected
// by the time check regardless).
type AttendanceSession struct {
	ID                  uuid.UUID     `json:"id"`
	CourseID            uuid.UUID     `json:"course_id"`
	Date                time.Time     `json:"date"`
	StartTime           string        `json:"start_time"`
	EndTime             string        `json:"end_time"`
	ClassLocation       ClassLocation `json:"class_location"`
	IsOpen              bool          `json:"is_open"`
	AllowLateCheckIn    bool          `json:"allow_late_check_in"`
	MaxDistanceOverride *float64      `json:"max_distance_override,omitempty"`
	CreatedBy           int           `json:"created_by"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// EffectiveRadius returns the geofence radius for this session: the
// per-session override when set, otherwise the class location's radius.
func (s *AttendanceSession) EffectiveRadius() float64 {
	if s.MaxDistanceOverride != nil {
		return *s.MaxDistanceOverride
	}
	return s.ClassLocation.RadiusMeters
}

// Window resolves the session's start and end instants in loc.
// The invariant startTime < endTime is enforced here.
func (s *AttendanceSession) Window(loc *time.Location) (start, end time.Time, err error) {
	start, err = combineDateTime(s.Date, s.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start_time: %w", err)
	}
	end, err = combineDateTime(s.Date, s.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end_time: %w", err)
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, errors.New("session start_time must be before end_time")
	}
	return start, end, nil
}

// combineDateTime merges a calendar date with an "HH:MM" wall-clock time.
func combineDateTime(date time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", hhmm, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// CreateSessionRequest is the payload for scheduling an attendance session.
type CreateSessionRequest struct {
	CourseID            uuid.UUID `json:"course_id" binding:"required"`
	Date                string    `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime           string    `json:"start_time" binding:"required,datetime=15:04"`
	EndTime             string    `json:"end_time" binding:"required,datetime=15:04,gtfield=StartTime"`
	ClassLocationID     uuid.UUID `json:"class_location_id" binding:"required"`
	AllowLateCheckIn    bool      `json:"allow_late_check_in"`
	MaxDistanceOverride *float64  `json:"max_distance_override" binding:"omitempty,gt=0,max=10000"`
}

// ToggleSessionRequest is the payload for a teacher opening or closing a
// session for check-in.
type ToggleSessionRequest struct {
	IsOpen bool `json:"is_open"`
}
