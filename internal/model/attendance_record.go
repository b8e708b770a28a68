package model

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceStatus enumerates the final status assigned to a student for a
// session.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "PRESENT"
	StatusLate    AttendanceStatus = "LATE"
	StatusAbsent  AttendanceStatus = "ABSENT"
	StatusExcused AttendanceStatus = "EXCUSED"
)

// ValidAttendanceStatus reports whether s is one of the four known statuses.
func ValidAttendanceStatus(s AttendanceStatus) bool {
	switch s {
	case StatusPresent, StatusLate, StatusAbsent, StatusExcused:
		return true
	}
	return false
}

// CheckInMethod records how an attendance record was produced.
type CheckInMethod string

const (
	MethodLocation CheckInMethod = "LOCATION"
	MethodManual   CheckInMethod = "MANUAL"
	MethodQRCode   CheckInMethod = "QR_CODE"
)

// AttendanceRecord is a student's attendance claim for one session.
// Exactly one record exists per (session, student) pair: a second check-in
// attempt amends nothing and is rejected as a duplicate.
type AttendanceRecord struct {
	ID                   uuid.UUID        `json:"id"`
	SessionID            uuid.UUID        `json:"session_id"`
	StudentID            int              `json:"student_id"`
	Status               AttendanceStatus `json:"status"`
	HasCheckedIn         bool             `json:"has_checked_in"`
	CheckInTime          *time.Time       `json:"check_in_time,omitempty"`
	CheckInMethod        CheckInMethod    `json:"check_in_method"`
	DistanceFromLocation *float64         `json:"distance_from_location,omitempty"`
	IsValidLocation      *bool            `json:"is_valid_location,omitempty"`
	Note                 string           `json:"note,omitempty"`
	MarkedBy             *int             `json:"marked_by,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// CheckInRequest is the payload a device submits for a location check-in.
type CheckInRequest struct {
	Latitude  float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude float64 `json:"longitude" binding:"min=-180,max=180"`
	Accuracy  float64 `json:"accuracy" binding:"omitempty,gte=0"`
}

// ManualMarkRequest is the payload for a teacher assigning a status directly,
// bypassing location and time checks.
type ManualMarkRequest struct {
	Status AttendanceStatus `json:"status" binding:"required,oneof=PRESENT LATE ABSENT EXCUSED"`
	Note   string           `json:"note" binding:"max=255"`
}

// BatchMarkEntry is one student's status assignment inside a batch mark.
type BatchMarkEntry struct {
	StudentID int              `json:"student_id" binding:"required"`
	Status    AttendanceStatus `json:"status" binding:"required"`
	Note      string           `json:"note" binding:"max=255"`
}

// BatchMarkRequest assigns statuses to several students at once. The batch is
// not atomic: each entry succeeds or fails on its own.
type BatchMarkRequest struct {
	Marks []BatchMarkEntry `json:"marks" binding:"required,min=1,dive"`
}

// BatchMarkResult reports the per-student outcome of a batch mark.
type BatchMarkResult struct {
	StudentID int               `json:"student_id"`
	Record    *AttendanceRecord `json:"record,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// SessionStats summarizes attendance tallies for one session.
type SessionStats struct {
	SessionID uuid.UUID `json:"session_id"`
	Present   int       `json:"present"`
	Late      int       `json:"late"`
	Absent    int       `json:"absent"`
	Excused   int       `json:"excused"`
	Total     int       `json:"total"`
}

// StudentStats summarizes one student's attendance across all sessions.
type StudentStats struct {
	StudentID int `json:"student_id"`
	Present   int `json:"present"`
	Late      int `json:"late"`
	Absent    int `json:"absent"`
	Excused   int `json:"excused"`
	Total     int `json:"total"`
}
