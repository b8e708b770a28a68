package websocket

import (
	"time"

	"github.com/google/uuid"

	"github.com/hadirku/hadirku-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError            Event = "error"
	EventPong             Event = "pong"
	EventStudentCheckedIn Event = "student_checked_in"
	EventRecordMarked     Event = "record_marked"
	EventSessionToggled   Event = "session_toggled"
	EventStats            Event = "stats"
)

// MonitorEvent is broadcast on a session's monitor channel whenever an
// attendance record changes. Teacher dashboards subscribe to one session.
type MonitorEvent struct {
	Event          Event                  `json:"event"`
	SessionID      uuid.UUID              `json:"session_id"`
	StudentID      int                    `json:"student_id,omitempty"`
	Status         model.AttendanceStatus `json:"status,omitempty"`
	Method         model.CheckInMethod    `json:"method,omitempty"`
	DistanceMeters *float64               `json:"distance_meters,omitempty"`
	IsOpen         *bool                  `json:"is_open,omitempty"`
	At             time.Time              `json:"at"`
}

// StatsEvent pushes refreshed session tallies to monitoring teachers.
type StatsEvent struct {
	Event Event              `json:"event"`
	Stats model.SessionStats `json:"stats"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
