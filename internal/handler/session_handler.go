package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hadirku/hadirku-backend/internal/middleware"
	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/hadirku/hadirku-backend/internal/response"
	"github.com/hadirku/hadirku-backend/internal/service"
	"github.com/hadirku/hadirku-backend/internal/validator"
)

// SessionHandler handles the teacher-facing session and record endpoints.
type SessionHandler struct {
	sessionService    *service.SessionService
	attendanceService *service.AttendanceService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(
	sessionService *service.SessionService,
	attendanceService *service.AttendanceService,
) *SessionHandler {
	return &SessionHandler{
		sessionService:    sessionService,
		attendanceService: attendanceService,
	}
}

// Create godoc
// POST /api/v1/teacher/sessions
// Schedules a new attendance session. Sessions start open.
func (h *SessionHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLocationNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrLocationDeleted):
			response.Fail(c, http.StatusConflict, response.ErrConflict)
		default:
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": session})
}

// Get godoc
// GET /api/v1/teacher/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	session, err := h.sessionService.Get(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// ListByCourse godoc
// GET /api/v1/teacher/courses/:course_id/sessions
func (h *SessionHandler) ListByCourse(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	sessions, listErr := h.sessionService.ListByCourse(c.Request.Context(), courseID)
	if listErr != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if sessions == nil {
		sessions = []service.SessionView{}
	}

	response.Success(c, http.StatusOK, gin.H{"sessions": sessions})
}

// Toggle godoc
// PATCH /api/v1/teacher/sessions/:id/toggle
// Opens or closes a session for check-in. Accepted at any time; reopening an
// expired session does not make check-ins valid again.
func (h *SessionHandler) Toggle(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.ToggleSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.SetOpen(c.Request.Context(), sessionID, req.IsOpen)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// ListRecords godoc
// GET /api/v1/teacher/sessions/:id/records
func (h *SessionHandler) ListRecords(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	records, err := h.attendanceService.ListRecords(c.Request.Context(), sessionID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if records == nil {
		records = []model.AttendanceRecord{}
	}

	response.Success(c, http.StatusOK, gin.H{"records": records})
}

// Stats godoc
// GET /api/v1/teacher/sessions/:id/stats
// Returns attendance tallies, served from the Redis cache with a database
// fallback.
func (h *SessionHandler) Stats(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	stats, err := h.attendanceService.SessionStats(c.Request.Context(), sessionID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}

// ManualMark godoc
// POST /api/v1/teacher/sessions/:id/records/:student_id
// Assigns a status to one student directly, bypassing location and time
// checks. Amends an existing record instead of duplicating it.
func (h *SessionHandler) ManualMark(c *gin.Context) {
	claims := middleware.GetClaims(c)

	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	studentID, ok := parseIntParam(c, "student_id")
	if !ok {
		return
	}

	var req model.ManualMarkRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	record, err := h.attendanceService.ManualMark(c.Request.Context(), sessionID, studentID, claims.UserID, req)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"record": record})
}

// BatchMark godoc
// POST /api/v1/teacher/sessions/:id/records/batch
// Applies several manual marks at once; each entry succeeds or fails on its
// own and the response itemizes the outcomes.
func (h *SessionHandler) BatchMark(c *gin.Context) {
	claims := middleware.GetClaims(c)

	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.BatchMarkRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	results, err := h.attendanceService.BatchMark(c.Request.Context(), sessionID, claims.UserID, req)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}
