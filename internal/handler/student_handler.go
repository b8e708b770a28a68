package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hadirku/hadirku-backend/internal/eligibility"
	"github.com/hadirku/hadirku-backend/internal/middleware"
	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/hadirku/hadirku-backend/internal/response"
	"github.com/hadirku/hadirku-backend/internal/service"
	"github.com/hadirku/hadirku-backend/internal/validator"
)

// StudentHandler handles the student-facing attendance endpoints.
type StudentHandler struct {
	sessionService    *service.SessionService
	attendanceService *service.AttendanceService
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(
	sessionService *service.SessionService,
	attendanceService *service.AttendanceService,
) *StudentHandler {
	return &StudentHandler{
		sessionService:    sessionService,
		attendanceService: attendanceService,
	}
}

// TodaySessions godoc
// GET /api/v1/student/sessions/today
// Returns today's sessions for the student's class, each with lifecycle
// state and the student's own record when one exists.
func (h *StudentHandler) TodaySessions(c *gin.Context) {
	claims := middleware.GetClaims(c)

	sessions, err := h.sessionService.TodayForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if sessions == nil {
		sessions = []service.SessionView{}
	}

	response.Success(c, http.StatusOK, gin.H{"sessions": sessions})
}

// GetSession godoc
// GET /api/v1/student/sessions/:id
// Returns one session with its lifecycle state.
func (h *StudentHandler) GetSession(c *gin.Context) {
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

// CheckIn godoc
// POST /api/v1/student/sessions/:id/check-in
// Submits a location check-in. The rejection reason maps one-to-one onto an
// error code so the app can show a precise message.
func (h *StudentHandler) CheckIn(c *gin.Context) {
	claims := middleware.GetClaims(c)

	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.CheckInRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	record, err := h.attendanceService.CheckIn(c.Request.Context(), sessionID, claims.UserID, req)
	if err != nil {
		h.failCheckIn(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"record": record})
}

// failCheckIn translates a check-in error into the HTTP error envelope.
func (h *StudentHandler) failCheckIn(c *gin.Context, err error) {
	if errors.Is(err, service.ErrSessionNotFound) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	rejection, ok := service.AsCheckInRejection(err)
	if !ok {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	verdict := rejection.Verdict
	switch verdict.Reason {
	case eligibility.ReasonAlreadyCheckedIn:
		response.Fail(c, http.StatusConflict, response.ErrAlreadyCheckedIn)
	case eligibility.ReasonNotToday:
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNotToday)
	case eligibility.ReasonSessionClosed:
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrSessionClosed)
	case eligibility.ReasonTooEarly:
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrTooEarly)
	case eligibility.ReasonTooLate:
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrTooLate)
	case eligibility.ReasonLocationUnavailable:
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrLocationUnavailable)
	case eligibility.ReasonOutOfRange:
		// The OUT_OF_RANGE message carries the measured distance so the
		// student knows by how much they missed.
		if verdict.DistanceMeters != nil && rejection.RadiusMeters > 0 {
			response.FailWithMessage(c, http.StatusUnprocessableEntity, response.ErrOutOfRange,
				response.OutOfRangeMessage(*verdict.DistanceMeters, rejection.RadiusMeters))
			return
		}
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrOutOfRange)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// GetRecord godoc
// GET /api/v1/student/sessions/:id/record
// Returns the student's own record for a session.
func (h *StudentHandler) GetRecord(c *gin.Context) {
	claims := middleware.GetClaims(c)

	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	record, err := h.attendanceService.GetRecord(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrRecordNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"record": record})
}

// History godoc
// GET /api/v1/student/history
// Returns the student's paginated attendance history, most recent first.
func (h *StudentHandler) History(c *gin.Context) {
	claims := middleware.GetClaims(c)
	page, perPage := paginationParams(c)

	records, total, err := h.attendanceService.History(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if records == nil {
		records = []model.AttendanceRecord{}
	}

	totalPages := (int(total) + perPage - 1) / perPage
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"records": records}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: totalPages,
	})
}

// Stats godoc
// GET /api/v1/student/stats
// Returns the student's aggregate attendance counters.
func (h *StudentHandler) Stats(c *gin.Context) {
	claims := middleware.GetClaims(c)

	stats, err := h.attendanceService.StudentStats(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}
