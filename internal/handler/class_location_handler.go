package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/hadirku/hadirku-backend/internal/response"
	"github.com/hadirku/hadirku-backend/internal/service"
	"github.com/hadirku/hadirku-backend/internal/validator"
)

// ClassLocationHandler handles geofence management endpoints.
type ClassLocationHandler struct {
	locationService *service.ClassLocationService
}

// NewClassLocationHandler creates a new ClassLocationHandler.
func NewClassLocationHandler(locationService *service.ClassLocationService) *ClassLocationHandler {
	return &ClassLocationHandler{locationService: locationService}
}

// List godoc
// GET /api/v1/teacher/locations
func (h *ClassLocationHandler) List(c *gin.Context) {
	locations, err := h.locationService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if locations == nil {
		locations = []model.ClassLocation{}
	}
	response.Success(c, http.StatusOK, gin.H{"locations": locations})
}

// Get godoc
// GET /api/v1/teacher/locations/:id
func (h *ClassLocationHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	location, err := h.locationService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrLocationNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"location": location})
}

// Create godoc
// POST /api/v1/teacher/locations
func (h *ClassLocationHandler) Create(c *gin.Context) {
	var req model.CreateClassLocationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	location, err := h.locationService.Create(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"location": location})
}

// Update godoc
// PUT /api/v1/teacher/locations/:id
func (h *ClassLocationHandler) Update(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateClassLocationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	location, err := h.locationService.Update(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLocationNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrLocationDeleted):
			response.Fail(c, http.StatusConflict, response.ErrConflict)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"location": location})
}

// Delete godoc
// DELETE /api/v1/teacher/locations/:id
// Soft-deletes the geofence; historical sessions keep their reference.
func (h *ClassLocationHandler) Delete(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.locationService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrLocationNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
