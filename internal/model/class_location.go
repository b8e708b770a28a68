package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/hadirku/hadirku-backend/internal/geo"
)

// ClassLocation is a registered geofence center referenced by attendance
// sessions. Locations are soft-deleted so historical sessions keep a valid
// reference.
type ClassLocation struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	Coordinate   geo.Coordinate `json:"coordinate"`
	RadiusMeters float64        `json:"radius_meters"`
	Address      string         `json:"address"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    *time.Time     `json:"deleted_at,omitempty"`
}

// CreateClassLocationRequest is the payload for registering a geofence.
type CreateClassLocationRequest struct {
	Name         string  `json:"name" binding:"required,min=2,max=100"`
	Latitude     float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude    float64 `json:"longitude" binding:"min=-180,max=180"`
	RadiusMeters float64 `json:"radius_meters" binding:"required,gt=0,max=10000"`
	Address      string  `json:"address" binding:"max=255"`
}

// UpdateClassLocationRequest is the payload for updating a geofence in place.
type UpdateClassLocationRequest struct {
	Name         string  `json:"name" binding:"required,min=2,max=100"`
	Latitude     float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude    float64 `json:"longitude" binding:"min=-180,max=180"`
	RadiusMeters float64 `json:"radius_meters" binding:"required,gt=0,max=10000"`
	Address      string  `json:"address" binding:"max=255"`
}
