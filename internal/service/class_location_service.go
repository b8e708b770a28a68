package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hadirku/hadirku-backend/internal/geo"
	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/hadirku/hadirku-backend/internal/repository"
)

// ClassLocationService handles geofence registration and maintenance.
type ClassLocationService struct {
	locationRepo *repository.ClassLocationRepository
}

// NewClassLocationService creates a new ClassLocationService.
func NewClassLocationService(locationRepo *repository.ClassLocationRepository) *ClassLocationService {
	return &ClassLocationService{locationRepo: locationRepo}
}

// List returns all active (not soft-deleted) class locations.
func (s *ClassLocationService) List(ctx context.Context) ([]model.ClassLocation, error) {
	return s.locationRepo.List(ctx)
}

// Get returns one class location, including soft-deleted ones so historical
// sessions can still resolve their geofence.
func (s *ClassLocationService) Get(ctx context.Context, id uuid.UUID) (*model.ClassLocation, error) {
	location, err := s.locationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return location, nil
}

// Create registers a new geofence.
func (s *ClassLocationService) Create(ctx context.Context, req model.CreateClassLocationRequest) (*model.ClassLocation, error) {
	coord := geo.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude}
	if err := coord.Validate(); err != nil {
		return nil, err
	}

	location := &model.ClassLocation{
		Name:         req.Name,
		Coordinate:   coord,
		RadiusMeters: req.RadiusMeters,
		Address:      req.Address,
	}
	if err := s.locationRepo.Create(ctx, location); err != nil {
		return nil, fmt.Errorf("create location: %w", err)
	}
	return location, nil
}

// Update modifies a geofence in place. Sessions referencing it pick up the
// new center and radius on their next evaluation.
func (s *ClassLocationService) Update(ctx context.Context, id uuid.UUID, req model.UpdateClassLocationRequest) (*model.ClassLocation, error) {
	coord := geo.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude}
	if err := coord.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.DeletedAt != nil {
		return nil, ErrLocationDeleted
	}

	existing.Name = req.Name
	existing.Coordinate = coord
	existing.RadiusMeters = req.RadiusMeters
	existing.Address = req.Address

	if err := s.locationRepo.Update(ctx, existing); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("update location: %w", err)
	}
	return existing, nil
}

// Delete soft-deletes a geofence. Existing sessions keep their reference;
// new sessions may no longer use it.
func (s *ClassLocationService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.locationRepo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLocationNotFound
		}
		return fmt.Errorf("delete location: %w", err)
	}
	return nil
}
