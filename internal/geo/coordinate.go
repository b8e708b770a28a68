package geo

import (
	"errors"
	"fmt"
	"math"
)

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// ErrInvalidCoordinate is returned when a latitude or longitude is outside
// its valid range. Callers are expected to never trigger this in practice.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is an immutable geographic point.
// Accuracy is the reported horizontal accuracy in meters (0 = unknown).
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
}

// Validate checks that latitude is within [-90, 90], longitude within
// [-180, 180] and accuracy is non-negative.
func (c Coordinate) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %.6f out of range [-90, 90]", ErrInvalidCoordinate, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %.6f out of range [-180, 180]", ErrInvalidCoordinate, c.Longitude)
	}
	if c.Accuracy < 0 {
		return fmt.Errorf("%w: accuracy %.2f must be >= 0", ErrInvalidCoordinate, c.Accuracy)
	}
	return nil
}

// Distance computes the great-circle distance between two coordinates in
// meters using the haversine formula on a spherical Earth. It rejects
// out-of-range coordinates instead of clamping them.
func Distance(a, b Coordinate) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}

	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c, nil
}
