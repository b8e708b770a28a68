package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/hadirku/hadirku-backend/internal/checkin"
	"github.com/hadirku/hadirku-backend/internal/config"
	"github.com/hadirku/hadirku-backend/internal/geo"
	"github.com/hadirku/hadirku-backend/internal/location"
	"github.com/hadirku/hadirku-backend/internal/logger"
)

// Drives the device-side check-in workflow against a running server:
// fixed-coordinate provider in place of a platform GPS, the real location
// controller, orchestrator and HTTP repository. Useful for exercising a
// deployment end to end without a phone.
func main() {
	var (
		baseURL   = flag.String("base-url", "http://localhost:8080/api/v1", "server base URL (including /api/v1)")
		token     = flag.String("token", "", "student JWT (required)")
		sessionID = flag.String("session", "", "attendance session ID (required)")
		lat       = flag.Float64("lat", 0, "device latitude")
		lon       = flag.Float64("lon", 0, "device longitude")
		accuracy  = flag.Float64("accuracy", 10, "reported accuracy in meters")
	)
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if *token == "" || *sessionID == "" {
		flag.Usage()
		os.Exit(2)
	}

	id, err := uuid.Parse(*sessionID)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid session ID")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	provider := &fixedProvider{coord: geo.Coordinate{
		Latitude:  *lat,
		Longitude: *lon,
		Accuracy:  *accuracy,
	}}

	controller := location.NewController(provider, cfg.LocationFallbackTimeout, log)
	if _, err := controller.RequestPermission(ctx); err != nil {
		log.Fatal().Err(err).Msg("Location permission denied")
	}

	repo := checkin.NewHTTPSessionRepository(*baseURL, *token, &http.Client{Timeout: 15 * time.Second})
	orchestrator := checkin.NewOrchestrator(repo, controller, time.Now, checkin.Options{
		AcquireTimeout: cfg.LocationTimeout,
		LateGrace:      cfg.LateGrace,
	}, log)

	record, checkInErr := orchestrator.PerformCheckIn(ctx, id)
	if checkInErr != nil {
		fmt.Printf("Check-in rejected [%s]: %s\n", checkInErr.Code, checkInErr.Message)
		if checkInErr.DistanceMeters != nil {
			fmt.Printf("Measured distance: %.0f m\n", *checkInErr.DistanceMeters)
		}
		os.Exit(1)
	}

	fmt.Printf("Checked in: status=%s method=%s", record.Status, record.CheckInMethod)
	if record.DistanceFromLocation != nil {
		fmt.Printf(" distance=%.0fm", *record.DistanceFromLocation)
	}
	fmt.Println()
}

// fixedProvider satisfies location.Provider with a constant coordinate.
type fixedProvider struct {
	coord geo.Coordinate
}

func (p *fixedProvider) RequestPermission(ctx context.Context) (location.PermissionStatus, error) {
	return location.PermissionGranted, nil
}

func (p *fixedProvider) CurrentPosition(ctx context.Context, highAccuracy bool) (geo.Coordinate, error) {
	return p.coord, nil
}

func (p *fixedProvider) Watch(ctx context.Context, highAccuracy bool, emit func(geo.Coordinate)) (func(), error) {
	emit(p.coord)
	return func() {}, nil
}
