package location

import (
	"context"
	"errors"

	"github.com/hadirku/hadirku-backend/internal/geo"
)

// Typed acquisition errors. Callers branch on these with errors.Is; none of
// them is ever raised as a panic.
var (
	ErrPermissionDenied            = errors.New("location permission denied")
	ErrPermissionPermanentlyDenied = errors.New("location permission permanently denied, open system settings")
	ErrPositionUnavailable         = errors.New("position unavailable")
	ErrTimeout                     = errors.New("location acquisition timed out")
	ErrWatchStopped                = errors.New("location watch stopped")
)

// PermissionStatus tracks the platform permission state machine:
// Unrequested → Requesting → {Granted, Denied, PermanentlyDenied}.
type PermissionStatus string

const (
	PermissionUnrequested       PermissionStatus = "UNREQUESTED"
	PermissionRequesting        PermissionStatus = "REQUESTING"
	PermissionGranted           PermissionStatus = "GRANTED"
	PermissionDenied            PermissionStatus = "DENIED"
	PermissionPermanentlyDenied PermissionStatus = "PERMANENTLY_DENIED"
)

// Provider abstracts the platform geolocation API. On Android an
// implementation requests both fine and coarse location; on iOS "when in
// use". Implementations must honor ctx cancellation and return the typed
// errors above.
type Provider interface {
	// RequestPermission prompts the user and reports the resulting state.
	RequestPermission(ctx context.Context) (PermissionStatus, error)

	// CurrentPosition blocks until a fix is available or ctx expires.
	CurrentPosition(ctx context.Context, highAccuracy bool) (geo.Coordinate, error)

	// Watch starts continuous updates, invoking emit for each reading until
	// the returned stop function is called. stop must be safe to call more
	// than once and after the watch has already ended.
	Watch(ctx context.Context, highAccuracy bool, emit func(geo.Coordinate)) (stop func(), err error)
}
