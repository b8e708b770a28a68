package location

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hadirku/hadirku-backend/internal/geo"
)

// DefaultFallbackTimeout bounds the automatic low-accuracy retry after a
// high-accuracy attempt fails.
const DefaultFallbackTimeout = 8 * time.Second

// Controller wraps a platform location Provider with permission negotiation,
// bounded single-shot acquisition with accuracy fallback, and idempotent
// continuous-watch semantics. It is safe for concurrent use.
type Controller struct {
	provider        Provider
	fallbackTimeout time.Duration
	log             zerolog.Logger

	mu         sync.Mutex
	permission PermissionStatus
	lastKnown  *geo.Coordinate
	watch      *WatchHandle
}

// NewController creates a Controller. fallbackTimeout bounds the automatic
// low-accuracy retry; values <= 0 use DefaultFallbackTimeout.
func NewController(provider Provider, fallbackTimeout time.Duration, log zerolog.Logger) *Controller {
	if fallbackTimeout <= 0 {
		fallbackTimeout = DefaultFallbackTimeout
	}
	return &Controller{
		provider:        provider,
		fallbackTimeout: fallbackTimeout,
		log:             log.With().Str("component", "location_controller").Logger(),
		permission:      PermissionUnrequested,
	}
}

// Permission returns the current permission state.
func (c *Controller) Permission() PermissionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.permission
}

// RequestPermission negotiates platform permission. Once the state is
// PermanentlyDenied the platform is never re-prompted: the caller receives
// ErrPermissionPermanentlyDenied and should direct the user to system
// settings instead.
func (c *Controller) RequestPermission(ctx context.Context) (PermissionStatus, error) {
	c.mu.Lock()
	switch c.permission {
	case PermissionGranted:
		c.mu.Unlock()
		return PermissionGranted, nil
	case PermissionPermanentlyDenied:
		c.mu.Unlock()
		return PermissionPermanentlyDenied, ErrPermissionPermanentlyDenied
	}
	c.permission = PermissionRequesting
	c.mu.Unlock()

	status, err := c.provider.RequestPermission(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.permission = PermissionDenied
		return PermissionDenied, err
	}
	c.permission = status

	switch status {
	case PermissionGranted:
		return status, nil
	case PermissionPermanentlyDenied:
		return status, ErrPermissionPermanentlyDenied
	default:
		return status, ErrPermissionDenied
	}
}

// Current performs a single-shot acquisition bounded by timeout. When a
// high-accuracy attempt times out or the position is unavailable (GPS often
// fails indoors), the controller retries exactly once with low accuracy and
// the shorter fallback timeout before surfacing the failure. The returned
// error is always one of the typed errors in this package.
func (c *Controller) Current(ctx context.Context, highAccuracy bool, timeout time.Duration) (*geo.Coordinate, error) {
	if _, err := c.RequestPermission(ctx); err != nil {
		return nil, err
	}

	coord, err := c.acquire(ctx, highAccuracy, timeout)
	if err != nil && highAccuracy &&
		(errors.Is(err, ErrTimeout) || errors.Is(err, ErrPositionUnavailable)) {
		c.log.Debug().Err(err).Msg("High-accuracy fix failed, retrying with low accuracy")
		coord, err = c.acquire(ctx, false, c.fallbackTimeout)
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.lastKnown = coord
	c.mu.Unlock()
	return coord, nil
}

func (c *Controller) acquire(ctx context.Context, highAccuracy bool, timeout time.Duration) (*geo.Coordinate, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	coord, err := c.provider.CurrentPosition(acquireCtx, highAccuracy)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, err
	}
	if err := coord.Validate(); err != nil {
		return nil, err
	}
	return &coord, nil
}

// LastKnown returns the most recently acquired coordinate, or nil. Callers
// that tolerate stale data may use it after an acquisition failure.
func (c *Controller) LastKnown() *geo.Coordinate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastKnown
}

// WatchHandle represents an active continuous watch. Only the most recent
// coordinate is retained; listeners receive updates in emission order until
// the handle is stopped.
type WatchHandle struct {
	controller *Controller
	stopFn     func()

	mu        sync.Mutex
	stopped   bool
	latest    *geo.Coordinate
	listeners []func(geo.Coordinate)
}

// Latest returns the most recent coordinate seen by the watch, or nil.
func (h *WatchHandle) Latest() *geo.Coordinate {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// Subscribe registers a listener for subsequent updates. Listeners added
// after StopWatch never fire.
func (h *WatchHandle) Subscribe(fn func(geo.Coordinate)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.listeners = append(h.listeners, fn)
}

// deliver routes one provider emission to listeners. The stopped guard makes
// late platform callbacks no-ops once StopWatch has run.
func (h *WatchHandle) deliver(coord geo.Coordinate) {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.latest = &coord
	listeners := make([]func(geo.Coordinate), len(h.listeners))
	copy(listeners, h.listeners)
	h.mu.Unlock()

	h.controller.mu.Lock()
	h.controller.lastKnown = &coord
	h.controller.mu.Unlock()

	for _, fn := range listeners {
		fn(coord)
	}
}

// StartWatch begins continuous updates. The active watch is a single
// process-wide resource: calling StartWatch while a watch is active returns
// the existing handle instead of creating a second platform subscription.
func (c *Controller) StartWatch(ctx context.Context, highAccuracy bool) (*WatchHandle, error) {
	if _, err := c.RequestPermission(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.watch != nil {
		h := c.watch
		c.mu.Unlock()
		return h, nil
	}
	h := &WatchHandle{controller: c}
	c.watch = h
	c.mu.Unlock()

	stop, err := c.provider.Watch(ctx, highAccuracy, h.deliver)
	if err != nil {
		c.mu.Lock()
		if c.watch == h {
			c.watch = nil
		}
		c.mu.Unlock()
		return nil, err
	}
	h.mu.Lock()
	h.stopFn = stop
	stoppedEarly := h.stopped
	h.mu.Unlock()
	if stoppedEarly {
		// StopWatch ran while the platform subscription was being created.
		stop()
	}
	return h, nil
}

// StopWatch tears down a watch. It always succeeds, including when the
// underlying platform watch already ended or the handle was stopped before.
func (c *Controller) StopWatch(h *WatchHandle) {
	if h == nil {
		return
	}

	h.mu.Lock()
	alreadyStopped := h.stopped
	h.stopped = true
	h.listeners = nil
	stop := h.stopFn
	h.mu.Unlock()

	c.mu.Lock()
	if c.watch == h {
		c.watch = nil
	}
	c.mu.Unlock()

	if !alreadyStopped && stop != nil {
		stop()
	}
}
