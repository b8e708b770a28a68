package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hadirku/hadirku-backend/internal/geo"
)

// fakeProvider scripts permission and position responses and counts calls.
type fakeProvider struct {
	permissionResult PermissionStatus
	permissionCalls  int

	// positionResults is consumed per CurrentPosition call; the bool selects
	// error vs coordinate.
	positionResults []positionResult
	positionCalls   []bool // highAccuracy flag per call

	watchCalls int
	watchEmit  func(geo.Coordinate)
	stopCalls  int
}

type positionResult struct {
	coord geo.Coordinate
	err   error
}

func (f *fakeProvider) RequestPermission(ctx context.Context) (PermissionStatus, error) {
	f.permissionCalls++
	return f.permissionResult, nil
}

func (f *fakeProvider) CurrentPosition(ctx context.Context, highAccuracy bool) (geo.Coordinate, error) {
	f.positionCalls = append(f.positionCalls, highAccuracy)
	if len(f.positionResults) == 0 {
		return geo.Coordinate{}, ErrPositionUnavailable
	}
	r := f.positionResults[0]
	f.positionResults = f.positionResults[1:]
	return r.coord, r.err
}

func (f *fakeProvider) Watch(ctx context.Context, highAccuracy bool, emit func(geo.Coordinate)) (func(), error) {
	f.watchCalls++
	f.watchEmit = emit
	return func() { f.stopCalls++ }, nil
}

func newTestController(p *fakeProvider) *Controller {
	return NewController(p, 2*time.Second, zerolog.Nop())
}

func TestCurrentHighAccuracyFallback(t *testing.T) {
	want := geo.Coordinate{Latitude: 21.001, Longitude: 105.0, Accuracy: 35}
	p := &fakeProvider{
		permissionResult: PermissionGranted,
		positionResults: []positionResult{
			{err: ErrTimeout},
			{coord: want},
		},
	}
	c := newTestController(p)

	got, err := c.Current(context.Background(), true, 18*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if *got != want {
		t.Errorf("coordinate = %+v, want %+v", got, want)
	}

	if len(p.positionCalls) != 2 {
		t.Fatalf("position calls = %d, want 2 (high then low)", len(p.positionCalls))
	}
	if !p.positionCalls[0] || p.positionCalls[1] {
		t.Errorf("accuracy sequence = %v, want [true false]", p.positionCalls)
	}

	if last := c.LastKnown(); last == nil || *last != want {
		t.Errorf("LastKnown = %v, want %+v", last, want)
	}
}

func TestCurrentFallbackExhausted(t *testing.T) {
	p := &fakeProvider{
		permissionResult: PermissionGranted,
		positionResults: []positionResult{
			{err: ErrPositionUnavailable},
			{err: ErrPositionUnavailable},
		},
	}
	c := newTestController(p)

	coord, err := c.Current(context.Background(), true, 18*time.Second)
	if coord != nil {
		t.Errorf("coordinate = %+v, want nil on failure", coord)
	}
	if !errors.Is(err, ErrPositionUnavailable) {
		t.Errorf("err = %v, want ErrPositionUnavailable", err)
	}
	if len(p.positionCalls) != 2 {
		t.Errorf("position calls = %d, want exactly 2 (one retry only)", len(p.positionCalls))
	}
}

func TestCurrentLowAccuracyDoesNotRetry(t *testing.T) {
	p := &fakeProvider{
		permissionResult: PermissionGranted,
		positionResults:  []positionResult{{err: ErrTimeout}},
	}
	c := newTestController(p)

	if _, err := c.Current(context.Background(), false, 5*time.Second); !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
	if len(p.positionCalls) != 1 {
		t.Errorf("position calls = %d, want 1", len(p.positionCalls))
	}
}

func TestPermissionStateMachine(t *testing.T) {
	p := &fakeProvider{permissionResult: PermissionGranted}
	c := newTestController(p)

	if got := c.Permission(); got != PermissionUnrequested {
		t.Fatalf("initial permission = %s, want UNREQUESTED", got)
	}

	status, err := c.RequestPermission(context.Background())
	if err != nil || status != PermissionGranted {
		t.Fatalf("RequestPermission = %s, %v", status, err)
	}

	// Granted is sticky: no second platform prompt.
	c.RequestPermission(context.Background())
	if p.permissionCalls != 1 {
		t.Errorf("permission prompts = %d, want 1", p.permissionCalls)
	}
}

func TestPermanentlyDeniedNeverReprompts(t *testing.T) {
	p := &fakeProvider{permissionResult: PermissionPermanentlyDenied}
	c := newTestController(p)

	status, err := c.RequestPermission(context.Background())
	if status != PermissionPermanentlyDenied || !errors.Is(err, ErrPermissionPermanentlyDenied) {
		t.Fatalf("RequestPermission = %s, %v", status, err)
	}

	for i := 0; i < 3; i++ {
		status, err = c.RequestPermission(context.Background())
		if status != PermissionPermanentlyDenied || !errors.Is(err, ErrPermissionPermanentlyDenied) {
			t.Fatalf("call %d: status = %s, err = %v", i, status, err)
		}
	}
	if p.permissionCalls != 1 {
		t.Errorf("permission prompts = %d, want 1 (no re-prompt)", p.permissionCalls)
	}

	// Acquisition surfaces the typed error, never a coordinate.
	coord, err := c.Current(context.Background(), true, time.Second)
	if coord != nil || !errors.Is(err, ErrPermissionPermanentlyDenied) {
		t.Errorf("Current = %v, %v", coord, err)
	}
	if len(p.positionCalls) != 0 {
		t.Errorf("position calls = %d, want 0 without permission", len(p.positionCalls))
	}
}

func TestStartWatchIdempotent(t *testing.T) {
	p := &fakeProvider{permissionResult: PermissionGranted}
	c := newTestController(p)

	h1, err := c.StartWatch(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := c.StartWatch(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}

	if h1 != h2 {
		t.Error("second StartWatch returned a different handle")
	}
	if p.watchCalls != 1 {
		t.Errorf("platform subscriptions = %d, want 1", p.watchCalls)
	}
}

func TestWatchDeliversLatest(t *testing.T) {
	p := &fakeProvider{permissionResult: PermissionGranted}
	c := newTestController(p)

	h, err := c.StartWatch(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}

	var seen []geo.Coordinate
	h.Subscribe(func(coord geo.Coordinate) { seen = append(seen, coord) })

	first := geo.Coordinate{Latitude: 21.001, Longitude: 105}
	second := geo.Coordinate{Latitude: 21.002, Longitude: 105}
	p.watchEmit(first)
	p.watchEmit(second)

	if len(seen) != 2 || seen[0] != first || seen[1] != second {
		t.Errorf("updates = %v, want emission order [first second]", seen)
	}
	if latest := h.Latest(); latest == nil || *latest != second {
		t.Errorf("Latest = %v, want most recent coordinate", latest)
	}
	if last := c.LastKnown(); last == nil || *last != second {
		t.Errorf("LastKnown = %v, want most recent coordinate", last)
	}
}

func TestStopWatchGuardsLateCallbacks(t *testing.T) {
	p := &fakeProvider{permissionResult: PermissionGranted}
	c := newTestController(p)

	h, err := c.StartWatch(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}

	delivered := 0
	h.Subscribe(func(geo.Coordinate) { delivered++ })
	p.watchEmit(geo.Coordinate{Latitude: 21, Longitude: 105})

	c.StopWatch(h)

	// A platform emission racing the stop must be a no-op.
	p.watchEmit(geo.Coordinate{Latitude: 22, Longitude: 106})

	if delivered != 1 {
		t.Errorf("deliveries = %d, want 1 (none after stop)", delivered)
	}
	if p.stopCalls != 1 {
		t.Errorf("stop calls = %d, want 1", p.stopCalls)
	}

	// Stopping again, or stopping after the platform watch ended, succeeds.
	c.StopWatch(h)
	c.StopWatch(nil)
	if p.stopCalls != 1 {
		t.Errorf("stop calls after repeat = %d, want 1", p.stopCalls)
	}

	// A new watch after stop creates a fresh subscription.
	h2, err := c.StartWatch(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if h2 == h {
		t.Error("StartWatch after stop returned the stopped handle")
	}
	if p.watchCalls != 2 {
		t.Errorf("platform subscriptions = %d, want 2", p.watchCalls)
	}
}
