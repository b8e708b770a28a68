package eligibility

import (
	"fmt"
	"time"

	"github.com/hadirku/hadirku-backend/internal/geo"
	"github.com/hadirku/hadirku-backend/internal/model"
)

// Options tunes evaluation behavior.
type Options struct {
	// LateGrace extends the check-in window past the session end time when
	// the session allows late check-in. Zero means strict: TooLate applies
	// exactly at the end time even for late-friendly sessions.
	LateGrace time.Duration
}

// Evaluate decides whether a check-in may proceed for the given session,
// existing record (nil if none), current time and device location (nil if
// unavailable). It is pure: no I/O, no hidden state, deterministic for a
// fixed input tuple.
//
// Checks run in a fixed order so the user always sees the most relevant
// rejection: duplicate, then date, then administrative open/closed, then the
// time window, and only then location. A student far away from a closed
// session is told the session is closed, not that they are out of range.
//
// An error is returned only for programmer-error-class input: out-of-range
// coordinates or a malformed session time window.
func Evaluate(session *model.AttendanceSession, record *model.AttendanceRecord, now time.Time, device *geo.Coordinate, opts Options) (Verdict, error) {
	if record != nil && record.HasCheckedIn {
		return Verdict{Reason: ReasonAlreadyCheckedIn}, nil
	}

	y1, m1, d1 := now.Date()
	y2, m2, d2 := session.Date.Date()
	if y1 != y2 || m1 != m2 || d1 != d2 {
		return Verdict{Reason: ReasonNotToday}, nil
	}

	if !session.IsOpen {
		return Verdict{Reason: ReasonSessionClosed}, nil
	}

	start, end, err := session.Window(now.Location())
	if err != nil {
		return Verdict{}, fmt.Errorf("session window: %w", err)
	}

	// Start boundary is inclusive.
	if now.Before(start) {
		return Verdict{Reason: ReasonTooEarly}, nil
	}

	if now.After(end) {
		if !session.AllowLateCheckIn || now.After(end.Add(opts.LateGrace)) {
			return Verdict{Reason: ReasonTooLate}, nil
		}
		// Late check-in permitted within the grace window: fall through to
		// the spatial check.
	}

	if device == nil {
		return Verdict{Reason: ReasonLocationUnavailable}, nil
	}

	d, err := geo.Distance(*device, session.ClassLocation.Coordinate)
	if err != nil {
		return Verdict{}, err
	}

	if d > session.EffectiveRadius() {
		return Verdict{Reason: ReasonOutOfRange, DistanceMeters: &d}, nil
	}

	return Verdict{CanAttend: true, Reason: ReasonCanAttend, DistanceMeters: &d}, nil
}
