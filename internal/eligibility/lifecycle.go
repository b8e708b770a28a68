package eligibility

import (
	"fmt"
	"time"

	"github.com/hadirku/hadirku-backend/internal/model"
)

// Classify derives the lifecycle state of a session at the given time. It
// never schedules transitions itself; the IsOpen flag is toggled externally
// by the teacher and the state is recomputed on every read.
//
// Expired is terminal for check-in purposes: a teacher may flip IsOpen back
// to true on an expired session (administrative open is separate from
// temporal eligibility), but Evaluate still rejects check-ins via the time
// check.
func Classify(session *model.AttendanceSession, now time.Time) (model.SessionState, error) {
	start, end, err := session.Window(now.Location())
	if err != nil {
		return "", fmt.Errorf("session window: %w", err)
	}

	switch {
	case now.After(end):
		return model.SessionStateExpired, nil
	case now.Before(start):
		return model.SessionStateScheduled, nil
	case session.IsOpen:
		return model.SessionStateOpen, nil
	default:
		return model.SessionStateClosed, nil
	}
}
