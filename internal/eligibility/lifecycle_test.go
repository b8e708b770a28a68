package eligibility

import (
	"testing"

	"github.com/hadirku/hadirku-backend/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.AttendanceSession)
		now    string
		want   model.SessionState
	}{
		{"before start", nil, "07:30", model.SessionStateScheduled},
		{"before start while flagged closed", func(s *model.AttendanceSession) { s.IsOpen = false }, "07:30", model.SessionStateScheduled},
		{"within window and open", nil, "09:00", model.SessionStateOpen},
		{"within window but closed", func(s *model.AttendanceSession) { s.IsOpen = false }, "09:00", model.SessionStateClosed},
		{"past end", nil, "10:01", model.SessionStateExpired},
		{"past end still flagged open", nil, "11:00", model.SessionStateExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession()
			if tt.mutate != nil {
				tt.mutate(s)
			}
			got, err := Classify(s, at(tt.now))
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Classify = %s, want %s", got, tt.want)
			}
		})
	}
}

// A reopened expired session classifies as expired and still fails the
// evaluator's time check: administrative open is separate from temporal
// eligibility.
func TestClassifyReopenedExpiredSessionStillRejectsCheckIn(t *testing.T) {
	s := newSession()
	s.IsOpen = true
	now := at("11:00")

	state, err := Classify(s, now)
	if err != nil {
		t.Fatal(err)
	}
	if state != model.SessionStateExpired {
		t.Fatalf("state = %s, want EXPIRED", state)
	}

	v, err := Evaluate(s, nil, now, coord(21.0010, 105.0000), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if v.Reason != ReasonTooLate {
		t.Errorf("reason = %s, want TOO_LATE", v.Reason)
	}
}
