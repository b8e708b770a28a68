package eligibility

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hadirku/hadirku-backend/internal/geo"
	"github.com/hadirku/hadirku-backend/internal/model"
)

var testDay = time.Date(2026, 3, 9, 0, 0, 0, 0, time.Local)

// newSession builds an open 08:00–10:00 session centered at (21, 105) with a
// 400 m radius on testDay.
func newSession() *model.AttendanceSession {
	return &model.AttendanceSession{
		ID:        uuid.New(),
		CourseID:  uuid.New(),
		Date:      testDay,
		StartTime: "08:00",
		EndTime:   "10:00",
		IsOpen:    true,
		ClassLocation: model.ClassLocation{
			ID:           uuid.New(),
			Name:         "Lab Komputer 1",
			Coordinate:   geo.Coordinate{Latitude: 21.0000, Longitude: 105.0000},
			RadiusMeters: 400,
		},
	}
}

// at resolves "HH:MM" or "HH:MM:SS" on testDay.
func at(clock string) time.Time {
	t, err := time.Parse("15:04:05", clock)
	if err != nil {
		t, err = time.Parse("15:04", clock)
		if err != nil {
			panic(err)
		}
	}
	return time.Date(testDay.Year(), testDay.Month(), testDay.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local)
}

func coord(lat, lon float64) *geo.Coordinate {
	return &geo.Coordinate{Latitude: lat, Longitude: lon}
}

func TestEvaluateDecisionOrder(t *testing.T) {
	inRange := coord(21.0010, 105.0000)  // ~111 m
	outRange := coord(21.0050, 105.0000) // ~556 m

	checked := &model.AttendanceRecord{HasCheckedIn: true}

	tests := []struct {
		name   string
		mutate func(*model.AttendanceSession)
		record *model.AttendanceRecord
		now    time.Time
		device *geo.Coordinate
		want   ReasonCode
	}{
		{
			name:   "already checked in wins over everything",
			mutate: func(s *model.AttendanceSession) { s.IsOpen = false },
			record: checked,
			now:    at("07:00"),
			device: outRange,
			want:   ReasonAlreadyCheckedIn,
		},
		{
			name:   "wrong day",
			mutate: func(s *model.AttendanceSession) { s.Date = testDay.AddDate(0, 0, 1) },
			now:    at("09:00"),
			device: inRange,
			want:   ReasonNotToday,
		},
		{
			name:   "closed session beats out of range",
			mutate: func(s *model.AttendanceSession) { s.IsOpen = false },
			now:    at("09:00"),
			device: outRange,
			want:   ReasonSessionClosed,
		},
		{
			name:   "too early",
			now:    at("07:59"),
			device: inRange,
			want:   ReasonTooEarly,
		},
		{
			name:   "start boundary is inclusive",
			now:    at("08:00:00"),
			device: inRange,
			want:   ReasonCanAttend,
		},
		{
			name:   "end boundary is inclusive",
			now:    at("10:00:00"),
			device: inRange,
			want:   ReasonCanAttend,
		},
		{
			name:   "one second past end is too late",
			now:    at("10:00:01"),
			device: inRange,
			want:   ReasonTooLate,
		},
		{
			name:   "late allowed but zero grace is still strict",
			mutate: func(s *model.AttendanceSession) { s.AllowLateCheckIn = true },
			now:    at("10:00:01"),
			device: inRange,
			want:   ReasonTooLate,
		},
		{
			name:   "missing device location",
			now:    at("09:00"),
			device: nil,
			want:   ReasonLocationUnavailable,
		},
		{
			name:   "out of range",
			now:    at("09:00"),
			device: outRange,
			want:   ReasonOutOfRange,
		},
		{
			name:   "in range",
			now:    at("09:00"),
			device: inRange,
			want:   ReasonCanAttend,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession()
			if tt.mutate != nil {
				tt.mutate(s)
			}
			v, err := Evaluate(s, tt.record, tt.now, tt.device, Options{})
			if err != nil {
				t.Fatal(err)
			}
			if v.Reason != tt.want {
				t.Errorf("reason = %s, want %s", v.Reason, tt.want)
			}
			if v.CanAttend != (tt.want == ReasonCanAttend) {
				t.Errorf("can_attend = %v for reason %s", v.CanAttend, v.Reason)
			}
		})
	}
}

func TestEvaluateDistances(t *testing.T) {
	s := newSession()

	v, err := Evaluate(s, nil, at("09:00"), coord(21.0010, 105.0000), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if v.Reason != ReasonCanAttend || v.DistanceMeters == nil {
		t.Fatalf("verdict = %+v, want CanAttend with distance", v)
	}
	if math.Abs(*v.DistanceMeters-111) > 5 {
		t.Errorf("distance = %.1f m, want ≈111 m", *v.DistanceMeters)
	}

	v, err = Evaluate(s, nil, at("09:00"), coord(21.0050, 105.0000), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if v.Reason != ReasonOutOfRange || v.DistanceMeters == nil {
		t.Fatalf("verdict = %+v, want OutOfRange with distance", v)
	}
	if math.Abs(*v.DistanceMeters-556) > 10 {
		t.Errorf("distance = %.1f m, want ≈556 m", *v.DistanceMeters)
	}
}

func TestEvaluateLateGraceWindow(t *testing.T) {
	s := newSession()
	s.AllowLateCheckIn = true
	opts := Options{LateGrace: 15 * time.Minute}
	inRange := coord(21.0010, 105.0000)

	v, err := Evaluate(s, nil, at("10:10"), inRange, opts)
	if err != nil {
		t.Fatal(err)
	}
	if v.Reason != ReasonCanAttend {
		t.Errorf("within grace: reason = %s, want CAN_ATTEND", v.Reason)
	}

	v, err = Evaluate(s, nil, at("10:16"), inRange, opts)
	if err != nil {
		t.Fatal(err)
	}
	if v.Reason != ReasonTooLate {
		t.Errorf("past grace: reason = %s, want TOO_LATE", v.Reason)
	}

	// Grace never applies when the session forbids late check-in.
	s.AllowLateCheckIn = false
	v, err = Evaluate(s, nil, at("10:10"), inRange, opts)
	if err != nil {
		t.Fatal(err)
	}
	if v.Reason != ReasonTooLate {
		t.Errorf("late forbidden: reason = %s, want TOO_LATE", v.Reason)
	}
}

func TestEvaluateMaxDistanceOverride(t *testing.T) {
	s := newSession()
	override := 50.0
	s.MaxDistanceOverride = &override

	// ~111 m: inside the location radius (400) but outside the override (50).
	v, err := Evaluate(s, nil, at("09:00"), coord(21.0010, 105.0000), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if v.Reason != ReasonOutOfRange {
		t.Errorf("reason = %s, want OUT_OF_RANGE with 50 m override", v.Reason)
	}
}

func TestEvaluateDeterminism(t *testing.T) {
	s := newSession()
	now := at("09:00")
	device := coord(21.0010, 105.0000)

	first, err := Evaluate(s, nil, now, device, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		v, err := Evaluate(s, nil, now, device, Options{})
		if err != nil {
			t.Fatal(err)
		}
		if v.Reason != first.Reason || v.CanAttend != first.CanAttend || *v.DistanceMeters != *first.DistanceMeters {
			t.Fatalf("call %d returned %+v, first call returned %+v", i, v, first)
		}
	}
}

func TestEvaluateInvalidDeviceCoordinate(t *testing.T) {
	s := newSession()
	if _, err := Evaluate(s, nil, at("09:00"), coord(120, 105), Options{}); err == nil {
		t.Error("expected error for latitude 120, got nil")
	}
}
