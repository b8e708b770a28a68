package geo

import (
	"errors"
	"math"
	"testing"
)

func TestDistanceIdentity(t *testing.T) {
	points := []Coordinate{
		{Latitude: 0, Longitude: 0},
		{Latitude: 21.0278, Longitude: 105.8342},
		{Latitude: -33.8688, Longitude: 151.2093},
		{Latitude: 89.9, Longitude: -179.9},
	}

	for _, p := range points {
		d, err := Distance(p, p)
		if err != nil {
			t.Fatalf("Distance(%v, %v): %v", p, p, err)
		}
		if d != 0 {
			t.Errorf("Distance(p, p) = %f, want 0", d)
		}
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := Coordinate{Latitude: 21.0278, Longitude: 105.8342}
	b := Coordinate{Latitude: 21.0285, Longitude: 105.8401}

	ab, err := Distance(a, b)
	if err != nil {
		t.Fatal(err)
	}
	ba, err := Distance(b, a)
	if err != nil {
		t.Fatal(err)
	}

	// Tolerance ±0.01% for floating-point asymmetry.
	if diff := math.Abs(ab - ba); diff > ab*0.0001 {
		t.Errorf("asymmetric distance: ab=%f ba=%f", ab, ba)
	}
}

func TestDistanceKnownFixtures(t *testing.T) {
	tests := []struct {
		name string
		a, b Coordinate
		want float64 // meters
	}{
		{
			// 0.0036° of latitude ≈ 400 m.
			name: "400m north offset",
			a:    Coordinate{Latitude: 21.0000, Longitude: 105.0000},
			b:    Coordinate{Latitude: 21.0036, Longitude: 105.0000},
			want: 400,
		},
		{
			name: "111m north offset",
			a:    Coordinate{Latitude: 21.0000, Longitude: 105.0000},
			b:    Coordinate{Latitude: 21.0010, Longitude: 105.0000},
			want: 111,
		},
		{
			name: "556m north offset",
			a:    Coordinate{Latitude: 21.0000, Longitude: 105.0000},
			b:    Coordinate{Latitude: 21.0050, Longitude: 105.0000},
			want: 556,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Distance(tt.a, tt.b)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > tt.want*0.01 {
				t.Errorf("Distance = %.2f m, want %.2f m ±1%%", got, tt.want)
			}
		})
	}
}

func TestDistanceInvalidCoordinate(t *testing.T) {
	valid := Coordinate{Latitude: 21, Longitude: 105}
	tests := []struct {
		name string
		bad  Coordinate
	}{
		{"latitude too high", Coordinate{Latitude: 90.1, Longitude: 0}},
		{"latitude too low", Coordinate{Latitude: -90.1, Longitude: 0}},
		{"longitude too high", Coordinate{Latitude: 0, Longitude: 180.1}},
		{"longitude too low", Coordinate{Latitude: 0, Longitude: -180.1}},
		{"negative accuracy", Coordinate{Latitude: 0, Longitude: 0, Accuracy: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Distance(valid, tt.bad); !errors.Is(err, ErrInvalidCoordinate) {
				t.Errorf("Distance(valid, %v) err = %v, want ErrInvalidCoordinate", tt.bad, err)
			}
			if _, err := Distance(tt.bad, valid); !errors.Is(err, ErrInvalidCoordinate) {
				t.Errorf("Distance(%v, valid) err = %v, want ErrInvalidCoordinate", tt.bad, err)
			}
		})
	}
}
