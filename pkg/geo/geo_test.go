package geo

import (
	"math"
	"testing"

	"github.com/nikhil/fleetdispatch/internal/model"
)

func TestHaversineKm_SamePoint(t *testing.T) {
	loc := model.Location{Lat: 28.7041, Lon: 77.1025}
	got := HaversineKm(loc, loc)
	if got != 0 {
		t.Errorf("HaversineKm(same point) = %v, want 0", got)
	}
}

func TestHaversineKm_KnownDistance(t *testing.T) {
	// Connaught Place to IGI Airport (~16.5 km)
	connaught := model.Location{Lat: 28.6315, Lon: 77.2167}
	igi := model.Location{Lat: 28.5562, Lon: 77.0889}
	got := HaversineKm(connaught, igi)
	wantMin, wantMax := 14.0, 20.0
	if got < wantMin || got > wantMax {
		t.Errorf("HaversineKm(Connaught→IGI) = %.2f km, want between %.1f and %.1f", got, wantMin, wantMax)
	}
}

func TestRoadDistance(t *testing.T) {
	a := model.Location{Lat: 28.6315, Lon: 77.2167}
	b := model.Location{Lat: 28.5562, Lon: 77.0889}

	dist := RoadDistance(1.3)
	got := dist(a, b)
	want := Round2(HaversineKm(a, b) * 1.3)
	if got != want {
		t.Errorf("RoadDistance(1.3) = %v, want %v", got, want)
	}
	if got != Round2(got) {
		t.Errorf("RoadDistance not rounded to two decimals: %v", got)
	}
}

func TestTravelMinutes(t *testing.T) {
	if got := TravelMinutes(40, 40); got != 60 {
		t.Errorf("TravelMinutes(40 km, 40 km/h) = %v, want 60", got)
	}
	if got := TravelMinutes(10, 40); got != 15 {
		t.Errorf("TravelMinutes(10 km, 40 km/h) = %v, want 15", got)
	}
	if got := TravelMinutes(10, 0); got != 0 {
		t.Errorf("TravelMinutes with zero speed = %v, want 0", got)
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(11.111); got != 11.11 {
		t.Errorf("Round2(11.111) = %v, want 11.11", got)
	}
	if got := Round2(11.116); math.Abs(got-11.12) > 1e-9 {
		t.Errorf("Round2(11.116) = %v, want 11.12", got)
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"06:00", 360, true},
		{"19:00", 1140, true},
		{"8:05", 485, true},
		{"00:00", 0, true},
		{"23:59", 1439, true},
		{"25:00", 0, false},
		{"12:75", 0, false},
		{"abc", 0, false},
	}
	for _, c := range cases {
		got, err := ParseClock(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Errorf("ParseClock(%q) = %d, %v; want %d", c.in, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Errorf("ParseClock(%q) = %d, want error", c.in, got)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(485); got != "08:05" {
		t.Errorf("FormatClock(485) = %q, want \"08:05\"", got)
	}
	if got := FormatClock(1140); got != "19:00" {
		t.Errorf("FormatClock(1140) = %q, want \"19:00\"", got)
	}
}
