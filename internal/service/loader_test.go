package service

import (
	"math/rand"
	"testing"

	"github.com/nikhil/fleetdispatch/internal/model"
)

func instantBooking(id int64, pickupTime int) *model.Booking {
	b := testBooking(id, 1, model.Location{Lon: 0.1}, model.Location{Lon: 0.2}, pickupTime, 10)
	b.Origin = model.OriginInstant
	return b
}

func TestLoader_LoadTimeWindow(t *testing.T) {
	p := DefaultParams()
	l := NewInstantLoader([]*model.Booking{instantBooking(1, 480)}, p, rand.New(rand.NewSource(1)))

	// pickup 08:00 → load time in [06:00, 07:00].
	got, ok := l.LoadTime(1)
	if !ok {
		t.Fatalf("no load time drawn for booking 1")
	}
	if got < 360 || got > 420 {
		t.Errorf("load time = %d, want in [360, 420]", got)
	}
}

func TestLoader_CollapsedWindow(t *testing.T) {
	p := DefaultParams()
	l := NewInstantLoader([]*model.Booking{instantBooking(1, 390)}, p, rand.New(rand.NewSource(1)))

	// pickup 06:30: latest (05:30) ≤ earliest (06:00) → load at day start.
	if got, _ := l.LoadTime(1); got != 360 {
		t.Errorf("load time = %d, want 360 for a collapsed window", got)
	}
}

func TestLoader_SeedDeterminism(t *testing.T) {
	p := DefaultParams()
	bookings := func() []*model.Booking {
		return []*model.Booking{
			instantBooking(1, 600),
			instantBooking(2, 700),
			instantBooking(3, 800),
		}
	}
	l1 := NewInstantLoader(bookings(), p, rand.New(rand.NewSource(7)))
	l2 := NewInstantLoader(bookings(), p, rand.New(rand.NewSource(7)))

	for _, id := range []int64{1, 2, 3} {
		a, _ := l1.LoadTime(id)
		b, _ := l2.LoadTime(id)
		if a != b {
			t.Errorf("booking %d: load time %d vs %d for the same seed", id, a, b)
		}
	}
}

func TestLoader_EmitOnce(t *testing.T) {
	p := DefaultParams()
	l := NewInstantLoader([]*model.Booking{
		instantBooking(1, 390), // collapsed → loads at day start
		instantBooking(2, 900),
	}, p, rand.New(rand.NewSource(1)))

	first := l.Emit(360)
	if len(first) != 1 || first[0].ID != 1 {
		t.Fatalf("Emit(360) = %v, want booking 1 only", first)
	}
	if l.Remaining() != 1 {
		t.Errorf("Remaining = %d, want 1", l.Remaining())
	}

	// Already emitted bookings never come back.
	if again := l.Emit(360); len(again) != 0 {
		t.Errorf("Emit(360) repeat = %v, want empty", again)
	}

	rest := l.Emit(1140)
	if len(rest) != 1 || rest[0].ID != 2 {
		t.Errorf("Emit(1140) = %v, want booking 2", rest)
	}
	if l.Remaining() != 0 {
		t.Errorf("Remaining = %d, want 0", l.Remaining())
	}
}
