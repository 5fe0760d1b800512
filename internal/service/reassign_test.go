package service

import (
	"math"
	"testing"

	"github.com/nikhil/fleetdispatch/internal/model"
	"github.com/nikhil/fleetdispatch/internal/pricing"
)

func TestReassign_SingleBookingViaUpgrade(t *testing.T) {
	// One class2 vehicle, one class1 booking: Pass A has no exact
	// match, Pass B attaches it one class up.
	v := testVehicle(1, 2, model.Location{})
	e := testEngine(v)
	b := testBooking(1, 1, model.Location{Lon: 0.1}, model.Location{Lon: 0.2}, 480, 11.1)
	e.AddBookings([]*model.Booking{b})
	e.Reassign(360)

	got := e.Vehicles()[0]
	if len(got.AssignedIDs) != 1 || got.AssignedIDs[0] != 1 {
		t.Fatalf("AssignedIDs = %v, want [1]", got.AssignedIDs)
	}
	if b.Class != 1 {
		t.Errorf("booking class mutated to %d, must stay 1", b.Class)
	}
	if got.ActiveKm != 11.1 {
		t.Errorf("ActiveKm = %v, want 11.1", got.ActiveKm)
	}
	// dead = home→pickup (10) + drop→home (20), booked once.
	if got.DeadKm != 30 {
		t.Errorf("DeadKm = %v, want 30", got.DeadKm)
	}
	// class2 rates: 11.1·20 + 30·15 = 672.
	if got.DriverPay != 672 {
		t.Errorf("DriverPay = %v, want 672", got.DriverPay)
	}
}

func TestReassign_UpgradeAfterExact(t *testing.T) {
	// The class2 vehicle first takes the class2 booking in Pass A,
	// then the class1 leftover in Pass B.
	v := testVehicle(1, 2, model.Location{})
	e := testEngine(v)
	b1 := testBooking(1, 2, model.Location{Lon: 0.1}, model.Location{Lon: 0.2}, 480, 10)
	b2 := testBooking(2, 1, model.Location{Lon: 0.2}, model.Location{Lon: 0.3}, 560, 10)
	e.AddBookings([]*model.Booking{b1, b2})
	e.Reassign(360)

	got := e.Vehicles()[0]
	if len(got.AssignedIDs) != 2 || got.AssignedIDs[0] != 1 || got.AssignedIDs[1] != 2 {
		t.Fatalf("AssignedIDs = %v, want [1 2]", got.AssignedIDs)
	}
	// Invariant for upgraded bookings: vehicle class ≥ booking class + 1.
	if got.Class < b2.Class+1 {
		t.Errorf("vehicle class %d < booking class+1 %d", got.Class, b2.Class+1)
	}
}

func TestReassign_UrgentWaivesAvailability(t *testing.T) {
	v := testVehicle(1, 1, model.Location{})
	e := testEngine(v)
	b0 := testBooking(1, 1, model.Location{Lon: 0.1}, model.Location{Lon: 0.2}, 610, 10)
	e.AddBookings([]*model.Booking{b0})
	e.Reassign(360)

	// 10:00: b0 locks, availability moves to its completion (670),
	// past the new instant's 10:30 pickup.
	e.LockCommitments(600)
	instant := testBooking(2, 1, model.Location{Lon: 0.5}, model.Location{Lon: 0.6}, 630, 10)
	instant.Origin = model.OriginInstant
	e.AddBookings([]*model.Booking{instant})
	e.Reassign(600)

	got := e.Vehicles()[0]
	if len(got.AssignedIDs) != 2 {
		t.Fatalf("AssignedIDs = %v, want urgent booking placed despite availability", got.AssignedIDs)
	}
}

func TestReassign_Idempotent(t *testing.T) {
	v := testVehicle(1, 1, model.Location{})
	e := testEngine(v)
	e.AddBookings([]*model.Booking{
		testBooking(1, 1, model.Location{Lon: 0.1}, model.Location{Lon: 0.2}, 510, 10),
		testBooking(2, 1, model.Location{Lon: 0.2}, model.Location{Lon: 0.3}, 660, 10),
	})
	e.Reassign(360)

	e.LockCommitments(420)
	e.Reassign(420)
	first := assignmentOf(e.Vehicles())
	firstDead := e.Vehicles()[0].DeadKm

	e.LockCommitments(420)
	changes := e.Reassign(420)
	second := assignmentOf(e.Vehicles())

	if len(first) != len(second) {
		t.Fatalf("assignment count changed: %d → %d", len(first), len(second))
	}
	for id, vid := range first {
		if second[id] != vid {
			t.Errorf("booking %d moved from vehicle %d to %d on a repeat tick", id, vid, second[id])
		}
	}
	if len(changes) != 0 {
		t.Errorf("repeat tick reported changes: %v", changes)
	}
	// The home leg is rebooked, never accumulated.
	if got := e.Vehicles()[0].DeadKm; got != firstDead {
		t.Errorf("DeadKm drifted across repeat ticks: %v → %v", firstDead, got)
	}
}

func TestReassign_HomeLegLowerBound(t *testing.T) {
	v := testVehicle(1, 1, model.Location{Lon: 0.05})
	e := testEngine(v)
	b := testBooking(1, 1, model.Location{Lon: 0.1}, model.Location{Lon: 0.3}, 480, 20)
	e.AddBookings([]*model.Booking{b})
	e.Reassign(360)

	got := e.Vehicles()[0]
	returnLeg := gridKm(model.Location{Lon: 0.3}, model.Location{Lon: 0.05})
	if got.DeadKm < returnLeg {
		t.Errorf("DeadKm = %v, want at least the return leg %v", got.DeadKm, returnLeg)
	}
}

func TestReassign_NoDuplicateAssignments(t *testing.T) {
	v1 := testVehicle(1, 1, model.Location{})
	v2 := testVehicle(2, 1, model.Location{Lat: 0.5})
	e := testEngine(v1, v2)
	e.AddBookings([]*model.Booking{
		testBooking(1, 1, model.Location{Lon: 0.1}, model.Location{Lon: 0.2}, 480, 10),
		testBooking(2, 1, model.Location{Lat: 0.5, Lon: 0.1}, model.Location{Lat: 0.5, Lon: 0.2}, 490, 10),
		testBooking(3, 1, model.Location{Lon: 0.2}, model.Location{Lon: 0.3}, 700, 10),
	})
	e.Reassign(360)

	seen := make(map[int64]int64)
	for _, v := range e.Vehicles() {
		for _, id := range v.AssignedIDs {
			if prev, dup := seen[id]; dup {
				t.Errorf("booking %d on vehicles %d and %d", id, prev, v.ID)
			}
			seen[id] = v.ID
		}
	}
}

func TestReassign_DropsUnlockedAndRetries(t *testing.T) {
	v := testVehicle(1, 1, model.Location{})
	e := testEngine(v)
	e.AddBookings([]*model.Booking{
		testBooking(1, 1, model.Location{Lon: 0.1}, model.Location{Lon: 0.2}, 510, 10),
		testBooking(2, 1, model.Location{Lon: 0.2}, model.Location{Lon: 0.3}, 660, 10),
	})
	e.Reassign(360)

	// 07:00: booking 2 is outside the window, so the pipeline drops
	// and re-places it. Same plan comes back out.
	e.LockCommitments(420)
	e.Reassign(420)

	got := e.Vehicles()[0].AssignedIDs
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("AssignedIDs = %v, want [1 2] after drop and re-place", got)
	}
	if e.Locked(2) {
		t.Errorf("booking 2 must stay unlocked at 07:00")
	}
}

func TestFinalSweep_PlacesLeftoversIgnoringAvailability(t *testing.T) {
	v := testVehicle(1, 1, model.Location{})
	e := testEngine(v)
	b := testBooking(1, 1, model.Location{Lon: 0.1}, model.Location{Lon: 0.2}, 480, 10)
	e.AddBookings([]*model.Booking{b})

	if placed := e.FinalSweep(); placed != 1 {
		t.Fatalf("FinalSweep placed %d, want 1", placed)
	}
	got := e.Vehicles()[0]
	if len(got.AssignedIDs) != 1 {
		t.Fatalf("AssignedIDs = %v, want [1]", got.AssignedIDs)
	}
	if got.DeadKm != 30 {
		t.Errorf("DeadKm = %v, want home leg booked by sweep (30)", got.DeadKm)
	}
}

func TestFinalSweep_RespectsCapAndClass(t *testing.T) {
	p := DefaultParams()
	p.OverloadCapFinal = 1
	low := testVehicle(1, 1, model.Location{})
	e := NewEngine(p, gridKm, pricing.Default(), []*model.Vehicle{low})

	b0 := testBooking(1, 1, model.Location{Lon: 0.1}, model.Location{Lon: 0.2}, 480, 10)
	over := testBooking(2, 1, model.Location{Lon: 0.2}, model.Location{Lon: 0.3}, 600, 10)
	tooHigh := testBooking(3, 5, model.Location{Lon: 0.1}, model.Location{Lon: 0.2}, 700, 10)
	e.AddBookings([]*model.Booking{b0, over, tooHigh})
	e.attach(e.Vehicles()[0], b0)

	if placed := e.FinalSweep(); placed != 0 {
		t.Errorf("FinalSweep placed %d, want 0 (cap reached, class too high)", placed)
	}
}

func TestMetrics_Totals(t *testing.T) {
	v := testVehicle(1, 2, model.Location{})
	e := testEngine(v)
	b := testBooking(1, 1, model.Location{Lon: 0.1}, model.Location{Lon: 0.2}, 480, 11.1)
	e.AddBookings([]*model.Booking{b})
	e.Reassign(360)

	m := e.Metrics()
	// Fare uses the carrying vehicle's class2 rates:
	// (11.1 + 11.1·0.4) · 24 = 372.96.
	if m.CustomerFare != 372.96 {
		t.Errorf("CustomerFare = %v, want 372.96", m.CustomerFare)
	}
	if m.DriverPay != 672 {
		t.Errorf("DriverPay = %v, want 672", m.DriverPay)
	}
	if m.Profit != -299.04 {
		t.Errorf("Profit = %v, want -299.04", m.Profit)
	}
	if m.Assigned != 1 || m.Unassigned != 0 || m.Visible != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/0/1", m.Assigned, m.Unassigned, m.Visible)
	}
	wantEff := 11.1 / 41.1
	if math.Abs(m.Efficiency-wantEff) > 1e-9 {
		t.Errorf("Efficiency = %v, want %v", m.Efficiency, wantEff)
	}
}

func TestMetrics_PayRoundTrip(t *testing.T) {
	v1 := testVehicle(1, 1, model.Location{})
	v2 := testVehicle(2, 3, model.Location{Lat: 0.5})
	e := testEngine(v1, v2)
	e.AddBookings([]*model.Booking{
		testBooking(1, 1, model.Location{Lon: 0.1}, model.Location{Lon: 0.2}, 480, 10),
		testBooking(2, 3, model.Location{Lat: 0.5, Lon: 0.1}, model.Location{Lat: 0.5, Lon: 0.2}, 490, 12.5),
	})
	e.Reassign(360)

	tbl := pricing.Default()
	for _, v := range e.Vehicles() {
		r := tbl.ForClass(v.Class)
		want := v.ActiveKm*r.ActivePay + v.DeadKm*r.DeadPay
		if math.Abs(v.DriverPay-want) > 0.05 {
			t.Errorf("vehicle %d: DriverPay = %v, want ≈ %v", v.ID, v.DriverPay, want)
		}
	}
}
