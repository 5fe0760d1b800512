package service

import (
	"sort"

	"github.com/nikhil/fleetdispatch/internal/model"
	"github.com/nikhil/fleetdispatch/pkg/geo"
)

// The cost kernel. Active km come from the bookings' own trip
// distances; dead km are deadheads between stops. While a plan is
// still open for insertion the dead km are "non-final": they exclude
// the last-drop → home leg, which is booked exactly once per
// reassignment tick by finalize.

// planCost computes active and non-final dead km for home H and the
// ordered booking sequence ids.
func (e *Engine) planCost(home model.Location, ids []int64) (activeKm, deadKm float64) {
	if len(ids) == 0 {
		return 0, 0
	}
	first := e.bookings[ids[0]]
	deadKm = e.dist(home, first.Pickup)
	for i, id := range ids {
		b := e.bookings[id]
		activeKm += b.DistanceKm
		if i+1 < len(ids) {
			next := e.bookings[ids[i+1]]
			deadKm += e.dist(b.Drop, next.Pickup)
		}
	}
	return geo.Round2(activeKm), geo.Round2(deadKm)
}

// rebuildPlan recomputes everything derived from AssignedIDs: the
// sorted order, the route polyline, active/dead km (non-final form)
// and driver pay. AvailableFrom is deliberately not recomputed here;
// only the locking gate and attach move it.
func (e *Engine) rebuildPlan(v *model.Vehicle) {
	sort.Slice(v.AssignedIDs, func(i, j int) bool {
		a, b := e.bookings[v.AssignedIDs[i]], e.bookings[v.AssignedIDs[j]]
		if a.PickupTime != b.PickupTime {
			return a.PickupTime < b.PickupTime
		}
		return a.ID < b.ID
	})

	v.Route = v.Route[:0]
	for _, id := range v.AssignedIDs {
		b := e.bookings[id]
		v.Route = append(v.Route, b.Pickup, b.Drop)
	}

	v.ActiveKm, v.DeadKm = e.planCost(v.Home, v.AssignedIDs)
	r := e.rates.ForClass(v.Class)
	v.DriverPay = geo.Round2(v.ActiveKm*r.ActivePay + v.DeadKm*r.DeadPay)
}

// attach puts a booking on a vehicle and pushes availability forward
// to the booking's completion time.
func (e *Engine) attach(v *model.Vehicle, b *model.Booking) {
	v.AssignedIDs = append(v.AssignedIDs, b.ID)
	e.rebuildPlan(v)
	if ct := b.CompletionTime(e.params.ServiceTime); ct > v.AvailableFrom {
		v.AvailableFrom = ct
	}
}

// appendDelta is the greedy criterion: dead minus active km of the
// plan extended with b, in the non-final form. Lower is better.
func (e *Engine) appendDelta(v *model.Vehicle, b *model.Booking) float64 {
	ids := make([]int64, 0, len(v.AssignedIDs)+1)
	ids = append(ids, v.AssignedIDs...)
	ids = append(ids, b.ID)
	sort.Slice(ids, func(i, j int) bool {
		a, c := e.bookings[ids[i]], e.bookings[ids[j]]
		if a.PickupTime != c.PickupTime {
			return a.PickupTime < c.PickupTime
		}
		return a.ID < c.ID
	})
	active, dead := e.planCost(v.Home, ids)
	return dead - active
}

// canReach is the availability predicate: the vehicle must finish its
// committed work and deadhead from its last stop to the pickup before
// the pickup time.
func (e *Engine) canReach(v *model.Vehicle, b *model.Booking) bool {
	from := v.Home
	if n := len(v.Route); n > 0 {
		from = v.Route[n-1]
	}
	eta := float64(v.AvailableFrom) + geo.TravelMinutes(e.dist(from, b.Pickup), e.params.AvgSpeedKmph)
	return eta <= float64(b.PickupTime)
}

// finalize rebuilds every plan from scratch and books the home-return
// leg for each vehicle that carries anything. Rebuilding first keeps
// the operation safe to repeat: the leg can never be added twice.
func (e *Engine) finalize(fleet []*model.Vehicle) {
	for _, v := range fleet {
		e.rebuildPlan(v)
		if len(v.AssignedIDs) == 0 {
			continue
		}
		last := e.bookings[v.AssignedIDs[len(v.AssignedIDs)-1]]
		leg := e.dist(last.Drop, v.Home)
		r := e.rates.ForClass(v.Class)
		v.DeadKm = geo.Round2(v.DeadKm + leg)
		v.DriverPay = geo.Round2(v.DriverPay + leg*r.DeadPay)
	}
}
