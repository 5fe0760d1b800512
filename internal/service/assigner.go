package service

import (
	"log"

	"github.com/nikhil/fleetdispatch/internal/model"
)

// classMatch decides whether a vehicle class may carry a booking class.
// Each pass of the pipeline supplies its own rule.
type classMatch func(vehicleClass, bookingClass int) bool

func classExact(vc, bc int) bool   { return vc == bc }
func classUpgrade(vc, bc int) bool { return vc == bc+1 }
func classAtLeast(vc, bc int) bool { return vc >= bc }

// pickVehicle scans the fleet for the best carrier of b: lowest
// appendDelta, ties broken by fewer bookings, then lower vehicle id.
// checkAvail toggles the availability predicate (Pass C waives it);
// cap, when positive, rejects vehicles at or over that load.
func (e *Engine) pickVehicle(fleet []*model.Vehicle, b *model.Booking, match classMatch, checkAvail bool, cap int) *model.Vehicle {
	var best *model.Vehicle
	var bestDelta float64
	for _, v := range fleet {
		if !match(v.Class, b.Class) {
			continue
		}
		if cap > 0 && len(v.AssignedIDs) >= cap {
			continue
		}
		if checkAvail && !e.canReach(v, b) {
			continue
		}
		d := e.appendDelta(v, b)
		switch {
		case best == nil:
		case d < bestDelta:
		case d == bestDelta && len(v.AssignedIDs) < len(best.AssignedIDs):
		default:
			continue
		}
		best, bestDelta = v, d
	}
	return best
}

// assignPool runs one greedy pass: bookings in ascending pickup order,
// each placed on the vehicle minimizing appendDelta. When fill is set,
// each successful placement triggers the route-completion heuristic.
// Returns the ids placed by this pass.
func (e *Engine) assignPool(fleet []*model.Vehicle, pool []*model.Booking, match classMatch, fill bool) []int64 {
	ascending := make([]*model.Booking, len(pool))
	copy(ascending, pool)
	sortByPickup(ascending)

	descending := make([]*model.Booking, len(ascending))
	for i, b := range ascending {
		descending[len(ascending)-1-i] = b
	}

	placed := make(map[int64]bool)
	var assigned []int64
	for _, b := range ascending {
		if placed[b.ID] {
			continue
		}
		v := e.pickVehicle(fleet, b, match, true, 0)
		if v == nil {
			continue
		}
		e.attach(v, b)
		placed[b.ID] = true
		assigned = append(assigned, b.ID)
		if fill {
			assigned = append(assigned, e.completeRoute(v, descending, placed, match)...)
		}
	}
	return assigned
}

// completeRoute densifies a freshly extended route: scan the pool from
// the latest pickup backwards for bookings this vehicle could still
// take profitably, and add up to RouteFillMax of them. Candidates must
// start no earlier than the vehicle's new availability.
func (e *Engine) completeRoute(v *model.Vehicle, descending []*model.Booking, placed map[int64]bool, match classMatch) []int64 {
	var added []int64
	for len(added) < e.params.RouteFillMax {
		var best *model.Booking
		var bestDelta float64
		for _, c := range descending {
			if placed[c.ID] || !match(v.Class, c.Class) {
				continue
			}
			if c.PickupTime < v.AvailableFrom {
				continue
			}
			if !e.canReach(v, c) {
				continue
			}
			d := e.appendDelta(v, c)
			if best == nil || d < bestDelta || (d == bestDelta && c.ID < best.ID) {
				best, bestDelta = c, d
			}
		}
		if best == nil {
			break
		}
		log.Printf("[assign] route fill: booking %d onto vehicle %d (delta %.2f)", best.ID, v.ID, bestDelta)
		e.attach(v, best)
		placed[best.ID] = true
		added = append(added, best.ID)
	}
	return added
}
