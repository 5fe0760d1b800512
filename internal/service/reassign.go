package service

import (
	"log"
	"sort"

	"github.com/nikhil/fleetdispatch/internal/model"
)

// Reassign runs the full pipeline at simulated time now:
//
//  1. drop every unlocked booking from every vehicle,
//  2. pass A: exact class over the pool,
//  3. pass B: single-class upgrade for the leftovers,
//  4. pass C: urgency relaxation inside the urgent window,
//  5. book the home-return legs.
//
// The whole thing runs on a structural clone of the registry; the
// clone is swapped in only when the pipeline completes, so a panic
// mid-pass leaves the live state untouched.
func (e *Engine) Reassign(now int) []model.VehicleChange {
	before := assignmentOf(e.vehicles)

	fleet := make([]*model.Vehicle, len(e.vehicles))
	for i, v := range e.vehicles {
		fleet[i] = v.Clone()
	}

	// Drop unlocked commitments. AvailableFrom stays where the
	// locking gate put it.
	for _, v := range fleet {
		kept := v.AssignedIDs[:0]
		for _, id := range v.AssignedIDs {
			if e.locked[id] {
				kept = append(kept, id)
			}
		}
		v.AssignedIDs = kept
		e.rebuildPlan(v)
	}

	pool := e.unassigned(fleet)
	log.Printf("[assign] t=%d: pool of %d bookings over %d vehicles", now, len(pool), len(fleet))

	e.assignPool(fleet, pool, classExact, true)

	poolB := e.poolWithUpgradeRoom(fleet)
	if len(poolB) > 0 {
		e.assignPool(fleet, poolB, classUpgrade, false)
	}

	e.urgentPass(fleet, now)
	e.finalize(fleet)

	e.vehicles = fleet
	return diffAssignments(before, assignmentOf(fleet), fleet)
}

// poolWithUpgradeRoom returns the still-unassigned bookings eligible
// for Pass B: everything below the top class. The booking keeps its
// own class; only the matching rule shifts by one.
func (e *Engine) poolWithUpgradeRoom(fleet []*model.Vehicle) []*model.Booking {
	var out []*model.Booking
	for _, b := range e.unassigned(fleet) {
		if b.Class < e.params.ClassUpgradeMax {
			out = append(out, b)
		}
	}
	return out
}

// urgentPass places bookings whose pickup is inside the urgent window
// with the availability predicate waived. Only class compatibility and
// the load cap remain.
func (e *Engine) urgentPass(fleet []*model.Vehicle, now int) {
	for _, b := range e.unassigned(fleet) {
		if b.PickupTime > now+e.params.UrgentWindow {
			continue
		}
		v := e.pickVehicle(fleet, b, classAtLeast, false, e.params.OverloadCap)
		if v == nil {
			log.Printf("[assign] booking %d still unassigned after urgency pass", b.ID)
			continue
		}
		log.Printf("[assign] urgent: booking %d onto vehicle %d", b.ID, v.ID)
		e.attach(v, b)
	}
}

// FinalSweep runs once, after the tick loop exits: place every
// leftover on the least-loaded compatible vehicle, no availability
// test, soft cap OverloadCapFinal. Best effort only; whatever remains
// is terminal. Home legs are rebooked afterwards.
func (e *Engine) FinalSweep() int {
	placed := 0
	for _, b := range e.unassigned(e.vehicles) {
		var best *model.Vehicle
		for _, v := range e.vehicles {
			if v.Class < b.Class || len(v.AssignedIDs) >= e.params.OverloadCapFinal {
				continue
			}
			if best == nil || len(v.AssignedIDs) < len(best.AssignedIDs) {
				best = v
			}
		}
		if best == nil {
			log.Printf("[assign] booking %d unplaceable in final sweep", b.ID)
			continue
		}
		e.attach(best, b)
		placed++
	}
	e.finalize(e.vehicles)
	return placed
}

// diffAssignments reports per-vehicle added and removed booking ids
// between two assignment maps.
func diffAssignments(before, after map[int64]int64, fleet []*model.Vehicle) []model.VehicleChange {
	byVehicle := make(map[int64]*model.VehicleChange)
	change := func(vid int64) *model.VehicleChange {
		c, ok := byVehicle[vid]
		if !ok {
			c = &model.VehicleChange{VehicleID: vid}
			byVehicle[vid] = c
		}
		return c
	}
	for id, vid := range after {
		if before[id] != vid {
			change(vid).Added = append(change(vid).Added, id)
		}
	}
	for id, vid := range before {
		if after[id] != vid {
			change(vid).Removed = append(change(vid).Removed, id)
		}
	}
	var out []model.VehicleChange
	for _, v := range fleet {
		if c, ok := byVehicle[v.ID]; ok {
			sort.Slice(c.Added, func(i, j int) bool { return c.Added[i] < c.Added[j] })
			sort.Slice(c.Removed, func(i, j int) bool { return c.Removed[i] < c.Removed[j] })
			out = append(out, *c)
		}
	}
	return out
}
