// Package service implements the rolling-horizon dispatch core: the
// greedy assigner, the locking gate, the three-pass reassignment
// pipeline, the instant-booking loader and the tick driver.
//
// The engine is single-threaded by contract. One tick driver owns the
// simulated clock and mutates vehicle state between ticks; everything
// the outside world sees goes through immutable TickSnapshot values.
package service

import (
	"errors"
	"sort"

	"github.com/nikhil/fleetdispatch/internal/model"
	"github.com/nikhil/fleetdispatch/internal/pricing"
	"github.com/nikhil/fleetdispatch/pkg/geo"
)

var (
	// ErrVehicleNotFound is returned when a vehicle id is not in the fleet.
	ErrVehicleNotFound = errors.New("engine: vehicle not found")
)

// Params are the assignment and clock knobs. All times are minutes.
type Params struct {
	DayStart         int
	DayEnd           int
	TickStep         int
	LockWindow       int
	UrgentWindow     int
	ServiceTime      int
	OverloadCap      int // per-vehicle load cap during Pass C
	OverloadCapFinal int // softer cap for the post-simulation sweep
	ClassUpgradeMax  int
	RouteFillMax     int // bookings the route-completion heuristic may add per trigger
	AvgSpeedKmph     float64
}

// DefaultParams returns the standard day: 06:00–19:00, 30-minute ticks,
// a 2-hour lock window and a 1-hour urgent window.
func DefaultParams() Params {
	return Params{
		DayStart:         360,
		DayEnd:           1140,
		TickStep:         30,
		LockWindow:       120,
		UrgentWindow:     60,
		ServiceTime:      30,
		OverloadCap:      8,
		OverloadCapFinal: 10,
		ClassUpgradeMax:  9,
		RouteFillMax:     3,
		AvgSpeedKmph:     40,
	}
}

// Engine holds the vehicle registry, the visible booking set and the
// locked set. Bookings are keyed by id; vehicles are kept sorted by id
// so every scan is deterministic.
type Engine struct {
	params   Params
	dist     geo.DistanceFunc
	rates    *pricing.Table
	vehicles []*model.Vehicle
	bookings map[int64]*model.Booking
	locked   map[int64]bool
}

// NewEngine builds an engine over the given fleet. Vehicle plans start
// empty and every vehicle is available from day start.
func NewEngine(p Params, dist geo.DistanceFunc, rates *pricing.Table, fleet []*model.Vehicle) *Engine {
	sort.Slice(fleet, func(i, j int) bool { return fleet[i].ID < fleet[j].ID })
	for _, v := range fleet {
		if v.AvailableFrom < p.DayStart {
			v.AvailableFrom = p.DayStart
		}
	}
	return &Engine{
		params:   p,
		dist:     dist,
		rates:    rates,
		vehicles: fleet,
		bookings: make(map[int64]*model.Booking),
		locked:   make(map[int64]bool),
	}
}

// AddBookings makes bookings visible to the pool. Loaded bookings are
// never removed again.
func (e *Engine) AddBookings(bs []*model.Booking) {
	for _, b := range bs {
		e.bookings[b.ID] = b
	}
}

// Vehicles returns the live registry. Callers must not retain the
// slice across ticks.
func (e *Engine) Vehicles() []*model.Vehicle { return e.vehicles }

// Locked reports whether a booking is frozen by the locking gate.
func (e *Engine) Locked(id int64) bool { return e.locked[id] }

// assignmentOf maps booking id to the vehicle carrying it.
func assignmentOf(fleet []*model.Vehicle) map[int64]int64 {
	out := make(map[int64]int64)
	for _, v := range fleet {
		for _, id := range v.AssignedIDs {
			out[id] = v.ID
		}
	}
	return out
}

// unassigned returns visible bookings carried by no vehicle in the
// given fleet, sorted by pickup time then id.
func (e *Engine) unassigned(fleet []*model.Vehicle) []*model.Booking {
	taken := assignmentOf(fleet)
	var out []*model.Booking
	for id, b := range e.bookings {
		if _, ok := taken[id]; !ok {
			out = append(out, b)
		}
	}
	sortByPickup(out)
	return out
}

// sortByPickup orders bookings by pickup time ascending, id ascending.
// Every pass iterates in this order, which is what makes vehicle
// choice deterministic.
func sortByPickup(bs []*model.Booking) {
	sort.Slice(bs, func(i, j int) bool {
		if bs[i].PickupTime != bs[j].PickupTime {
			return bs[i].PickupTime < bs[j].PickupTime
		}
		return bs[i].ID < bs[j].ID
	})
}
