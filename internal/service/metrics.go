package service

import (
	"sort"

	"github.com/nikhil/fleetdispatch/internal/model"
	"github.com/nikhil/fleetdispatch/internal/pricing"
	"github.com/nikhil/fleetdispatch/pkg/geo"
)

// Metrics totals financials over the whole fleet. Customer fares are
// billed at the carrying vehicle's rate card, not the booking class.
func (e *Engine) Metrics() model.Metrics {
	m := model.Metrics{}
	for _, v := range e.vehicles {
		m.ActiveKm += v.ActiveKm
		m.DeadKm += v.DeadKm
		m.DriverPay += v.DriverPay
		r := e.rates.ForClass(v.Class)
		for _, id := range v.AssignedIDs {
			m.CustomerFare += pricing.Fare(e.bookings[id].DistanceKm, r)
		}
		m.Assigned += len(v.AssignedIDs)
	}
	m.ActiveKm = geo.Round2(m.ActiveKm)
	m.DeadKm = geo.Round2(m.DeadKm)
	m.DriverPay = geo.Round2(m.DriverPay)
	m.CustomerFare = geo.Round2(m.CustomerFare)
	m.Profit = geo.Round2(m.CustomerFare - m.DriverPay)
	if total := m.ActiveKm + m.DeadKm; total > 0 {
		m.Efficiency = m.ActiveKm / total
	}
	m.Visible = len(e.bookings)
	m.Unassigned = m.Visible - m.Assigned
	return m
}

// Snapshot renders the current engine state as an immutable value.
// The caller (the tick driver) fills in the tick-specific fields.
func (e *Engine) Snapshot(now int) model.TickSnapshot {
	snap := model.TickSnapshot{
		Time:    now,
		Clock:   geo.FormatClock(now),
		Metrics: e.Metrics(),
	}

	carrier := assignmentOf(e.vehicles)

	for _, v := range e.vehicles {
		r := e.rates.ForClass(v.Class)
		fare := 0.0
		for _, id := range v.AssignedIDs {
			fare += pricing.Fare(e.bookings[id].DistanceKm, r)
		}
		fare = geo.Round2(fare)
		snap.Vehicles = append(snap.Vehicles, model.VehicleView{
			ID:            v.ID,
			Class:         v.Class,
			AssignedIDs:   append([]int64(nil), v.AssignedIDs...),
			ActiveKm:      v.ActiveKm,
			DeadKm:        v.DeadKm,
			DriverPay:     v.DriverPay,
			Fare:          fare,
			Profit:        geo.Round2(fare - v.DriverPay),
			Efficiency:    v.Efficiency(),
			AvailableFrom: v.AvailableFrom,
		})
	}

	ids := make([]int64, 0, len(e.bookings))
	for id := range e.bookings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		b := e.bookings[id]
		vid, assigned := carrier[id]
		snap.Bookings = append(snap.Bookings, model.BookingView{
			ID:         b.ID,
			Class:      b.Class,
			PickupTime: b.PickupTime,
			DistanceKm: b.DistanceKm,
			Origin:     b.Origin,
			VehicleID:  vid,
			Assigned:   assigned,
			Locked:     e.locked[id],
		})
	}
	return snap
}
