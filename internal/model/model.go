// Package model contains domain models for the dispatch engine.
// Bookings are immutable once loaded; vehicles are the only mutable
// aggregate and are confined to the tick driver.
package model

// ─── Enums ──────────────────────────────────────────────────

// BookingOrigin says which stream a booking arrived on.
type BookingOrigin string

const (
	OriginScheduled BookingOrigin = "scheduled"
	OriginInstant   BookingOrigin = "instant"
)

// ─── Location ───────────────────────────────────────────────

// Location represents a WGS-84 geographic point (EPSG:4326).
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ─── Domain Models ──────────────────────────────────────────

// Booking is one trip request. Times are minutes since midnight.
type Booking struct {
	ID         int64         `json:"id"`
	Class      int           `json:"class"`
	Pickup     Location      `json:"pickup"`
	Drop       Location      `json:"drop"`
	PickupTime int           `json:"pickup_time"`
	DistanceKm float64       `json:"distance_km"`
	TravelTime int           `json:"travel_time"`
	Origin     BookingOrigin `json:"origin"`
}

// CompletionTime returns when the trip is fully done: pickup plus
// on-trip travel plus the fixed per-booking service time.
func (b *Booking) CompletionTime(serviceTime int) int {
	return b.PickupTime + b.TravelTime + serviceTime
}

// Vehicle is a fleet unit with a fixed home base. AssignedIDs is kept
// sorted by pickup time ascending; Route is the induced polyline
// (pickup₁, drop₁, pickup₂, drop₂, …).
type Vehicle struct {
	ID            int64      `json:"id"`
	Class         int        `json:"class"`
	Home          Location   `json:"home"`
	AssignedIDs   []int64    `json:"assigned_ids"`
	Route         []Location `json:"route"`
	ActiveKm      float64    `json:"active_km"`
	DeadKm        float64    `json:"dead_km"`
	DriverPay     float64    `json:"driver_pay"`
	AvailableFrom int        `json:"available_from"`
}

// Clone returns a deep copy. Used by the reassignment pipeline so a
// mid-pass failure never leaks partial state into the live registry.
func (v *Vehicle) Clone() *Vehicle {
	cp := *v
	cp.AssignedIDs = append([]int64(nil), v.AssignedIDs...)
	cp.Route = append([]Location(nil), v.Route...)
	return &cp
}

// Efficiency is active km over total km. Zero when the vehicle has
// not moved.
func (v *Vehicle) Efficiency() float64 {
	total := v.ActiveKm + v.DeadKm
	if total == 0 {
		return 0
	}
	return v.ActiveKm / total
}

// ─── Snapshot DTOs ──────────────────────────────────────────

// VehicleView is the per-vehicle slice of a tick snapshot.
type VehicleView struct {
	ID            int64   `json:"id"`
	Class         int     `json:"class"`
	AssignedIDs   []int64 `json:"assigned_ids"`
	ActiveKm      float64 `json:"active_km"`
	DeadKm        float64 `json:"dead_km"`
	DriverPay     float64 `json:"driver_pay"`
	Fare          float64 `json:"fare"`
	Profit        float64 `json:"profit"`
	Efficiency    float64 `json:"efficiency"`
	AvailableFrom int     `json:"available_from"`
}

// BookingView is the per-booking slice of a tick snapshot.
type BookingView struct {
	ID         int64         `json:"id"`
	Class      int           `json:"class"`
	PickupTime int           `json:"pickup_time"`
	DistanceKm float64       `json:"distance_km"`
	Origin     BookingOrigin `json:"origin"`
	VehicleID  int64         `json:"vehicle_id"` // 0 when unassigned
	Assigned   bool          `json:"assigned"`
	Locked     bool          `json:"locked"`
}

// Metrics aggregates financials over the whole fleet.
type Metrics struct {
	ActiveKm     float64 `json:"active_km"`
	DeadKm       float64 `json:"dead_km"`
	DriverPay    float64 `json:"driver_pay"`
	CustomerFare float64 `json:"customer_fare"`
	Profit       float64 `json:"profit"`
	Efficiency   float64 `json:"efficiency"`
	Assigned     int     `json:"assigned"`
	Unassigned   int     `json:"unassigned"`
	Visible      int     `json:"visible"`
}

// VehicleChange records what a reassignment tick did to one vehicle.
type VehicleChange struct {
	VehicleID int64   `json:"vehicle_id"`
	Added     []int64 `json:"added"`
	Removed   []int64 `json:"removed"`
}

// TickSnapshot is the full engine state published after a tick.
// It is immutable once built; the live monitor serves it as-is.
type TickSnapshot struct {
	Time       int             `json:"time"`
	Clock      string          `json:"clock"`
	Reassigned bool            `json:"reassigned"`
	Final      bool            `json:"final"`
	EmittedIDs []int64         `json:"emitted_ids,omitempty"`
	Vehicles   []VehicleView   `json:"vehicles"`
	Bookings   []BookingView   `json:"bookings"`
	Changes    []VehicleChange `json:"changes,omitempty"`
	Metrics    Metrics         `json:"metrics"`
}
