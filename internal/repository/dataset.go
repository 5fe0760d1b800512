// Package repository contains the data access layer: the JSON input
// datasets, the Postgres run archive and the Redis distance cache.
package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nikhil/fleetdispatch/internal/model"
	"github.com/nikhil/fleetdispatch/pkg/geo"
)

// defaultTravelTime applies when a booking record omits travel_time.
const defaultTravelTime = 30

// vehicleRecord mirrors one entry of vehicles.json.
type vehicleRecord struct {
	VehicleID   int64   `json:"vehicle_id"`
	VehicleType string  `json:"vehicle_type"`
	HomeLat     float64 `json:"home_lat"`
	HomeLng     float64 `json:"home_lng"`
}

// bookingRecord mirrors one entry of bookings.json / instant_bookings.json.
type bookingRecord struct {
	BookingID   int64   `json:"booking_id"`
	VehicleType string  `json:"vehicle_type"`
	PickupLat   float64 `json:"pickup_lat"`
	PickupLon   float64 `json:"pickup_lon"`
	DropLat     float64 `json:"drop_lat"`
	DropLon     float64 `json:"drop_lon"`
	PickupTime  string  `json:"pickup_time"`
	DistanceKm  float64 `json:"distance_km"`
	TravelTime  *int    `json:"travel_time"`
}

// ParseVehicleClass turns "classN" into N (1..9).
func ParseVehicleClass(s string) (int, error) {
	rest, ok := strings.CutPrefix(s, "class")
	if !ok {
		return 0, fmt.Errorf("dataset: vehicle type %q: want classN", s)
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || n > 9 {
		return 0, fmt.Errorf("dataset: vehicle type %q: class out of range", s)
	}
	return n, nil
}

// LoadVehicles reads the fleet file. Any parse problem is an error;
// the caller treats startup input failures as fatal.
func LoadVehicles(path string) ([]*model.Vehicle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	var records []vehicleRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("dataset: parse %s: %w", path, err)
	}

	out := make([]*model.Vehicle, 0, len(records))
	for _, rec := range records {
		class, err := ParseVehicleClass(rec.VehicleType)
		if err != nil {
			return nil, fmt.Errorf("dataset: vehicle %d: %w", rec.VehicleID, err)
		}
		out = append(out, &model.Vehicle{
			ID:    rec.VehicleID,
			Class: class,
			Home:  model.Location{Lat: rec.HomeLat, Lon: rec.HomeLng},
		})
	}
	return out, nil
}

// LoadBookings reads one booking file and tags every record with the
// given origin stream.
func LoadBookings(path string, origin model.BookingOrigin) ([]*model.Booking, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	var records []bookingRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("dataset: parse %s: %w", path, err)
	}

	out := make([]*model.Booking, 0, len(records))
	for _, rec := range records {
		class, err := ParseVehicleClass(rec.VehicleType)
		if err != nil {
			return nil, fmt.Errorf("dataset: booking %d: %w", rec.BookingID, err)
		}
		pickup, err := geo.ParseClock(rec.PickupTime)
		if err != nil {
			return nil, fmt.Errorf("dataset: booking %d: %w", rec.BookingID, err)
		}
		travel := defaultTravelTime
		if rec.TravelTime != nil {
			travel = *rec.TravelTime
		}
		out = append(out, &model.Booking{
			ID:         rec.BookingID,
			Class:      class,
			Pickup:     model.Location{Lat: rec.PickupLat, Lon: rec.PickupLon},
			Drop:       model.Location{Lat: rec.DropLat, Lon: rec.DropLon},
			PickupTime: pickup,
			DistanceKm: rec.DistanceKm,
			TravelTime: travel,
			Origin:     origin,
		})
	}
	return out, nil
}
