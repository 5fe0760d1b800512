// Package geo provides the distance and time oracle for the dispatch
// engine.
//
// All distance calculations use the Haversine formula on WGS-84
// coordinates, scaled by a constant road factor. The engine only sees
// the DistanceFunc type, so OSRM or a maps API can be swapped in without
// touching the assignment code.
package geo

import (
	"math"

	"github.com/nikhil/fleetdispatch/internal/model"
)

// ─── Constants ──────────────────────────────────────────────

const (
	// EarthRadiusKm is the mean radius of Earth in kilometers.
	EarthRadiusKm = 6371.0

	// DefaultRoadFactor scales straight-line distance to an estimated
	// road distance.
	DefaultRoadFactor = 1.3
)

// DistanceFunc returns road kilometers between two points.
type DistanceFunc func(a, b model.Location) float64

// ─── Distance ───────────────────────────────────────────────

// HaversineKm returns the great-circle distance between two points in kilometers.
//
// Complexity: O(1)
func HaversineKm(a, b model.Location) float64 {
	dLat := degToRad(b.Lat - a.Lat)
	dLon := degToRad(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat +
		math.Cos(degToRad(a.Lat))*math.Cos(degToRad(b.Lat))*sinLon*sinLon

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// RoadDistance builds a DistanceFunc that scales the great-circle
// distance by the given road factor and rounds to two decimals.
func RoadDistance(factor float64) DistanceFunc {
	return func(a, b model.Location) float64 {
		return Round2(HaversineKm(a, b) * factor)
	}
}

// TravelMinutes converts a distance to driving minutes at the given
// average speed.
//
// Complexity: O(1)
func TravelMinutes(km, speedKmph float64) float64 {
	if speedKmph <= 0 {
		return 0
	}
	return (km / speedKmph) * 60.0
}

// Round2 rounds to two decimal places, the precision distances are
// carried at throughout the engine.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ─── Helpers ────────────────────────────────────────────────

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
