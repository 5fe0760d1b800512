// Package handler contains the HTTP handlers of the live monitor.
// The monitor is strictly read-only: every endpoint serves the
// immutable snapshot last published by the tick driver.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nikhil/fleetdispatch/internal/model"
	"github.com/nikhil/fleetdispatch/internal/service"
	"github.com/nikhil/fleetdispatch/pkg/cache"
	"github.com/nikhil/fleetdispatch/pkg/db"
)

// Monitor serves the engine's published state. The pg pool and redis
// client are optional; when nil the health endpoint simply skips them.
type Monitor struct {
	store  *service.SnapshotStore
	pgPool *pgxpool.Pool
	rdb    *redis.Client
}

// NewMonitor creates the monitor over the snapshot store.
func NewMonitor(store *service.SnapshotStore, pgPool *pgxpool.Pool, rdb *redis.Client) *Monitor {
	return &Monitor{store: store, pgPool: pgPool, rdb: rdb}
}

// Register mounts all monitor routes on the router.
func (m *Monitor) Register(router *mux.Router) {
	router.HandleFunc("/health", m.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/snapshot", m.Snapshot).Methods(http.MethodGet)
	api.HandleFunc("/metrics", m.Metrics).Methods(http.MethodGet)
	api.HandleFunc("/vehicles", m.Vehicles).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{id}", m.VehicleByID).Methods(http.MethodGet)
	api.HandleFunc("/bookings", m.Bookings).Methods(http.MethodGet)
}

// HealthResponse represents the /health endpoint response.
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// Health handles GET /health.
//
// The simulation itself is always "ok" while the process lives; the
// archive and cache backends are reported individually when enabled.
func (m *Monitor) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Services: make(map[string]string),
	}

	if m.pgPool != nil {
		if err := db.HealthCheck(r.Context(), m.pgPool); err != nil {
			resp.Status = "degraded"
			resp.Services["postgres"] = "unhealthy: " + err.Error()
		} else {
			resp.Services["postgres"] = "healthy"
		}
	}
	if m.rdb != nil {
		if err := cache.HealthCheck(r.Context(), m.rdb); err != nil {
			resp.Status = "degraded"
			resp.Services["redis"] = "unhealthy: " + err.Error()
		} else {
			resp.Services["redis"] = "healthy"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// Snapshot handles GET /api/v1/snapshot, the full latest tick.
func (m *Monitor) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := m.store.Latest()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "no_snapshot",
			"message": "No tick has completed yet.",
		})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Metrics handles GET /api/v1/metrics, the aggregate financials.
func (m *Monitor) Metrics(w http.ResponseWriter, r *http.Request) {
	snap, ok := m.store.Latest()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no_snapshot"})
		return
	}
	writeJSON(w, http.StatusOK, snap.Metrics)
}

// Vehicles handles GET /api/v1/vehicles.
func (m *Monitor) Vehicles(w http.ResponseWriter, r *http.Request) {
	snap, ok := m.store.Latest()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no_snapshot"})
		return
	}
	writeJSON(w, http.StatusOK, snap.Vehicles)
}

// VehicleByID handles GET /api/v1/vehicles/{id}.
func (m *Monitor) VehicleByID(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid id: must be an integer",
		})
		return
	}

	view, err := m.store.VehicleView(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoSnapshot):
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no_snapshot"})
		case errors.Is(err, service.ErrVehicleNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error":   "not_found",
				"message": "No such vehicle in the fleet.",
			})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
		}
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Bookings handles GET /api/v1/bookings with optional filters:
//
//	?status=assigned|unassigned
//	?lock=locked|unlocked
//	?origin=scheduled|instant
func (m *Monitor) Bookings(w http.ResponseWriter, r *http.Request) {
	snap, ok := m.store.Latest()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no_snapshot"})
		return
	}

	q := r.URL.Query()
	status, lock, origin := q.Get("status"), q.Get("lock"), q.Get("origin")

	out := make([]model.BookingView, 0, len(snap.Bookings))
	for _, b := range snap.Bookings {
		if status == "assigned" && !b.Assigned || status == "unassigned" && b.Assigned {
			continue
		}
		if lock == "locked" && !b.Locked || lock == "unlocked" && b.Locked {
			continue
		}
		if origin != "" && string(b.Origin) != origin {
			continue
		}
		out = append(out, b)
	}
	writeJSON(w, http.StatusOK, out)
}

// writeJSON is a helper that writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
