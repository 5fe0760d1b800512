package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/nikhil/fleetdispatch/internal/model"
	"github.com/nikhil/fleetdispatch/internal/service"
)

func testRouter(store *service.SnapshotStore) *mux.Router {
	router := mux.NewRouter()
	NewMonitor(store, nil, nil).Register(router)
	return router
}

func testSnapshot() model.TickSnapshot {
	return model.TickSnapshot{
		Time:  600,
		Clock: "10:00",
		Vehicles: []model.VehicleView{
			{ID: 1, Class: 2, AssignedIDs: []int64{1}, ActiveKm: 11.1, DeadKm: 30},
		},
		Bookings: []model.BookingView{
			{ID: 1, Class: 1, PickupTime: 630, Origin: model.OriginScheduled, VehicleID: 1, Assigned: true, Locked: true},
			{ID: 2, Class: 1, PickupTime: 900, Origin: model.OriginInstant},
		},
		Metrics: model.Metrics{Assigned: 1, Unassigned: 1, Visible: 2},
	}
}

func get(t *testing.T, router *mux.Router, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSnapshot_BeforeFirstTick(t *testing.T) {
	router := testRouter(service.NewSnapshotStore())
	rec := get(t, router, "/api/v1/snapshot")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 before the first tick", rec.Code)
	}
}

func TestSnapshot_ReturnsLatest(t *testing.T) {
	store := service.NewSnapshotStore()
	store.Publish(testSnapshot())
	rec := get(t, testRouter(store), "/api/v1/snapshot")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var snap model.TickSnapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Clock != "10:00" || len(snap.Vehicles) != 1 {
		t.Errorf("snapshot = %+v, want the published tick", snap)
	}
}

func TestVehicleByID(t *testing.T) {
	store := service.NewSnapshotStore()
	store.Publish(testSnapshot())
	router := testRouter(store)

	rec := get(t, router, "/api/v1/vehicles/1")
	if rec.Code != http.StatusOK {
		t.Errorf("known vehicle: status = %d, want 200", rec.Code)
	}

	rec = get(t, router, "/api/v1/vehicles/99")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown vehicle: status = %d, want 404", rec.Code)
	}

	rec = get(t, router, "/api/v1/vehicles/abc")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d, want 400", rec.Code)
	}
}

func TestBookings_Filters(t *testing.T) {
	store := service.NewSnapshotStore()
	store.Publish(testSnapshot())
	router := testRouter(store)

	cases := []struct {
		path string
		want int64
	}{
		{"/api/v1/bookings?status=assigned", 1},
		{"/api/v1/bookings?status=unassigned", 2},
		{"/api/v1/bookings?lock=locked", 1},
		{"/api/v1/bookings?lock=unlocked", 2},
		{"/api/v1/bookings?origin=instant", 2},
		{"/api/v1/bookings?origin=scheduled", 1},
	}
	for _, c := range cases {
		rec := get(t, router, c.path)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", c.path, rec.Code)
			continue
		}
		var out []model.BookingView
		if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
			t.Fatalf("%s: decode: %v", c.path, err)
		}
		if len(out) != 1 || out[0].ID != c.want {
			t.Errorf("%s: got %v, want single booking %d", c.path, out, c.want)
		}
	}
}

func TestHealth_NoBackends(t *testing.T) {
	rec := get(t, testRouter(service.NewSnapshotStore()), "/health")
	if rec.Code != http.StatusOK {
		t.Errorf("health = %d, want 200 without optional backends", rec.Code)
	}
}
