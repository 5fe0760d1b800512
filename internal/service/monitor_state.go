package service

import (
	"errors"
	"sync"

	"github.com/nikhil/fleetdispatch/internal/model"
)

// ErrNoSnapshot is returned before the first tick has published.
var ErrNoSnapshot = errors.New("monitor: no snapshot published yet")

// SnapshotStore is the hand-off point between the tick driver and the
// live monitor: one writer publishing immutable snapshots, any number
// of HTTP readers.
type SnapshotStore struct {
	mu   sync.RWMutex
	snap model.TickSnapshot
	set  bool
}

// NewSnapshotStore returns an empty store.
func NewSnapshotStore() *SnapshotStore { return &SnapshotStore{} }

// Publish replaces the latest snapshot.
func (s *SnapshotStore) Publish(snap model.TickSnapshot) {
	s.mu.Lock()
	s.snap = snap
	s.set = true
	s.mu.Unlock()
}

// Latest returns the most recent snapshot, if any tick has completed.
func (s *SnapshotStore) Latest() (model.TickSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, s.set
}

// VehicleView looks one vehicle up in the latest snapshot.
func (s *SnapshotStore) VehicleView(id int64) (model.VehicleView, error) {
	snap, ok := s.Latest()
	if !ok {
		return model.VehicleView{}, ErrNoSnapshot
	}
	for _, v := range snap.Vehicles {
		if v.ID == id {
			return v, nil
		}
	}
	return model.VehicleView{}, ErrVehicleNotFound
}
