package service

import (
	"log"
	"math/rand"
	"sort"

	"github.com/nikhil/fleetdispatch/internal/model"
)

// InstantLoader holds the instant-booking dataset and reveals each
// booking at its load time. A booking becomes visible 1–2 hours before
// pickup: the load time is drawn uniformly from
// [max(day_start, pickup−120), pickup−60], collapsing to the earliest
// point when the window is empty.
//
// Draws happen once, at construction, in booking-id order from the
// single seeded source, the only randomness in the system, so that
// identical seeds replay identical days.
type InstantLoader struct {
	pending []*model.Booking
	loadAt  map[int64]int
}

// NewInstantLoader draws a load time for every instant booking.
func NewInstantLoader(bs []*model.Booking, p Params, rng *rand.Rand) *InstantLoader {
	sorted := make([]*model.Booking, len(bs))
	copy(sorted, bs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	loadAt := make(map[int64]int, len(sorted))
	for _, b := range sorted {
		earliest := b.PickupTime - p.LockWindow
		if earliest < p.DayStart {
			earliest = p.DayStart
		}
		latest := b.PickupTime - p.UrgentWindow
		if latest > earliest {
			loadAt[b.ID] = earliest + rng.Intn(latest-earliest+1)
		} else {
			loadAt[b.ID] = earliest
		}
	}
	return &InstantLoader{pending: sorted, loadAt: loadAt}
}

// Emit returns the bookings whose load time has arrived, in id order,
// and removes them from the pending set.
func (l *InstantLoader) Emit(now int) []*model.Booking {
	var out []*model.Booking
	kept := l.pending[:0]
	for _, b := range l.pending {
		if l.loadAt[b.ID] <= now {
			out = append(out, b)
		} else {
			kept = append(kept, b)
		}
	}
	l.pending = kept
	if len(out) > 0 {
		log.Printf("[loader] t=%d: %d instant bookings revealed, %d pending", now, len(out), len(kept))
	}
	return out
}

// LoadTime exposes the drawn load time for a booking id.
func (l *InstantLoader) LoadTime(id int64) (int, bool) {
	t, ok := l.loadAt[id]
	return t, ok
}

// Remaining is the count of not-yet-revealed bookings.
func (l *InstantLoader) Remaining() int { return len(l.pending) }
