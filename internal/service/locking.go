package service

import "log"

// LockCommitments freezes every assigned booking whose pickup falls
// inside the lock window and recomputes per-vehicle availability from
// the frozen work. Locking is time-based only: an instant booking
// locks exactly like a scheduled one. Once locked, always locked.
//
// Availability is the latest completion among the vehicle's locked
// bookings, floored at the current time. Unlocked bookings do not
// count: when they are dropped by the reassignment pipeline the
// vehicle does not earn those minutes back.
func (e *Engine) LockCommitments(now int) int {
	horizon := now + e.params.LockWindow
	total := 0
	for _, v := range e.vehicles {
		latest := 0
		for _, id := range v.AssignedIDs {
			b := e.bookings[id]
			if b.PickupTime > horizon {
				continue
			}
			if !e.locked[id] {
				e.locked[id] = true
			}
			if ct := b.CompletionTime(e.params.ServiceTime); ct > latest {
				latest = ct
			}
			total++
		}
		av := now
		if latest > av {
			av = latest
		}
		v.AvailableFrom = av
	}
	if total > 0 {
		log.Printf("[lock] t=%d: %d commitments inside the %d-minute window", now, total, e.params.LockWindow)
	}
	return total
}
