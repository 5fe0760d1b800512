package service

import (
	"context"
	"log"
	"time"

	"github.com/nikhil/fleetdispatch/internal/model"
	"github.com/nikhil/fleetdispatch/pkg/geo"
)

// Simulator is the tick driver. It advances the simulated clock from
// day start to day end in fixed steps; each tick reveals instants,
// runs the locking gate, and reassigns only when new instants arrived.
// The wall-clock sleep between ticks is purely cosmetic pacing.
type Simulator struct {
	engine *Engine
	loader *InstantLoader
	params Params
	sleep  time.Duration
	onTick func(model.TickSnapshot)
}

// NewSimulator wires the driver. onTick receives a snapshot after
// every tick (and once more after the final sweep); nil is allowed.
func NewSimulator(engine *Engine, loader *InstantLoader, p Params, sleep time.Duration, onTick func(model.TickSnapshot)) *Simulator {
	return &Simulator{engine: engine, loader: loader, params: p, sleep: sleep, onTick: onTick}
}

// Run drives the whole day. Cancellation is honored only between
// ticks; a tick in flight always completes. Per-tick panics are
// logged and the clock keeps advancing; a failed reassignment leaves
// the previous assignments in place because the pipeline mutates a
// clone and swaps at the end.
func (s *Simulator) Run(ctx context.Context) error {
	log.Printf("[tick] day %s → %s, step %d min",
		geo.FormatClock(s.params.DayStart), geo.FormatClock(s.params.DayEnd), s.params.TickStep)

	for now := s.params.DayStart; now <= s.params.DayEnd; now += s.params.TickStep {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.tick(now, now == s.params.DayStart)

		if s.sleep > 0 && now+s.params.TickStep <= s.params.DayEnd {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.sleep):
			}
		}
	}

	s.finish()
	return nil
}

// tick is one step of the state machine: emit instants, lock, maybe
// reassign, publish. The day-start tick always reassigns so the
// scheduled book gets its initial plan.
func (s *Simulator) tick(now int, first bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[tick] %s: recovered: %v", geo.FormatClock(now), r)
		}
	}()

	emitted := s.loader.Emit(now)
	if len(emitted) > 0 {
		s.engine.AddBookings(emitted)
	}
	s.engine.LockCommitments(now)

	reassigned := first || len(emitted) > 0
	var changes []model.VehicleChange
	if reassigned {
		changes = s.engine.Reassign(now)
	} else {
		log.Printf("[tick] %s: no new instants, keeping current plan", geo.FormatClock(now))
	}

	snap := s.engine.Snapshot(now)
	snap.Reassigned = reassigned
	snap.Changes = changes
	for _, b := range emitted {
		snap.EmittedIDs = append(snap.EmittedIDs, b.ID)
	}
	if s.onTick != nil {
		s.onTick(snap)
	}
}

// finish runs the post-simulation sweep and publishes the final
// snapshot.
func (s *Simulator) finish() {
	placed := s.engine.FinalSweep()
	log.Printf("[tick] day complete, final sweep placed %d bookings", placed)

	snap := s.engine.Snapshot(s.params.DayEnd)
	snap.Final = true
	if s.onTick != nil {
		s.onTick(snap)
	}
}
