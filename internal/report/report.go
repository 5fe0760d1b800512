// Package report renders the tick-by-tick console output: vehicle
// assignment tables, booking status, per-tick changes and the
// financial metrics block. Layout is presentation only; the data all
// comes from TickSnapshot.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nikhil/fleetdispatch/internal/model"
	"github.com/nikhil/fleetdispatch/pkg/geo"
)

// Reporter writes the human-readable run log. Wrap the writer with
// Tee to mirror everything into the log file.
type Reporter struct {
	w io.Writer
}

// New creates a reporter over the given writer.
func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Banner prints the run header once at startup.
func (r *Reporter) Banner(dayStart, dayEnd int, vehicles, scheduled, instants int, seed int64) {
	r.rule('=')
	fmt.Fprintf(r.w, "DISPATCH RUN  %s – %s   fleet=%d  scheduled=%d  instants=%d  seed=%d\n",
		geo.FormatClock(dayStart), geo.FormatClock(dayEnd), vehicles, scheduled, instants, seed)
	r.rule('=')
}

// Tick prints one tick: header, changes, the two tables and the
// metrics block. Non-reassignment ticks get a single status line.
func (r *Reporter) Tick(snap model.TickSnapshot) {
	if snap.Final {
		r.rule('=')
		fmt.Fprintf(r.w, "FINAL SNAPSHOT  %s\n", snap.Clock)
		r.rule('=')
	} else {
		r.rule('-')
		fmt.Fprintf(r.w, "TICK %s", snap.Clock)
		if len(snap.EmittedIDs) > 0 {
			fmt.Fprintf(r.w, "   new instants: %v", snap.EmittedIDs)
		}
		fmt.Fprintln(r.w)
		r.rule('-')
	}

	if !snap.Reassigned && !snap.Final {
		fmt.Fprintf(r.w, "no new instants, plan unchanged\n")
		r.metrics(snap.Metrics)
		return
	}

	r.changes(snap.Changes)
	r.vehicleTable(snap)
	r.bookingTable(snap)
	r.metrics(snap.Metrics)
}

func (r *Reporter) changes(changes []model.VehicleChange) {
	if len(changes) == 0 {
		return
	}
	fmt.Fprintln(r.w, "Changes:")
	for _, c := range changes {
		if len(c.Added) > 0 {
			fmt.Fprintf(r.w, "  vehicle %-4d +%v\n", c.VehicleID, c.Added)
		}
		if len(c.Removed) > 0 {
			fmt.Fprintf(r.w, "  vehicle %-4d -%v\n", c.VehicleID, c.Removed)
		}
	}
	fmt.Fprintln(r.w)
}

func (r *Reporter) vehicleTable(snap model.TickSnapshot) {
	fmt.Fprintf(r.w, "%-8s %-6s %-24s %10s %10s %10s %10s %10s %6s\n",
		"VEHICLE", "CLASS", "BOOKINGS", "ACTIVE KM", "DEAD KM", "FARE", "PAY", "PROFIT", "EFF")
	for _, v := range snap.Vehicles {
		ids := "-"
		if len(v.AssignedIDs) > 0 {
			parts := make([]string, len(v.AssignedIDs))
			for i, id := range v.AssignedIDs {
				parts[i] = fmt.Sprintf("%d", id)
			}
			ids = strings.Join(parts, ",")
		}
		fmt.Fprintf(r.w, "%-8d %-6d %-24s %10.2f %10.2f %10.2f %10.2f %10.2f %5.0f%%\n",
			v.ID, v.Class, ids, v.ActiveKm, v.DeadKm, v.Fare, v.DriverPay, v.Profit, v.Efficiency*100)
	}
	fmt.Fprintln(r.w)
}

func (r *Reporter) bookingTable(snap model.TickSnapshot) {
	fmt.Fprintf(r.w, "%-8s %-6s %-7s %10s %-9s %-9s %-8s %s\n",
		"BOOKING", "CLASS", "PICKUP", "DIST KM", "ORIGIN", "STATUS", "LOCK", "VEHICLE")
	for _, b := range snap.Bookings {
		status, lock, vehicle := "pending", "unlocked", "-"
		if b.Assigned {
			status = "assigned"
			vehicle = fmt.Sprintf("%d", b.VehicleID)
		}
		if b.Locked {
			lock = "locked"
		}
		fmt.Fprintf(r.w, "%-8d %-6d %-7s %10.2f %-9s %-9s %-8s %s\n",
			b.ID, b.Class, geo.FormatClock(b.PickupTime), b.DistanceKm, b.Origin, status, lock, vehicle)
	}
	fmt.Fprintln(r.w)
}

func (r *Reporter) metrics(m model.Metrics) {
	fmt.Fprintf(r.w, "Totals: active %.2f km | dead %.2f km | fare %.2f | pay %.2f | profit %.2f | efficiency %.1f%% | assigned %d/%d\n",
		m.ActiveKm, m.DeadKm, m.CustomerFare, m.DriverPay, m.Profit, m.Efficiency*100, m.Assigned, m.Visible)
}

func (r *Reporter) rule(ch byte) {
	fmt.Fprintln(r.w, strings.Repeat(string(ch), 100))
}
