// Package pricing holds the per-class rate tables used for driver pay
// and customer fares. Rates are injected constants: the engine never
// computes prices from anything but this table.
package pricing

import "log"

// Rates is the full price card for one vehicle class.
type Rates struct {
	ActivePay     float64 // driver pay per active km
	DeadPay       float64 // driver pay per dead km
	CustomerPrice float64 // customer price per km
	DeadRatio     float64 // assumed dead-km share billed to the customer
}

// fallback applies to any class outside the table, logged once per class.
var fallback = Rates{ActivePay: 16, DeadPay: 10, CustomerPrice: 20, DeadRatio: 0.40}

// Table maps vehicle class (1..9) to its rates.
type Table struct {
	rates  map[int]Rates
	warned map[int]bool
}

// Default returns the standard nine-class rate card.
func Default() *Table {
	return &Table{
		rates: map[int]Rates{
			1: {ActivePay: 16, DeadPay: 10, CustomerPrice: 20, DeadRatio: 0.40},
			2: {ActivePay: 20, DeadPay: 15, CustomerPrice: 24, DeadRatio: 0.40},
			3: {ActivePay: 22, DeadPay: 18, CustomerPrice: 28, DeadRatio: 0.40},
			4: {ActivePay: 26, DeadPay: 22, CustomerPrice: 32, DeadRatio: 0.40},
			5: {ActivePay: 32, DeadPay: 28, CustomerPrice: 40, DeadRatio: 0.40},
			6: {ActivePay: 40, DeadPay: 32, CustomerPrice: 50, DeadRatio: 0.30},
			7: {ActivePay: 50, DeadPay: 40, CustomerPrice: 60, DeadRatio: 0.30},
			8: {ActivePay: 60, DeadPay: 50, CustomerPrice: 70, DeadRatio: 0.25},
			9: {ActivePay: 70, DeadPay: 60, CustomerPrice: 80, DeadRatio: 0.25},
		},
		warned: make(map[int]bool),
	}
}

// ForClass looks up the rates for a vehicle class, falling back to the
// class defaults for anything unknown.
func (t *Table) ForClass(class int) Rates {
	if r, ok := t.rates[class]; ok {
		return r
	}
	if !t.warned[class] {
		t.warned[class] = true
		log.Printf("[pricing] unknown vehicle class %d, using fallback rates", class)
	}
	return fallback
}

// Fare is the customer price for one booking carried by a vehicle of
// the given rate card: the trip distance plus the assumed dead share,
// both billed at the per-km customer price.
func Fare(distanceKm float64, r Rates) float64 {
	return (distanceKm + distanceKm*r.DeadRatio) * r.CustomerPrice
}
