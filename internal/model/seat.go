package model

// Seat describes one seat of a show as reported by the seat inventory.
// Seats are created when a show's seat map is provisioned and are never
// deleted while the show exists; only the booked flag changes, and only
// through a confirmed booking.
//
// Fields:
//  ID         – identifier, unique within one show.
//  SeatNumber – display label (e.g. "A1").
//  SeatType   – category of the seat (STANDARD, VIP, ...).
//  Price      – price in currency minor units.  nil or zero means the
//               inventory did not assign a price and consumers fall back
//               to a configured default.
//  Booked     – authoritative availability flag, owned by the backend.
type Seat struct {
	ID         uint64  `json:"id"`
	SeatNumber string  `json:"seatNumber"`
	SeatType   string  `json:"seatType"`
	Price      *uint32 `json:"price,omitempty"`
	Booked     bool    `json:"isBooked"`
}

// PriceOr returns the seat's price, or def when no price is assigned.
// A zero price counts as unassigned; no seat is sold for free.
func (s Seat) PriceOr(def uint32) uint32 {
	if s.Price != nil && *s.Price > 0 {
		return *s.Price
	}
	return def
}

// Snapshot is the full, ordered seat list of one show at a point in time.
// A snapshot always replaces previously held state wholesale; deltas are
// never applied.  Once a seat appears booked in a snapshot, no later
// snapshot shows it unbooked (cancellations are not modeled).
type Snapshot []Seat

// Index builds a lookup table from seat ID to seat.  The snapshot's
// ordering is lost; callers that render seats keep the slice itself.
func (sn Snapshot) Index() map[uint64]Seat {
	m := make(map[uint64]Seat, len(sn))
	for _, s := range sn {
		m[s.ID] = s
	}
	return m
}
