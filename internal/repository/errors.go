// Package repository persists the seat inventory: the authoritative
// per-show seat state and the bookings that mutate it.  Sentinel errors
// let handlers map failure scenarios to HTTP responses without string
// matching.
package repository

import (
	"fmt"
	"sort"
)

// SeatsUnavailableError reports which requested seats could not be booked
// because they are already taken or do not exist for the show.  Handlers
// translate it into a 400 with the conflicting seat list so the client
// can reconcile.
type SeatsUnavailableError struct {
	SeatIDs []uint64
}

func (e *SeatsUnavailableError) Error() string {
	sort.Slice(e.SeatIDs, func(i, j int) bool { return e.SeatIDs[i] < e.SeatIDs[j] })
	return fmt.Sprintf("seats %v are unavailable", e.SeatIDs)
}
