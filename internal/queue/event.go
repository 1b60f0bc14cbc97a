// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published after a booking commits.  It carries
// enough for downstream consumers (audit log, notifications, analytics)
// to act without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID   uint64   `json:"booking_id"`
	UserID      uint64   `json:"user_id"`
	ShowID      uint64   `json:"show_id"`
	SeatIDs     []uint64 `json:"seat_ids"`
	TotalCents  uint32   `json:"total_cents"`
	ConfirmedAt string   `json:"confirmed_at"`
}
