// Package payment models the hand-off to the payment screen.  The seat
// session passes accumulated state out-of-band; nothing is re-fetched.
// Because the payment collaborator can also be reached by direct
// navigation, it validates the hand-off itself and fails closed.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// ErrMissingContext is returned when the hand-off payload lacks the seats
// or the total, e.g. when the payment screen was reached without going
// through a confirmed booking.
var ErrMissingContext = errors.New("missing payment context")

// Context is the state a settled seat session hands to the payment
// collaborator: enough to resume without another backend round trip.
// BookingID may be empty when the backend confirmed without one.
type Context struct {
	SelectedSeats []uint64 `json:"selectedSeats"`
	TotalPrice    uint32   `json:"totalPrice"`
	ShowID        uint64   `json:"showId"`
	BookingID     string   `json:"bookingId,omitempty"`
}

// Validate checks the hard preconditions of the hand-off contract.
func (c Context) Validate() error {
	if len(c.SelectedSeats) == 0 || c.TotalPrice == 0 {
		return ErrMissingContext
	}
	return nil
}

// Collaborator receives the hand-off from a successfully settled session.
type Collaborator interface {
	Handoff(ctx context.Context, pc Context) error
}

// Logger is the default collaborator: it validates the payload and logs
// the resulting payment intent.  A real payment screen would replace it.
type Logger struct{}

func (Logger) Handoff(_ context.Context, pc Context) error {
	if err := pc.Validate(); err != nil {
		return err
	}
	log.Printf("payment: show=%d booking=%q seats=%v total=%d", pc.ShowID, pc.BookingID, pc.SelectedSeats, pc.TotalPrice)
	return nil
}

// Func adapts a plain function to the Collaborator interface.
type Func func(ctx context.Context, pc Context) error

func (f Func) Handoff(ctx context.Context, pc Context) error { return f(ctx, pc) }

// String renders the context for CLI display.
func (c Context) String() string {
	return fmt.Sprintf("seats=%v total=%d show=%d booking=%q", c.SelectedSeats, c.TotalPrice, c.ShowID, c.BookingID)
}
