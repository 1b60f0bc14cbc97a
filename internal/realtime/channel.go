// Package realtime carries live seat state between the backend and seat
// sessions.  The wire protocol is a JSON envelope per message: the server
// pushes full seat snapshots ("seats") and faults ("error"); clients send
// a room subscription ("joinShow") and best-effort booking echoes
// ("bookSeat").  Snapshots are delivered at least once and always replace
// prior state wholesale, so re-delivery is harmless.
package realtime

import (
	"encoding/json"

	"github.com/moviebook/seatsync/internal/model"
)

// Envelope frames every message on the channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Channel event names.
const (
	EventJoinShow = "joinShow"
	EventSeats    = "seats"
	EventError    = "error"
	EventBookSeat = "bookSeat"
)

// BookSeatPayload is the body of a bookSeat echo.
type BookSeatPayload struct {
	ShowID uint64 `json:"showId"`
	SeatID uint64 `json:"seatId"`
}

// Event is one inbound channel message as seen by a seat session: either
// a seat snapshot or a channel-level fault.
type Event struct {
	Seats model.Snapshot // non-nil for snapshot events
	Err   string         // non-empty for channel faults
}

// Channel is the session's view of the realtime connection.
//
// Join subscribes to one show's broadcasts; there is no acknowledgment,
// absence of snapshots is the only observable failure.  BookSeat is
// fire-and-forget: it is a latency optimization for other viewers, never
// a correctness mechanism.  Close must be idempotent; Events is closed
// when the connection is gone.
type Channel interface {
	Join(showID uint64) error
	BookSeat(showID, seatID uint64)
	Events() <-chan Event
	Close() error
}

// Offline returns a Channel for when the realtime endpoint cannot be
// reached.  Join reports the original dial error so the session records
// degraded mode, no events ever arrive, and BookSeat/Close are no-ops.
// The session still renders its initial snapshot, just without live
// updates.
func Offline(dialErr error) Channel {
	events := make(chan Event)
	close(events)
	return offlineChannel{err: dialErr, events: events}
}

type offlineChannel struct {
	err    error
	events chan Event
}

func (o offlineChannel) Join(uint64) error       { return o.err }
func (o offlineChannel) BookSeat(uint64, uint64) {}
func (o offlineChannel) Events() <-chan Event    { return o.events }
func (o offlineChannel) Close() error            { return nil }

// encode marshals an envelope payload, panicking on programmer error (the
// payload types in this package always marshal).
func encode(event string, data any) Envelope {
	raw, err := json.Marshal(data)
	if err != nil {
		panic("realtime: marshal " + event + ": " + err.Error())
	}
	return Envelope{Event: event, Data: raw}
}
