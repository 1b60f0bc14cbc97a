package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/moviebook/seatsync/internal/model"
)

// Client is the websocket implementation of Channel used by seat sessions.
//
// Design notes:
// - events is closed by the read loop, never by Close, so consumers can
//   range over it safely.
// - Close is idempotent; tearing down a session mid-booking must still
//   release the connection exactly once.
type Client struct {
	conn   *websocket.Conn
	events chan Event

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

const clientQueueSize = 16

// Dial connects to the realtime endpoint (e.g. "ws://host/ws") and starts
// the read loop.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		conn:   conn,
		events: make(chan Event, clientQueueSize),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Join subscribes this connection to one show's broadcasts.
func (c *Client) Join(showID uint64) error {
	return c.write(encode(EventJoinShow, showID))
}

// BookSeat notifies other viewers that a seat was just taken.  Errors are
// swallowed: delivery is best effort by contract.
func (c *Client) BookSeat(showID, seatID uint64) {
	_ = c.write(encode(EventBookSeat, BookSeatPayload{ShowID: showID, SeatID: seatID}))
}

// Events returns the inbound snapshot/fault stream.  The channel is
// closed when the connection ends.
func (c *Client) Events() <-chan Event { return c.events }

// Close tears the connection down (idempotent).
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, deadline)
		c.writeMu.Unlock()
		_ = c.conn.Close()
	})
	return nil
}

func (c *Client) write(env Envelope) error {
	select {
	case <-c.done:
		return websocket.ErrCloseSent
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(env)
}

// readLoop decodes envelopes into Events until the connection dies.
// Unknown events are skipped so protocol additions do not break older
// clients.
func (c *Client) readLoop() {
	defer close(c.events)
	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return
		}
		switch env.Event {
		case EventSeats:
			var seats model.Snapshot
			if err := json.Unmarshal(env.Data, &seats); err != nil {
				continue
			}
			c.deliver(Event{Seats: seats})
		case EventError:
			var msg string
			if err := json.Unmarshal(env.Data, &msg); err != nil {
				continue
			}
			c.deliver(Event{Err: msg})
		}
	}
}

// deliver hands an event to the consumer without ever blocking the read
// loop past teardown.
func (c *Client) deliver(ev Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}
