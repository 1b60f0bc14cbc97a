package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/moviebook/seatsync/internal/realtime"
)

// WSHandler upgrades GET /ws connections and bridges them onto the
// realtime hub.  A connection subscribes to one show via a joinShow
// envelope and from then on receives full seat snapshots whenever the
// show's inventory changes.
type WSHandler struct {
	Hub    *realtime.Hub
	Notify ChangeNotifier

	upgrader websocket.Upgrader
}

// NewWSHandler constructs a WSHandler for the given hub.
func NewWSHandler(hub *realtime.Hub, notify ChangeNotifier) *WSHandler {
	return &WSHandler{
		Hub:    hub,
		Notify: notify,
		upgrader: websocket.Upgrader{
			// The browser client may be served from any origin; auth for
			// mutations happens on the HTTP booking route, the channel
			// itself only carries state the snapshot endpoint already
			// exposes publicly.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve handles one websocket connection for its whole lifetime.
func (h *WSHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	m := realtime.NewMember()
	defer func() {
		h.Hub.Leave(m)
		m.Close()
		_ = conn.Close()
	}()

	// Write pump: drain the member's queue onto the socket.
	go func() {
		for {
			select {
			case env := <-m.Send:
				if err := conn.WriteJSON(env); err != nil {
					m.Close()
					return
				}
			case <-m.Done():
				return
			}
		}
	}()

	ctx := c.Request().Context()
	for {
		var env realtime.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return nil
		}
		switch env.Event {
		case realtime.EventJoinShow:
			var showID uint64
			if err := json.Unmarshal(env.Data, &showID); err != nil || showID == 0 {
				continue
			}
			h.Hub.Join(showID, m)
			h.Hub.Welcome(ctx, showID, m)
		case realtime.EventBookSeat:
			// A viewer just booked: rebroadcast the authoritative
			// snapshot rather than trusting the echo's content.
			var p realtime.BookSeatPayload
			if err := json.Unmarshal(env.Data, &p); err != nil || p.ShowID == 0 {
				continue
			}
			h.Notify.SeatsChanged(ctx, p.ShowID)
		}
	}
}
