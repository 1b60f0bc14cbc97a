package handler_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviebook/seatsync/internal/handler"
	"github.com/moviebook/seatsync/internal/model"
	"github.com/moviebook/seatsync/internal/realtime"
)

// Round trip through a real websocket: the session-side client dials the
// gateway handler, joins a show and receives snapshot broadcasts.
func TestWebsocketChannelRoundTrip(t *testing.T) {
	store := newMemStore()
	hub := realtime.NewHub(store.ListByShow)
	notifier := realtime.NewNotifier(hub, nil)

	e := echo.New()
	e.GET("/ws", handler.NewWSHandler(hub, notifier).Serve)
	srv := httptest.NewServer(e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	client, err := realtime.Dial(context.Background(), wsURL)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Join(7))

	// Joining is welcomed with the current snapshot.
	seats := waitSeats(t, client)
	require.Len(t, seats, 3)

	// A committed booking elsewhere triggers an authoritative broadcast.
	_, _, err = store.BookSeats(context.Background(), 9, 7, []uint64{1})
	require.NoError(t, err)
	notifier.SeatsChanged(context.Background(), 7)

	seats = waitSeats(t, client)
	assert.True(t, seats.Index()[1].Booked)

	// A bookSeat echo from a viewer also provokes a fresh snapshot.
	client.BookSeat(7, 2)
	seats = waitSeats(t, client)
	require.Len(t, seats, 3)
}

func waitSeats(t *testing.T, c *realtime.Client) model.Snapshot {
	t.Helper()
	for {
		select {
		case ev, ok := <-c.Events():
			require.True(t, ok, "channel closed while waiting for snapshot")
			if ev.Seats != nil {
				return ev.Seats
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func TestWebsocketClientCloseIdempotent(t *testing.T) {
	store := newMemStore()
	hub := realtime.NewHub(store.ListByShow)
	notifier := realtime.NewNotifier(hub, nil)

	e := echo.New()
	e.GET("/ws", handler.NewWSHandler(hub, notifier).Serve)
	srv := httptest.NewServer(e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	client, err := realtime.Dial(context.Background(), wsURL)
	require.NoError(t, err)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	// The event stream ends once the connection is gone.
	select {
	case _, ok := <-client.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel did not close")
	}
}
