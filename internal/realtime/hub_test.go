package realtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviebook/seatsync/internal/model"
	"github.com/moviebook/seatsync/internal/realtime"
)

func snapshotLoader(snaps map[uint64]model.Snapshot) realtime.SnapshotFunc {
	return func(_ context.Context, showID uint64) (model.Snapshot, error) {
		snap, ok := snaps[showID]
		if !ok {
			return nil, errors.New("unknown show")
		}
		return snap, nil
	}
}

func recvSeats(t *testing.T, m *realtime.Member) model.Snapshot {
	t.Helper()
	select {
	case env := <-m.Send:
		require.Equal(t, realtime.EventSeats, env.Event)
		var seats model.Snapshot
		require.NoError(t, json.Unmarshal(env.Data, &seats))
		return seats
	default:
		t.Fatal("expected a queued envelope")
		return nil
	}
}

func TestBroadcastReachesRoomMembers(t *testing.T) {
	hub := realtime.NewHub(snapshotLoader(map[uint64]model.Snapshot{
		7: {{ID: 1, SeatNumber: "A1"}, {ID: 2, SeatNumber: "A2", Booked: true}},
	}))

	a, b := realtime.NewMember(), realtime.NewMember()
	other := realtime.NewMember()
	hub.Join(7, a)
	hub.Join(7, b)
	hub.Join(8, other)

	hub.Broadcast(context.Background(), 7)

	for _, m := range []*realtime.Member{a, b} {
		seats := recvSeats(t, m)
		require.Len(t, seats, 2)
		assert.True(t, seats[1].Booked)
	}
	select {
	case <-other.Send:
		t.Fatal("member of another room received the broadcast")
	default:
	}
}

func TestJoinMovesMemberBetweenRooms(t *testing.T) {
	hub := realtime.NewHub(snapshotLoader(map[uint64]model.Snapshot{7: {}, 8: {}}))
	m := realtime.NewMember()

	hub.Join(7, m)
	hub.Join(8, m) // a connection watches one show at a time

	assert.Equal(t, 0, hub.RoomSize(7))
	assert.Equal(t, 1, hub.RoomSize(8))
}

func TestLeaveRemovesMember(t *testing.T) {
	hub := realtime.NewHub(snapshotLoader(map[uint64]model.Snapshot{7: {}}))
	m := realtime.NewMember()
	hub.Join(7, m)
	hub.Leave(m)

	assert.Equal(t, 0, hub.RoomSize(7))
	hub.Broadcast(context.Background(), 7)
	select {
	case <-m.Send:
		t.Fatal("left member received a broadcast")
	default:
	}
}

func TestBroadcastLoadFailureSendsChannelError(t *testing.T) {
	hub := realtime.NewHub(snapshotLoader(nil))
	m := realtime.NewMember()
	hub.Join(404, m)

	hub.Broadcast(context.Background(), 404)

	select {
	case env := <-m.Send:
		assert.Equal(t, realtime.EventError, env.Event)
	default:
		t.Fatal("expected an error envelope")
	}
}

func TestWelcomePushesSnapshotToOneMember(t *testing.T) {
	hub := realtime.NewHub(snapshotLoader(map[uint64]model.Snapshot{7: {{ID: 1}}}))
	m := realtime.NewMember()
	hub.Join(7, m)

	hub.Welcome(context.Background(), 7, m)
	seats := recvSeats(t, m)
	assert.Len(t, seats, 1)
}

func TestSlowMemberIsSkippedNotBlocked(t *testing.T) {
	hub := realtime.NewHub(snapshotLoader(map[uint64]model.Snapshot{7: {{ID: 1}}}))
	m := realtime.NewMember()
	hub.Join(7, m)

	// Fill the queue well past capacity; Broadcast must never block.
	for i := 0; i < 64; i++ {
		hub.Broadcast(context.Background(), 7)
	}
	assert.Equal(t, 1, hub.RoomSize(7))
}

func TestMemberCloseIdempotent(t *testing.T) {
	m := realtime.NewMember()
	m.Close()
	m.Close()
	select {
	case <-m.Done():
	default:
		t.Fatal("Done should be closed")
	}
}

func TestNotifierWithoutRedisBroadcastsLocally(t *testing.T) {
	hub := realtime.NewHub(snapshotLoader(map[uint64]model.Snapshot{7: {{ID: 1}}}))
	m := realtime.NewMember()
	hub.Join(7, m)

	n := realtime.NewNotifier(hub, nil)
	n.SeatsChanged(context.Background(), 7)

	seats := recvSeats(t, m)
	assert.Len(t, seats, 1)
}
