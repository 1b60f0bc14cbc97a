package realtime

import (
	"context"
	"log"
	"sync"

	"github.com/moviebook/seatsync/internal/model"
)

// SnapshotFunc loads the authoritative seat snapshot for a show.  The hub
// never keeps seat state of its own; every broadcast re-reads the
// inventory so viewers only ever see what the store confirms.
type SnapshotFunc func(ctx context.Context, showID uint64) (model.Snapshot, error)

// Hub fans seat snapshots out to the websocket viewers of each show.  One
// hub serves one process; cross-instance delivery goes through the
// Notifier's Redis channel.
type Hub struct {
	load SnapshotFunc

	mu    sync.Mutex
	rooms map[uint64]map[*Member]struct{}
}

// NewHub constructs a hub around a snapshot loader.
func NewHub(load SnapshotFunc) *Hub {
	return &Hub{load: load, rooms: make(map[uint64]map[*Member]struct{})}
}

// Member is one connected viewer.
//
// Send is never closed by broadcasters; writers select on Done instead,
// which keeps concurrent broadcasts panic-free (see the arc realtime
// client for the same arrangement).
type Member struct {
	Send chan Envelope

	done      chan struct{}
	closeOnce sync.Once
}

const memberQueueSize = 16

// NewMember builds a member with a bounded send queue.
func NewMember() *Member {
	return &Member{
		Send: make(chan Envelope, memberQueueSize),
		done: make(chan struct{}),
	}
}

// Done is closed when the member is shutting down.
func (m *Member) Done() <-chan struct{} { return m.done }

// Close signals the member's pumps to stop (idempotent).
func (m *Member) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

// Join subscribes a member to one show's room, leaving any room it was in
// before.  A connection watches exactly one show at a time.
func (h *Hub) Join(showID uint64, m *Member) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		if _, ok := room[m]; ok && id != showID {
			delete(room, m)
			if len(room) == 0 {
				delete(h.rooms, id)
			}
		}
	}
	room := h.rooms[showID]
	if room == nil {
		room = make(map[*Member]struct{})
		h.rooms[showID] = room
	}
	room[m] = struct{}{}
}

// Leave removes a member from every room.  Called on disconnect.
func (h *Hub) Leave(m *Member) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		delete(room, m)
		if len(room) == 0 {
			delete(h.rooms, id)
		}
	}
}

// Broadcast loads the show's current snapshot and pushes it to every
// member of the room.  Slow consumers are skipped rather than blocking
// the rest of the room; they catch up on the next broadcast since every
// snapshot is a full replacement.
func (h *Hub) Broadcast(ctx context.Context, showID uint64) {
	seats, err := h.load(ctx, showID)
	if err != nil {
		log.Printf("realtime: load snapshot for show %d: %v", showID, err)
		h.fanout(showID, encode(EventError, "could not load seat data"))
		return
	}
	h.fanout(showID, encode(EventSeats, seats))
}

func (h *Hub) fanout(showID uint64, env Envelope) {
	h.mu.Lock()
	members := make([]*Member, 0, len(h.rooms[showID]))
	for m := range h.rooms[showID] {
		members = append(members, m)
	}
	h.mu.Unlock()

	for _, m := range members {
		select {
		case m.Send <- env:
		case <-m.Done():
		default: // queue full, drop; next broadcast supersedes this one
		}
	}
}

// Welcome pushes the current snapshot to a single member, used right
// after a join so new viewers do not wait for the next mutation.
func (h *Hub) Welcome(ctx context.Context, showID uint64, m *Member) {
	seats, err := h.load(ctx, showID)
	if err != nil {
		log.Printf("realtime: load snapshot for show %d: %v", showID, err)
		return
	}
	select {
	case m.Send <- encode(EventSeats, seats):
	case <-m.Done():
	default:
	}
}

// RoomSize reports how many members currently watch a show.
func (h *Hub) RoomSize(showID uint64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[showID])
}
