package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/moviebook/seatsync/internal/booking"
	"github.com/moviebook/seatsync/internal/credentials"
	"github.com/moviebook/seatsync/internal/model"
	"github.com/moviebook/seatsync/internal/payment"
	"github.com/moviebook/seatsync/internal/realtime"
)

// DefaultSeatPriceCents is the price assumed for seats the inventory left
// unpriced.  Overridable via Options; the seat session never hides this
// fallback inside a computation.
const DefaultSeatPriceCents uint32 = 100

// State names the phases of a seat session's lifecycle.
type State int

const (
	// StateConnecting: initial snapshot fetch and channel join pending.
	StateConnecting State = iota
	// StateLive: seat table tracks channel snapshots; selection is open.
	StateLive
	// StateBooking: a booking request is in flight; selection is frozen.
	StateBooking
	// StateClosed: channel released, no further mutation.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateLive:
		return "live"
	case StateBooking:
		return "booking"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// API is the slice of the booking backend the session needs: the initial
// snapshot fetch and the booking submission.  *booking.Client satisfies
// it; tests substitute fakes.
type API interface {
	FetchSeats(ctx context.Context, showID uint64) (model.Snapshot, error)
	Book(ctx context.Context, r booking.Request) (booking.Result, error)
}

// Options tune a session.  The zero value is usable.
type Options struct {
	// DefaultPriceCents substitutes for unpriced seats.  Zero means
	// DefaultSeatPriceCents.
	DefaultPriceCents uint32
	// Notify receives user-visible messages (channel faults, seats lost
	// to concurrent bookings).  Defaults to log.Printf.
	Notify func(msg string)
}

// Session is one viewer's seat-selection state machine for one show.  All
// methods are safe for concurrent use; snapshots delivered by the channel
// and user actions serialize on one mutex, mirroring the one-event-at-a-
// time model the protocol assumes.
type Session struct {
	showID   uint64
	api      API
	channel  realtime.Channel
	creds    credentials.Provider
	payments payment.Collaborator

	defaultPrice uint32
	notify       func(string)

	mu       sync.Mutex
	state    State
	seats    model.Snapshot            // last snapshot, in delivery order
	table    map[uint64]model.Seat     // id -> seat, rebuilt per snapshot
	selected map[uint64]struct{}       // optimistic local selection
	degraded bool                      // live updates unavailable

	closeOnce sync.Once
}

// ParseShowID validates a show identifier taken from a navigation
// context.  Only positive integers are accepted.
func ParseShowID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidShowID
	}
	return id, nil
}

// New builds a session for the show named by rawShowID.  It fails with
// ErrInvalidShowID before touching the network when the identifier is
// malformed.  All collaborators must be non-nil.
func New(rawShowID string, api API, ch realtime.Channel, creds credentials.Provider, payments payment.Collaborator, opts Options) (*Session, error) {
	showID, err := ParseShowID(rawShowID)
	if err != nil {
		return nil, err
	}
	if api == nil || ch == nil || creds == nil || payments == nil {
		panic("nil collaborator passed to session.New")
	}
	defPrice := opts.DefaultPriceCents
	if defPrice == 0 {
		defPrice = DefaultSeatPriceCents
	}
	notify := opts.Notify
	if notify == nil {
		notify = func(msg string) { log.Printf("session: %s", msg) }
	}
	return &Session{
		showID:       showID,
		api:          api,
		channel:      ch,
		creds:        creds,
		payments:     payments,
		defaultPrice: defPrice,
		notify:       notify,
		state:        StateConnecting,
		selected:     make(map[uint64]struct{}),
	}, nil
}

// Start joins the show's channel and fetches the initial snapshot.  The
// fetch is the gate into the live state: when it fails the session closes
// (releasing the channel) and reports ErrSnapshotFetchFailed.  A failed
// channel join alone only degrades the session — the initial snapshot
// still renders, live updates just won't arrive.
func (s *Session) Start(ctx context.Context) error {
	if err := s.channel.Join(s.showID); err != nil {
		s.mu.Lock()
		s.degraded = true
		s.mu.Unlock()
		s.notify("live seat updates unavailable; showing a static view")
	}
	snap, err := s.api.FetchSeats(ctx, s.showID)
	if err != nil {
		s.Close()
		return fmt.Errorf("%w: %v", ErrSnapshotFetchFailed, err)
	}
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.replaceTable(snap)
	s.state = StateLive
	s.mu.Unlock()

	go s.readLoop()
	return nil
}

// readLoop drains channel events until the connection or session ends.
// Channel faults are surfaced but never close the session; snapshots are
// applied in delivery order.
func (s *Session) readLoop() {
	for ev := range s.channel.Events() {
		if ev.Err != "" {
			s.notify(ev.Err)
			continue
		}
		s.ApplySnapshot(ev.Seats)
	}
}

// ApplySnapshot replaces the seat table with a fresh snapshot and
// reconciles the selection against it.  Applying the same snapshot twice
// is harmless.  While a booking is in flight the selection is frozen, so
// seats the pending request references are only warned about — the
// booking response, not the snapshot, settles their fate.
func (s *Session) ApplySnapshot(snap model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.replaceTable(snap)
	if s.state == StateBooking {
		if _, contested := Reconcile(s.selected, s.table); len(contested) > 0 {
			s.notify(fmt.Sprintf("seats %v were just booked elsewhere; awaiting booking result", contested))
		}
		return
	}
	kept, dropped := Reconcile(s.selected, s.table)
	s.selected = kept
	if len(dropped) > 0 {
		s.notify(fmt.Sprintf("seats %v are no longer available and were removed from your selection", dropped))
	}
}

// replaceTable swaps in a snapshot wholesale.  Callers hold s.mu.
func (s *Session) replaceTable(snap model.Snapshot) {
	s.seats = snap
	s.table = snap.Index()
}

// Toggle flips a seat in or out of the local selection and reports
// whether the seat is selected afterwards.  Booked and unknown seats are
// no-ops, as is any toggle outside the live state (the selection is
// frozen while a booking is pending).
func (s *Session) Toggle(seatID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLive {
		_, in := s.selected[seatID]
		return in
	}
	seat, ok := s.table[seatID]
	if !ok || seat.Booked {
		return false
	}
	if _, in := s.selected[seatID]; in {
		delete(s.selected, seatID)
		return false
	}
	s.selected[seatID] = struct{}{}
	return true
}

// Total computes the price of the current selection: the sum of each
// selected seat's price, with the configured default substituted for
// unpriced seats.  Pure over (selection, table); call order never changes
// the result.
func (s *Session) Total() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked()
}

func (s *Session) totalLocked() uint32 {
	var total uint32
	for id := range s.selected {
		if seat, ok := s.table[id]; ok {
			total += seat.PriceOr(s.defaultPrice)
		}
	}
	return total
}

// Confirm submits the current selection as a booking.
//
// Preconditions are checked in order, before any network call: an absent
// user identity closes the session (the caller should redirect to
// authentication) and an empty selection is rejected outright.  The
// selection is then re-validated against the current table and frozen for
// the duration of the request; one request may be outstanding at a time.
//
// On success the session echoes one bookSeat notification per seat over
// the channel (best effort — the backend's own rebroadcast is the
// authoritative update), hands the payment context off, and closes.  On
// rejection or transport failure the selection is preserved and the
// session returns to live so the user may retry.
func (s *Session) Confirm(ctx context.Context) (payment.Context, error) {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return payment.Context{}, ErrClosed
	case StateBooking:
		s.mu.Unlock()
		return payment.Context{}, ErrBookingInFlight
	case StateConnecting:
		s.mu.Unlock()
		return payment.Context{}, fmt.Errorf("%w: session not live", ErrBookingFailed)
	}
	userID, ok := s.creds.UserID()
	if !ok {
		s.mu.Unlock()
		s.Close()
		return payment.Context{}, ErrNotAuthenticated
	}
	if len(s.selected) == 0 {
		s.mu.Unlock()
		return payment.Context{}, ErrEmptySelection
	}
	// Re-validate right before sending: reconciliation keeps the
	// selection honest on every snapshot, but a seat can still have been
	// taken since the last one arrived.
	kept, stale := Reconcile(s.selected, s.table)
	if len(stale) > 0 {
		s.selected = kept
		s.mu.Unlock()
		return payment.Context{}, fmt.Errorf("%w: seats %v are no longer available", ErrBookingFailed, stale)
	}
	seatIDs := s.selectionLocked()
	total := s.totalLocked()
	s.state = StateBooking
	s.mu.Unlock()

	res, err := s.api.Book(ctx, booking.Request{
		UserID:     userID,
		ShowID:     s.showID,
		SeatIDs:    seatIDs,
		TotalPrice: total,
	})

	s.mu.Lock()
	if s.state == StateClosed {
		// Torn down while the request was in flight; the response is
		// discarded without mutating the dead session.
		s.mu.Unlock()
		return payment.Context{}, ErrClosed
	}
	if err != nil {
		s.state = StateLive
		s.mu.Unlock()
		var apiErr *booking.APIError
		if errors.As(err, &apiErr) {
			return payment.Context{}, fmt.Errorf("%w: %s", ErrBookingFailed, apiErr.Message)
		}
		return payment.Context{}, fmt.Errorf("%w: %v", ErrBookingFailed, err)
	}
	s.state = StateClosed
	s.mu.Unlock()

	for _, id := range seatIDs {
		s.channel.BookSeat(s.showID, id)
	}
	pc := payment.Context{
		SelectedSeats: seatIDs,
		TotalPrice:    total,
		ShowID:        s.showID,
		BookingID:     res.BookingID,
	}
	handoffErr := s.payments.Handoff(ctx, pc)
	s.Close()
	return pc, handoffErr
}

// Close tears the session down and releases the realtime channel.  Safe
// to call from any state and any number of times; the channel disconnect
// runs exactly once across all exit paths.
func (s *Session) Close() {
	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
	s.closeOnce.Do(func() { _ = s.channel.Close() })
}

// State reports the session's current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Degraded reports whether live updates are unavailable (channel join
// failed; only the initial snapshot is shown).
func (s *Session) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// ShowID returns the show this session is scoped to.
func (s *Session) ShowID() uint64 { return s.showID }

// Seats returns the most recent snapshot in delivery order.
func (s *Session) Seats() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(model.Snapshot, len(s.seats))
	copy(out, s.seats)
	return out
}

// Selection returns the selected seat IDs in snapshot order.
func (s *Session) Selection() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectionLocked()
}

func (s *Session) selectionLocked() []uint64 {
	out := make([]uint64, 0, len(s.selected))
	for _, seat := range s.seats {
		if _, in := s.selected[seat.ID]; in {
			out = append(out, seat.ID)
		}
	}
	return out
}
